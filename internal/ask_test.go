package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/chefgenie/internal/api"
	"github.com/starford/chefgenie/internal/cachestore"
	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/processor"
	"github.com/starford/chefgenie/internal/testutil"
)

// testServer runs the recipe server over the testutil static directory.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	_, store := testutil.TestStatic(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	holder := catalog.NewHolder(catalog.LoadFile(store, "recipes.json", logger))
	proc := processor.New(nil, holder, logger)
	srv := httptest.NewServer(api.NewRouter(proc, holder, store, "*", nil))
	t.Cleanup(srv.Close)
	return srv
}

func askConfig(serverURL, connectivity string) *Config {
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Client.ServerURL = serverURL
	cfg.Client.Connectivity = connectivity
	cfg.Gateway.Manifest = []string{"/", "/index.html", "/style.css", "/script.js", "/manifest.json", "/static/recipes.json"}
	return cfg
}

func ask(t *testing.T, cfg *Config, stdin string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithConfig(cfg),
		WithIO(strings.NewReader(stdin), &out, io.Discard),
	}, opts...)
	if err := Ask(context.Background(), opts...); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	return out.String()
}

func TestAsk_LocalHit(t *testing.T) {
	srv := testServer(t)
	out := ask(t, askConfig(srv.URL, "online"), "", WithQuery("Hey ChefGenie pasta carbonara"))
	if !strings.Contains(out, "Pasta Carbonara") || !strings.Contains(out, "guanciale") {
		t.Errorf("output = %q", out)
	}
}

func TestAsk_RemoteMiss(t *testing.T) {
	srv := testServer(t)
	out := ask(t, askConfig(srv.URL, "online"), "", WithQuery("tacos"))
	if !strings.Contains(out, "No recipe found for 'tacos'") {
		t.Errorf("output = %q", out)
	}
}

func TestAsk_OfflineMiss(t *testing.T) {
	srv := testServer(t)
	out := ask(t, askConfig(srv.URL, "offline"), "", WithQuery("tacos"))
	if !strings.Contains(out, "You are offline. No matching local recipe found.") {
		t.Errorf("output = %q", out)
	}
}

func TestAsk_ServerDownIsOfflineWithoutCatalog(t *testing.T) {
	srv := testServer(t)
	url := srv.URL
	srv.Close()

	out := ask(t, askConfig(url, "auto"), "", WithQuery("pasta carbonara"))
	if !strings.Contains(out, "You are offline") {
		t.Errorf("output = %q", out)
	}
}

// hangingServer accepts connections and never answers until the test ends.
func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func TestAsk_HangingServerGivesUp(t *testing.T) {
	srv := hangingServer(t)
	cfg := askConfig(srv.URL, "offline")
	cfg.Client.Timeout = 300 * time.Millisecond

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- Ask(context.Background(),
			WithConfig(cfg),
			WithIO(strings.NewReader(""), &out, io.Discard),
			WithQuery("tacos"),
		)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Ask still waiting on the server")
	}
	if !strings.Contains(out.String(), "You are offline") {
		t.Errorf("output = %q", out.String())
	}
}

func TestInstallLoop_AttemptTimesOut(t *testing.T) {
	srv := hangingServer(t)
	cfg := askConfig(srv.URL, "offline")
	app := &application{config: cfg}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	storage, err := cachestore.New(context.Background(), cachestore.DriverMemory, "")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	gw, err := app.newGateway(storage, srv.URL, logger)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := install(ctx, gw, 200*time.Millisecond); err == nil {
		t.Fatal("install against a silent server should fail")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("install took %s", elapsed)
	}

	// installLoop keeps retrying until its context ends, then returns cleanly.
	if err := installLoop(ctx, gw, 100*time.Millisecond, 200*time.Millisecond, logger); err != nil {
		t.Errorf("installLoop: %v", err)
	}
	if gw.Active() {
		t.Error("gateway should not activate without an install")
	}
}

func TestAsk_List(t *testing.T) {
	srv := testServer(t)
	out := ask(t, askConfig(srv.URL, "online"), "", WithListRecipes())
	if !strings.Contains(out, "Pancakes") || !strings.Contains(out, "2 recipes found") {
		t.Errorf("output = %q", out)
	}
	if strings.Index(out, "Pasta Carbonara") > strings.Index(out, "Pancakes") {
		t.Error("recipes should be listed in catalog order")
	}
}

func TestAsk_Interactive(t *testing.T) {
	srv := testServer(t)
	out := ask(t, askConfig(srv.URL, "online"), "pancakes\nhey chefgenie\npancakes\nstop\nhey chefgenie\n", WithInteractive())

	for _, want := range []string{"How can I help?", "Here's the recipe for Pancakes", "Whisk.", "Conversation stopped."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Lines after the stop word are not heard.
	if strings.Count(out, "How can I help?") != 1 {
		t.Errorf("session kept listening after stop:\n%s", out)
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	err := Ask(context.Background(), WithConfig(askConfig("http://localhost:1", "offline")), WithQuery("  "))
	if err != errEmptyQuery {
		t.Fatalf("err = %v, want errEmptyQuery", err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}
