package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"

	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
)

// fakeRemote counts calls and answers with fn.
type fakeRemote struct {
	calls atomic.Int32
	texts []string
	fn    func(text string) (*models.ProcessResponse, error)
}

func (f *fakeRemote) Process(_ context.Context, text string) (*models.ProcessResponse, error) {
	f.calls.Add(1)
	f.texts = append(f.texts, text)
	if f.fn == nil {
		return &models.ProcessResponse{Error: "no recipe"}, nil
	}
	return f.fn(text)
}

type online bool

func (o online) Online(context.Context) bool { return bool(o) }

func quiet() Option {
	return WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func carbonaraCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`{"pasta carbonara": {"name":"Pasta Carbonara","ingredients":["eggs","pasta"],"steps":["boil","mix"]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return c
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Hey ChefGenie make Tacos  ": "make tacos",
		"PASTA":                        "pasta",
		"hey chefgenie":                "",
		"hey chefgenie hey chefgenie":  "hey chefgenie",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve_LocalHitScenario(t *testing.T) {
	remote := &fakeRemote{}
	r := New(carbonaraCatalog(t), remote, online(true), quiet())

	res := r.Resolve(context.Background(), "can you make pasta carbonara")
	if res.Kind != KindLocalHit {
		t.Fatalf("kind = %s, want local_hit", res.Kind)
	}
	if res.Local == nil || res.Local.Name != "Pasta Carbonara" {
		t.Fatalf("recipe = %+v", res.Local)
	}
	if len(res.Local.Ingredients) != 2 || res.Local.Steps[1] != "mix" {
		t.Errorf("recipe fields = %+v", res.Local)
	}
	if res.Remote != nil {
		t.Error("local hit must not carry a remote recipe")
	}
	if remote.calls.Load() != 0 {
		t.Errorf("remote calls = %d, want 0", remote.calls.Load())
	}
}

func TestResolve_LocalHitAnyCaseNoRemote(t *testing.T) {
	remote := &fakeRemote{}
	r := New(carbonaraCatalog(t), remote, online(true), quiet())
	for _, q := range []string{"PASTA CARBONARA", "Hey ChefGenie pasta carbonara tonight", "carbonara"} {
		if res := r.Resolve(context.Background(), q); res.Kind != KindLocalHit {
			t.Errorf("Resolve(%q) = %s, want local_hit", q, res.Kind)
		}
	}
	if remote.calls.Load() != 0 {
		t.Errorf("remote calls = %d, want 0", remote.calls.Load())
	}
}

func TestResolve_OfflineMissScenario(t *testing.T) {
	remote := &fakeRemote{}
	r := New(catalog.Empty(), remote, online(false), quiet())

	res := r.Resolve(context.Background(), "tacos")
	if res.Kind != KindOfflineMiss {
		t.Fatalf("kind = %s, want offline_miss", res.Kind)
	}
	if remote.calls.Load() != 0 {
		t.Errorf("remote calls = %d, want 0", remote.calls.Load())
	}
}

func TestResolve_NilConnectivityIsOffline(t *testing.T) {
	remote := &fakeRemote{}
	r := New(nil, remote, nil, quiet())
	if res := r.Resolve(context.Background(), "tacos"); res.Kind != KindOfflineMiss {
		t.Errorf("kind = %s, want offline_miss", res.Kind)
	}
}

func TestResolve_RemoteHitScenario(t *testing.T) {
	body := `{"recipe":{"title":"Tacos","ingredients":["tortilla"],"steps":["fill","fold"],"nutrition":{"calories":200}}}`
	remote := &fakeRemote{fn: func(string) (*models.ProcessResponse, error) {
		var resp models.ProcessResponse
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}}
	r := New(catalog.Empty(), remote, online(true), quiet())

	res := r.Resolve(context.Background(), "tacos")
	if res.Kind != KindRemoteHit {
		t.Fatalf("kind = %s, want remote_hit", res.Kind)
	}
	if remote.calls.Load() != 1 {
		t.Errorf("remote calls = %d, want 1", remote.calls.Load())
	}
	got, err := json.Marshal(res.Remote)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"title":"Tacos","ingredients":["tortilla"],"steps":["fill","fold"],"nutrition":{"calories":200}}`
	if string(got) != want {
		t.Errorf("remote recipe = %s\nwant %s", got, want)
	}
	if res.Local != nil {
		t.Error("remote hit must not carry a local recipe")
	}
}

func TestResolve_ExactlyOneRemoteCallPerMiss(t *testing.T) {
	remote := &fakeRemote{}
	r := New(carbonaraCatalog(t), remote, online(true), quiet())
	queries := []string{"tacos", "sushi", "hey chefgenie ramen"}
	for i, q := range queries {
		res := r.Resolve(context.Background(), q)
		if res.Kind != KindRemoteMiss {
			t.Errorf("Resolve(%q) = %s, want remote_miss", q, res.Kind)
		}
		if int(remote.calls.Load()) != i+1 {
			t.Fatalf("after %d resolves remote calls = %d", i+1, remote.calls.Load())
		}
	}
	if remote.texts[2] != "ramen" {
		t.Errorf("remote text = %q, want wake phrase stripped", remote.texts[2])
	}
}

func TestResolve_StoppedNeverCarriesRecipe(t *testing.T) {
	remote := &fakeRemote{fn: func(string) (*models.ProcessResponse, error) {
		// A stopped signal wins even if a recipe is present.
		return &models.ProcessResponse{
			Stopped: true,
			Message: "ChefGenie conversation stopped.",
			Recipe:  &models.RemoteRecipe{Title: "Ignored"},
		}, nil
	}}
	r := New(catalog.Empty(), remote, online(true), quiet())

	res := r.Resolve(context.Background(), "stop")
	if res.Kind != KindStopped {
		t.Fatalf("kind = %s, want stopped", res.Kind)
	}
	if res.Local != nil || res.Remote != nil {
		t.Error("stopped outcome must not produce a recipe")
	}
	if res.Message != "ChefGenie conversation stopped." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestResolve_RemoteMissCarriesError(t *testing.T) {
	remote := &fakeRemote{fn: func(string) (*models.ProcessResponse, error) {
		return &models.ProcessResponse{Error: "No recipe found for 'zzz'"}, nil
	}}
	r := New(catalog.Empty(), remote, online(true), quiet())
	res := r.Resolve(context.Background(), "zzz")
	if res.Kind != KindRemoteMiss || res.Message != "No recipe found for 'zzz'" {
		t.Errorf("result = %+v", res)
	}
}

func TestResolve_TransportFailureIsConnectionError(t *testing.T) {
	cause := errors.New("connection refused")
	remote := &fakeRemote{fn: func(string) (*models.ProcessResponse, error) {
		return nil, cause
	}}
	r := New(catalog.Empty(), remote, online(true), quiet())
	res := r.Resolve(context.Background(), "tacos")
	if res.Kind != KindConnectionError {
		t.Fatalf("kind = %s, want connection_error", res.Kind)
	}
	if !errors.Is(res.Err, cause) {
		t.Errorf("err = %v", res.Err)
	}
}

func TestResolve_NilResponseIsConnectionError(t *testing.T) {
	remote := &fakeRemote{fn: func(string) (*models.ProcessResponse, error) { return nil, nil }}
	r := New(catalog.Empty(), remote, online(true), quiet())
	if res := r.Resolve(context.Background(), "tacos"); res.Kind != KindConnectionError {
		t.Errorf("kind = %s, want connection_error", res.Kind)
	}
}

func TestKindString(t *testing.T) {
	if KindOfflineMiss.String() != "offline_miss" || Kind(0).String() != "unknown" {
		t.Error("unexpected kind names")
	}
}
