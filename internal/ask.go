package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/starford/chefgenie/internal/cachestore"
	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/netcheck"
	"github.com/starford/chefgenie/internal/remote"
	"github.com/starford/chefgenie/internal/render"
	"github.com/starford/chefgenie/internal/resolver"
	"github.com/starford/chefgenie/internal/voice"
)

var errEmptyQuery = errors.New("ask: empty request")

// terminalSpeaker prints spoken lines as status text.
type terminalSpeaker struct {
	w io.Writer
}

func (s terminalSpeaker) Speak(_ context.Context, text string) {
	fmt.Fprintln(s.w, render.Status("ChefGenie: "+text))
}

// Ask is the client side: it installs the offline gateway over the
// configured server, fetches the catalog through it and answers one request,
// a stream of transcripts, or a catalog listing. Logs go to stderr.
func Ask(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(app.stderr)

	if !app.interactive && !app.listOnly && strings.TrimSpace(app.query) == "" {
		return errEmptyQuery
	}

	storage, err := cachestore.New(ctx, cfg.Client.CacheDriver, cfg.Client.CacheDSN)
	if err != nil {
		return fmt.Errorf("init cache storage: %w", err)
	}
	defer storage.Close()

	gw, err := app.newGateway(storage, cfg.Client.ServerURL, logger)
	if err != nil {
		return err
	}
	installOnce(ctx, gw, storage, cfg.Client.Timeout, logger)

	catalogURL, err := gw.URL(path.Join("/static", cfg.Catalog.File))
	if err != nil {
		return err
	}
	client := &http.Client{Transport: gw, Timeout: cfg.Client.Timeout}
	cat := catalog.Fetch(ctx, client, catalogURL, logger)

	if app.listOnly {
		fmt.Fprintln(app.stdout, render.Recipes(cat.Recipes()))
		fmt.Fprintln(app.stdout, render.Status(render.RecipesSpeech(cat.Len())))
		return nil
	}

	processURL, err := gw.URL("/process")
	if err != nil {
		return err
	}
	conn, err := netcheck.FromMode(cfg.Client.Connectivity, cfg.Client.ServerURL, cfg.Client.ProbeTimeout)
	if err != nil {
		return err
	}
	res := resolver.New(cat,
		remote.NewClient(processURL, remote.WithTimeout(cfg.Client.Timeout), remote.WithTransport(gw)),
		conn,
		resolver.WithLogger(logger),
	)

	if app.interactive {
		return converse(ctx, res, app.stdin, app.stdout, logger)
	}

	result := res.Resolve(ctx, app.query)
	logger.Info("ask: resolved", slog.String("query", result.Query), slog.String("kind", result.Kind.String()))
	fmt.Fprintln(app.stdout, render.Result(result))
	return nil
}

// converse feeds each stdin line to a voice session as a final transcript
// until the session stops or input ends.
func converse(ctx context.Context, r voice.Resolver, in io.Reader, out io.Writer, logger *slog.Logger) error {
	session := voice.NewSession(r, terminalSpeaker{w: out}, logger)
	fmt.Fprintln(out, render.Status(session.Start()))

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		reply := session.Hear(ctx, scanner.Text())
		if reply.Result != nil {
			fmt.Fprintln(out, render.Result(*reply.Result))
		}
		fmt.Fprintln(out, render.Status(reply.Status))
		if session.State() == voice.Idle {
			return nil
		}
	}
	return scanner.Err()
}
