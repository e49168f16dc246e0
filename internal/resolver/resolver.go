// Package resolver turns a free-text recipe request into exactly one
// renderable outcome: a local catalog hit, a remote answer, or a typed miss.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
)

// WakePhrase is the trigger string removed from queries before matching.
const WakePhrase = "hey chefgenie"

var (
	errNoRemote      = errors.New("resolver: no remote client configured")
	errEmptyResponse = errors.New("resolver: empty remote response")
)

// RemoteClient performs the single remote resolution call (POST /process).
type RemoteClient interface {
	Process(ctx context.Context, text string) (*models.ProcessResponse, error)
}

// Connectivity reports whether the network is currently usable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Kind enumerates resolution outcomes.
type Kind int

const (
	KindLocalHit Kind = iota + 1
	KindOfflineMiss
	KindRemoteHit
	KindRemoteMiss
	KindStopped
	KindConnectionError
)

// String returns a snake_case outcome name.
func (k Kind) String() string {
	switch k {
	case KindLocalHit:
		return "local_hit"
	case KindOfflineMiss:
		return "offline_miss"
	case KindRemoteHit:
		return "remote_hit"
	case KindRemoteMiss:
		return "remote_miss"
	case KindStopped:
		return "stopped"
	case KindConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Resolve call. Local is set only for
// KindLocalHit and Remote only for KindRemoteHit.
type Result struct {
	Kind    Kind
	Query   string
	Key     string               // catalog key of a local hit
	Local   *models.Recipe       // KindLocalHit
	Remote  *models.RemoteRecipe // KindRemoteHit
	Message string               // KindRemoteMiss (may be empty) and KindStopped
	Err     error                // KindConnectionError
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// Resolver matches queries against an immutable catalog and falls back to a
// remote call when online. It holds no mutable state and is safe for
// concurrent use; concurrent results carry no ordering guarantee.
type Resolver struct {
	catalog *catalog.Catalog
	remote  RemoteClient
	conn    Connectivity
	logger  *slog.Logger
}

// New creates a Resolver. A nil catalog behaves as an empty one.
func New(c *catalog.Catalog, remote RemoteClient, conn Connectivity, opts ...Option) *Resolver {
	if c == nil {
		c = catalog.Empty()
	}
	r := &Resolver{
		catalog: c,
		remote:  remote,
		conn:    conn,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize lower-cases text, strips the wake phrase and trims whitespace.
func Normalize(text string) string {
	q := strings.ToLower(text)
	q = strings.Replace(q, WakePhrase, "", 1)
	return strings.TrimSpace(q)
}

// Resolve produces exactly one outcome for rawText. It never returns an
// error: every failure maps to a Result kind.
//
// The normalized query (wake phrase stripped) is what gets sent remotely,
// for both voice and typed input.
func (r *Resolver) Resolve(ctx context.Context, rawText string) Result {
	query := Normalize(rawText)

	if key, recipe, ok := r.catalog.Match(query); ok {
		r.logger.Debug("resolver: local hit", slog.String("query", query), slog.String("key", key))
		return Result{Kind: KindLocalHit, Query: query, Key: key, Local: &recipe}
	}

	if r.conn == nil || !r.conn.Online(ctx) {
		r.logger.Debug("resolver: offline miss", slog.String("query", query))
		return Result{Kind: KindOfflineMiss, Query: query}
	}

	if r.remote == nil {
		return Result{Kind: KindConnectionError, Query: query, Err: errNoRemote}
	}
	resp, err := r.remote.Process(ctx, query)
	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	if err != nil {
		r.logger.Warn("resolver: remote call failed", slog.String("query", query), slog.String("error", err.Error()))
		return Result{Kind: KindConnectionError, Query: query, Err: err}
	}

	switch {
	case resp.Stopped:
		return Result{Kind: KindStopped, Query: query, Message: resp.Message}
	case resp.Recipe != nil:
		r.logger.Debug("resolver: remote hit", slog.String("query", query), slog.String("title", resp.Recipe.Title))
		return Result{Kind: KindRemoteHit, Query: query, Remote: resp.Recipe}
	default:
		return Result{Kind: KindRemoteMiss, Query: query, Message: resp.Error}
	}
}
