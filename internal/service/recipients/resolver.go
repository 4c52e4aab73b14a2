// Package recipients maps a repository to the addresses that receive its
// workflow notifications.
package recipients

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/target/gha-notifier/internal/core"
	"github.com/target/gha-notifier/internal/domain/model"
	apperrors "github.com/target/gha-notifier/internal/errors"
)

// Options configures a Resolver.
type Options struct {
	Logger *slog.Logger
	// Overrides maps a repository straight to an address and wins over any document.
	Overrides map[string]string
	// Source is the single document source consulted after overrides.
	Source Source
	// Cache holds positive and negative lookups. Nil disables caching.
	Cache    core.RecipientCache
	CacheTTL time.Duration
}

// Resolver resolves repositories to recipients. It is safe for concurrent use.
type Resolver struct {
	logger    *slog.Logger
	overrides map[string]string
	source    Source
	cache     core.RecipientCache
	ttl       time.Duration
	group     singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Source == nil {
		return nil, errors.New("recipients: source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	overrides := make(map[string]string, len(opts.Overrides))
	for repo, addr := range opts.Overrides {
		repo, addr = strings.TrimSpace(repo), strings.TrimSpace(addr)
		if repo != "" && addr != "" {
			overrides[repo] = addr
		}
	}

	return &Resolver{
		logger:    logger.With("component", "recipients", "source", opts.Source.Name()),
		overrides: overrides,
		source:    opts.Source,
		cache:     opts.Cache,
		ttl:       opts.CacheTTL,
	}, nil
}

// Resolve returns the recipient for repo and whether one exists.
// Lookup failures are logged and reported as absent.
func (r *Resolver) Resolve(ctx context.Context, repo string) (model.Recipient, bool) {
	repo = strings.TrimSpace(repo)

	if addr, ok := r.overrides[repo]; ok {
		return model.Recipient{Addresses: []string{addr}, Source: model.RecipientSourceOverride}, true
	}

	if rec, ok := r.cached(ctx, repo); ok {
		return rec, !rec.Empty()
	}

	v, _, _ := r.group.Do(repo, func() (any, error) {
		return r.load(ctx, repo), nil
	})
	rec, _ := v.(model.Recipient)
	rec.Addresses = append([]string(nil), rec.Addresses...)
	return rec, !rec.Empty()
}

func (r *Resolver) cached(ctx context.Context, repo string) (model.Recipient, bool) {
	if r.cache == nil {
		return model.Recipient{}, false
	}
	rec, ok, err := r.cache.Get(ctx, repo)
	if err != nil {
		r.logger.WarnContext(ctx, "recipient cache read failed", "repository", repo, "error", err)
		return model.Recipient{}, false
	}
	return rec, ok
}

// load consults the source and caches the result. Upstream and internal
// failures are not cached so the next delivery tries again.
func (r *Resolver) load(ctx context.Context, repo string) model.Recipient {
	rec, cacheable := r.lookup(ctx, repo)
	if !cacheable || r.cache == nil {
		return rec
	}
	if err := r.cache.Set(ctx, repo, rec, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "recipient cache write failed", "repository", repo, "error", err)
	}
	return rec
}

func (r *Resolver) lookup(ctx context.Context, repo string) (model.Recipient, bool) {
	data, err := r.source.Load(ctx, repo)
	switch {
	case apperrors.IsNotFound(err):
		r.logger.DebugContext(ctx, "no recipient document", "repository", repo)
		return model.Recipient{}, true
	case apperrors.Permanent(err):
		r.logger.WarnContext(ctx, "rejected recipient lookup", "repository", repo, "error", err)
		return model.Recipient{}, true
	case err != nil:
		r.logger.WarnContext(ctx, "recipient lookup failed", "repository", repo, "error", err)
		return model.Recipient{}, false
	}

	addrs, err := parseDocument(data)
	if err != nil {
		r.logger.WarnContext(ctx, "malformed recipient document", "repository", repo, "error", err)
		return model.Recipient{}, true
	}
	if len(addrs) == 0 {
		r.logger.DebugContext(ctx, "recipient document has no jobs key", "repository", repo)
		return model.Recipient{}, true
	}
	return model.Recipient{Addresses: addrs, Source: model.RecipientSourceDocument}, true
}
