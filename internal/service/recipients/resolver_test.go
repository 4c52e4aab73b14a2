package recipients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/gha-notifier/internal/core"
	"github.com/target/gha-notifier/internal/domain/model"
	apperrors "github.com/target/gha-notifier/internal/errors"
)

// countingSource wraps a source and counts Load calls.
type countingSource struct {
	inner Source
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Load(ctx context.Context, repo string) ([]byte, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.inner.Load(ctx, repo)
}

type stubSource struct {
	data []byte
	err  error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Load(context.Context, string) ([]byte, error) { return s.data, s.err }

func writeDoc(t *testing.T, dir, repo, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, repo+".yaml"), []byte(content), 0o600))
}

func newLocalResolver(t *testing.T, dir string, overrides map[string]string) *Resolver {
	t.Helper()
	src, err := NewFileSource(dir)
	require.NoError(t, err)
	r, err := NewResolver(Options{Source: src, Overrides: overrides, Cache: core.NewMemoryRecipientCache(), CacheTTL: time.Minute})
	require.NoError(t, err)
	return r
}

func TestResolve_OverrideWins(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "incubator-foo", "jobs: dev@foo.apache.org\n")

	r := newLocalResolver(t, dir, map[string]string{"incubator-foo": "legacy@foo.apache.org"})

	rec, ok := r.Resolve(context.Background(), "incubator-foo")
	require.True(t, ok)
	assert.Equal(t, []string{"legacy@foo.apache.org"}, rec.Addresses)
	assert.Equal(t, model.RecipientSourceOverride, rec.Source)
}

func TestResolve_DocumentForms(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "single", "notifications:\n  commits: commits@x.org\njobs: builds@x.org\n")
	writeDoc(t, dir, "list", "jobs:\n  - a@x.org\n  - ' '\n  - b@x.org\n")
	writeDoc(t, dir, "nojobs", "notifications:\n  commits: commits@x.org\n")
	writeDoc(t, dir, "nulljobs", "jobs:\n")
	writeDoc(t, dir, "badjobs", "jobs:\n  to: a@x.org\n")
	writeDoc(t, dir, "broken", "jobs: [unterminated\n")

	r := newLocalResolver(t, dir, nil)
	ctx := context.Background()

	rec, ok := r.Resolve(ctx, "single")
	require.True(t, ok)
	assert.Equal(t, []string{"builds@x.org"}, rec.Addresses)
	assert.Equal(t, model.RecipientSourceDocument, rec.Source)

	rec, ok = r.Resolve(ctx, "list")
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.org", "b@x.org"}, rec.Addresses)

	for _, repo := range []string{"nojobs", "nulljobs", "badjobs", "broken", "missing", "../etc/passwd"} {
		_, ok := r.Resolve(ctx, repo)
		assert.False(t, ok, repo)
	}
}

func TestResolve_CachesNegativeResults(t *testing.T) {
	dir := t.TempDir()
	file, err := NewFileSource(dir)
	require.NoError(t, err)
	src := &countingSource{inner: file}

	r, err := NewResolver(Options{Source: src, Cache: core.NewMemoryRecipientCache(), CacheTTL: time.Minute})
	require.NoError(t, err)

	_, ok := r.Resolve(context.Background(), "foo")
	assert.False(t, ok)

	// The document appearing later is not seen until the entry expires.
	writeDoc(t, dir, "foo", "jobs: dev@foo.apache.org\n")
	_, ok = r.Resolve(context.Background(), "foo")
	assert.False(t, ok)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestResolve_DoesNotCacheUpstreamFailures(t *testing.T) {
	src := &countingSource{inner: stubSource{err: apperrors.Upstreamf("boom")}}
	r, err := NewResolver(Options{Source: src, Cache: core.NewMemoryRecipientCache(), CacheTTL: time.Minute})
	require.NoError(t, err)

	for range 2 {
		_, ok := r.Resolve(context.Background(), "foo")
		assert.False(t, ok)
	}
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestResolve_CollapsesConcurrentLookups(t *testing.T) {
	src := &countingSource{
		inner: stubSource{data: []byte("jobs: dev@foo.apache.org\n")},
		gate:  make(chan struct{}),
	}
	r, err := NewResolver(Options{Source: src})
	require.NoError(t, err)

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
		found   atomic.Int32
	)
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			if _, ok := r.Resolve(context.Background(), "foo"); ok {
				found.Add(1)
			}
		}()
	}
	started.Wait()
	// Give the goroutines a moment to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.EqualValues(t, callers, found.Load())
	assert.LessOrEqual(t, src.calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, src.calls.Load(), int32(1))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (model.Recipient, bool, error) {
	return model.Recipient{}, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, model.Recipient, time.Duration) error {
	return errors.New("cache down")
}

func TestResolve_CacheFailuresFallThrough(t *testing.T) {
	r, err := NewResolver(Options{
		Source: stubSource{data: []byte("jobs: dev@foo.apache.org\n")},
		Cache:  failingCache{},
	})
	require.NoError(t, err)

	rec, ok := r.Resolve(context.Background(), "foo")
	require.True(t, ok)
	assert.Equal(t, []string{"dev@foo.apache.org"}, rec.Addresses)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/foo.yaml":
			_, _ = w.Write([]byte("jobs: dev@foo.apache.org\n"))
		case "/flaky.yaml":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := NewHTTPSource(HTTPSourceConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	data, err := src.Load(ctx, "foo")
	require.NoError(t, err)
	assert.Contains(t, string(data), "dev@foo.apache.org")

	_, err = src.Load(ctx, "bar")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = src.Load(ctx, "flaky")
	assert.True(t, apperrors.IsUpstream(err))

	_, err = src.Load(ctx, "a/b")
	assert.True(t, apperrors.IsValidation(err))

	r, err := NewResolver(Options{Source: src})
	require.NoError(t, err)
	rec, ok := r.Resolve(ctx, "foo")
	require.True(t, ok)
	assert.Equal(t, []string{"dev@foo.apache.org"}, rec.Addresses)
}

func TestConstructorsValidate(t *testing.T) {
	_, err := NewResolver(Options{})
	require.Error(t, err)

	_, err = NewFileSource(" ")
	require.Error(t, err)

	_, err = NewHTTPSource(HTTPSourceConfig{})
	require.Error(t, err)

	_, err = NewHTTPSource(HTTPSourceConfig{BaseURL: "file:///etc"})
	require.Error(t, err)
}
