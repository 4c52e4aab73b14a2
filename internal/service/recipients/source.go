package recipients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/target/gha-notifier/internal/errors"
)

// maxDocumentSize bounds a single recipient document. Real documents are a few hundred bytes.
const maxDocumentSize = 1 << 20

// Source loads the raw configuration document for a repository.
// A missing document is reported as a not_found AppError.
type Source interface {
	Load(ctx context.Context, repo string) ([]byte, error)
	Name() string
}

// validRepoName rejects names that could escape the document directory or URL path.
func validRepoName(repo string) error {
	if repo == "" || repo == "." || repo == ".." {
		return apperrors.Validationf("invalid repository name %q", repo)
	}
	if strings.ContainsAny(repo, `/\`) || strings.ContainsRune(repo, 0) {
		return apperrors.Validationf("invalid repository name %q", repo)
	}
	return nil
}

// FileSource reads <dir>/<repo>.yaml from the local filesystem.
type FileSource struct {
	dir string
}

var _ Source = (*FileSource)(nil)

// NewFileSource returns a source rooted at dir.
func NewFileSource(dir string) (*FileSource, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("recipients: document directory is required")
	}
	return &FileSource{dir: dir}, nil
}

// Name implements Source.
func (s *FileSource) Name() string { return "local" }

// Load implements Source.
func (s *FileSource) Load(_ context.Context, repo string) ([]byte, error) {
	if err := validRepoName(repo); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, repo+".yaml")

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFoundf("no recipient document for %s", repo)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "read %s", path)
	}
	return data, nil
}

// HTTPSourceConfig configures HTTPSource.
type HTTPSourceConfig struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPSource fetches <base>/<repo>.yaml over HTTP.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource returns a remote source. The client always carries a finite timeout.
func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("recipients: base url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("recipients: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("recipients: base url must use http or https scheme, got %q", u.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPSource{baseURL: base, client: hc}, nil
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "remote" }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context, repo string) ([]byte, error) {
	if err := validRepoName(repo); err != nil {
		return nil, err
	}
	target := s.baseURL + "/" + url.PathEscape(repo) + ".yaml"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("recipients: create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "fetch %s", target)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "read %s", target)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundf("no recipient document for %s", repo)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, apperrors.Upstreamf("fetch %s: status %d", target, resp.StatusCode)
	}
	return data, nil
}
