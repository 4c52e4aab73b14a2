package allowlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	apperrors "github.com/target/gha-notifier/internal/errors"
)

// maxMetaResponseSize bounds the metadata document read. The real document is
// a few hundred kilobytes.
const maxMetaResponseSize = 8 << 20

const userAgent = "gha-notifier"

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// URL of the metadata document, e.g. https://api.github.com/meta.
	URL string
	// Query is a JMESPath expression selecting the list of CIDR strings.
	Query string
	// Timeout bounds the whole request.
	Timeout time.Duration
	// Token is an optional GitHub token sent as a bearer credential.
	Token string
	// Extra ranges appended to the fetched ones.
	Extra []string
	// Client overrides the base HTTP client (tests).
	Client *http.Client
	Logger *slog.Logger
}

// Fetcher loads the allowed webhook source ranges.
type Fetcher struct {
	url     string
	query   string
	timeout time.Duration
	token   string
	extra   []string
	base    *http.Client
	logger  *slog.Logger
}

// NewFetcher builds a Fetcher. The query is compiled eagerly so a bad
// expression fails at startup rather than at fetch time.
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, apperrors.Validationf("allowlist: metadata url is required")
	}
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = "hooks"
	}
	if _, err := jmespath.Compile(query); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "allowlist: compile query %q", query)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := opts.Client
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		url:     opts.URL,
		query:   query,
		timeout: timeout,
		token:   strings.TrimSpace(opts.Token),
		extra:   opts.Extra,
		base:    base,
		logger:  logger.With("component", "allowlist"),
	}, nil
}

// Fetch retrieves the metadata document and returns the resulting range set.
// An empty result is an error: serving with no ranges would reject every
// delivery and hide the misconfiguration.
func (f *Fetcher) Fetch(ctx context.Context) (*RangeSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	doc, err := f.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	cidrs, err := f.extract(doc)
	if err != nil {
		return nil, err
	}

	fetched, err := NewRangeSet(cidrs)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "allowlist: invalid range in metadata")
	}
	extra, err := NewRangeSet(f.extra)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "allowlist: invalid extra range")
	}

	set := fetched.Merge(extra)
	if set.Len() == 0 {
		return nil, apperrors.Validationf("allowlist: metadata query %q returned no ranges", f.query)
	}

	f.logger.InfoContext(ctx, "webhook source ranges loaded",
		"url", f.url,
		"fetched", fetched.Len(),
		"extra", extra.Len(),
	)
	return set, nil
}

func (f *Fetcher) client(ctx context.Context) *http.Client {
	if f.token == "" {
		return f.base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: f.token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = f.timeout
	return hc
}

func (f *Fetcher) fetchDocument(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("allowlist: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client(ctx).Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "allowlist: fetch %s", f.url)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("close metadata response", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetaResponseSize))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "allowlist: read %s", f.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Upstreamf("allowlist: %s returned status %d: %s",
			f.url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "allowlist: decode metadata")
	}
	return doc, nil
}

func (f *Fetcher) extract(doc any) ([]string, error) {
	result, err := jmespath.Search(f.query, doc)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "allowlist: evaluate query %q", f.query)
	}

	items, ok := result.([]any)
	if !ok {
		return nil, apperrors.Validationf("allowlist: query %q did not yield a list (got %T)", f.query, result)
	}

	cidrs := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, apperrors.Validationf("allowlist: non-string range %v", item)
		}
		cidrs = append(cidrs, s)
	}
	return cidrs, nil
}
