package allowlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/gha-notifier/internal/errors"
)

const metaDocument = `{
  "verifiable_password_authentication": false,
  "hooks": ["192.30.252.0/22", "185.199.108.0/22", "2a0a:a440::/29"],
  "web": ["140.82.112.0/20"]
}`

func newMetaServer(t *testing.T, status int, body string, seenAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seenAuth != nil {
			*seenAuth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	srv := newMetaServer(t, http.StatusOK, metaDocument, nil)

	f, err := NewFetcher(FetcherOptions{URL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	set, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(netip.MustParseAddr("192.30.252.1")))
	assert.False(t, set.Contains(netip.MustParseAddr("140.82.112.1")), "web ranges are not hook ranges")
}

func TestFetcher_CustomQueryAndExtra(t *testing.T) {
	srv := newMetaServer(t, http.StatusOK, metaDocument, nil)

	f, err := NewFetcher(FetcherOptions{
		URL:   srv.URL,
		Query: "web",
		Extra: []string{"127.0.0.1"},
	})
	require.NoError(t, err)

	set, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Contains(netip.MustParseAddr("140.82.112.1")))
	assert.True(t, set.Contains(netip.MustParseAddr("127.0.0.1")))
}

func TestFetcher_SendsToken(t *testing.T) {
	var auth string
	srv := newMetaServer(t, http.StatusOK, metaDocument, &auth)

	f, err := NewFetcher(FetcherOptions{URL: srv.URL, Token: "ghp_example"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_example", auth)
}

func TestFetcher_FailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		query    string
		wantCode apperrors.ErrorCode
	}{
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantCode: apperrors.ErrCodeUpstream},
		{name: "bad json", status: http.StatusOK, body: `{`, wantCode: apperrors.ErrCodeValidation},
		{name: "missing key", status: http.StatusOK, body: `{"web":[]}`, wantCode: apperrors.ErrCodeValidation},
		{name: "empty list", status: http.StatusOK, body: `{"hooks":[]}`, wantCode: apperrors.ErrCodeValidation},
		{name: "not a list", status: http.StatusOK, body: `{"hooks":"192.30.252.0/22"}`, wantCode: apperrors.ErrCodeValidation},
		{name: "bad cidr", status: http.StatusOK, body: `{"hooks":["nope"]}`, wantCode: apperrors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newMetaServer(t, tt.status, tt.body, nil)
			f, err := NewFetcher(FetcherOptions{URL: srv.URL, Query: tt.query})
			require.NoError(t, err)

			set, err := f.Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, set)
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
		})
	}
}

func TestFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, err := NewFetcher(FetcherOptions{URL: url, Timeout: 500 * time.Millisecond})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestNewFetcher_Validation(t *testing.T) {
	_, err := NewFetcher(FetcherOptions{})
	require.Error(t, err)

	_, err = NewFetcher(FetcherOptions{URL: "https://api.github.com/meta", Query: "hooks[?"})
	require.Error(t, err)
}
