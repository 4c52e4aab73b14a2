package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/gha-notifier/internal/testutil"
)

func TestNewRouter(t *testing.T) {
	notifier := &recordingNotifier{}
	router := NewRouter(RouterServices{
		Notifier: notifier,
		Gate:     mustRanges(t, "192.0.2.0/24"),
	})

	tests := []struct {
		name   string
		method string
		path   string
		remote string
		status int
		body   string
	}{
		{name: "post hook", method: http.MethodPost, path: "/hook", remote: "192.0.2.1:1234", status: http.StatusOK, body: "Delivered\n"},
		{name: "put hook", method: http.MethodPut, path: "/hook", remote: "192.0.2.1:1234", status: http.StatusOK, body: "Delivered\n"},
		{name: "unlisted source", method: http.MethodPost, path: "/hook", remote: "198.51.100.1:1234", status: http.StatusOK, body: "No content\n"},
		{name: "get hook not routed", method: http.MethodGet, path: "/hook", remote: "192.0.2.1:1234", status: http.StatusMethodNotAllowed},
		{name: "health", method: http.MethodGet, path: "/healthz", remote: "198.51.100.1:1234", status: http.StatusOK, body: `{"status":"ok","allowlist_ranges":1}`},
		{name: "unknown path", method: http.MethodPost, path: "/other", remote: "192.0.2.1:1234", status: http.StatusNotFound},
	}

	payload := testutil.NewWorkflowRun().Payload()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader(payload))
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}

	assert.Equal(t, 2, notifier.count())
}
