package httpx

import (
	"encoding/json"
	"net/http"
)

type healthReport struct {
	Status string `json:"status"`
	// Ranges is the number of loaded webhook source ranges.
	Ranges int `json:"allowlist_ranges,omitempty"`
}

type rangeCounter interface {
	Len() int
}

// healthHandler answers liveness probes. The allowlist is loaded before the
// listener opens, so a running process is always ready.
func healthHandler(gate SourceGate) http.HandlerFunc {
	report := healthReport{Status: "ok"}
	if counter, ok := gate.(rangeCounter); ok && counter != nil {
		report.Ranges = counter.Len()
	}
	body, err := json.Marshal(report)
	if err != nil {
		body = []byte(`{"status":"ok"}`)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	}
}
