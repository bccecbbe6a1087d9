package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spboyer/splitlab/internal/engine"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/reporting"
)

// registerRoutes sets up the API and report routes on the given mux.
// Go 1.21's ServeMux has no method/wildcard patterns, so the go1.22-style
// routes ("GET /api/health", "GET /{$}") are expressed with wrappers that
// reproduce the same matching: GET/HEAD only, exact "/" for the index, and
// the "/api/" placeholder catching non-GET API requests.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	ctrl := cfg.Controller

	mux.HandleFunc("/api/health", apiGet(handleHealth(ctrl)))
	mux.HandleFunc("/api/metrics", apiGet(handleMetrics(ctrl)))
	mux.HandleFunc("/api/significance", apiGet(handleSignificance(ctrl)))
	mux.HandleFunc("/api/result", apiGet(handleResult(ctrl)))
	mux.HandleFunc("/report", getOnly(handleReport(ctrl)))
	mux.HandleFunc("/", exactRoot(getOnly(handleIndex(ctrl))))
	mux.HandleFunc("/api/", handleAPIPlaceholder)
}

// getOnly rejects methods other than GET and HEAD with 405, as the
// go1.22 mux does for a "GET "-prefixed pattern.
func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// apiGet routes non-GET requests to the API placeholder, matching the
// go1.22 mux where such requests fall through to the "/api/" pattern.
func apiGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			handleAPIPlaceholder(w, r)
			return
		}
		h(w, r)
	}
}

// exactRoot limits the "/" pattern to the root path itself, matching the
// go1.22 "/{$}" pattern.
func exactRoot(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// handleHealth returns the experiment name and lifecycle state.
func handleHealth(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"experiment": ctrl.Spec().Name,
			"state":      string(ctrl.State()),
		})
	}
}

// handleMetrics returns a consistent snapshot of all variant metrics.
func handleMetrics(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	}
}

// handleSignificance evaluates significance on demand.
func handleSignificance(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Significance())
	}
}

// handleResult returns the final result, or 404 while the experiment is
// still running.
func handleResult(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		result, ok := ctrl.Result()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "experiment has not completed",
				"state": string(ctrl.State()),
			})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// handleReport renders the HTML report. While the experiment is running it
// renders an interim view over the current counters.
func handleReport(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		result, ok := ctrl.Result()
		if !ok {
			result = interimResult(ctrl)
		}

		html, err := reporting.RenderHTMLReport(&result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html) //nolint:errcheck
	}
}

// handleIndex serves a minimal landing page linking the endpoints.
func handleIndex(ctrl *engine.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>splitlab: %s</title></head><body>
<h1>splitlab: %s</h1>
<p>State: %s</p>
<ul>
<li><a href="/report">Report</a></li>
<li><a href="/api/metrics">Metrics (JSON)</a></li>
<li><a href="/api/significance">Significance (JSON)</a></li>
<li><a href="/api/result">Result (JSON)</a></li>
</ul>
</body></html>
`, ctrl.Spec().Name, ctrl.Spec().Name, ctrl.State())
	}
}

// handleAPIPlaceholder returns 501 for unimplemented API endpoints.
func handleAPIPlaceholder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "not implemented"})
}

// interimResult assembles a report view for an experiment that is still
// running. It is a presentation convenience, not an emitted result.
func interimResult(ctrl *engine.Controller) models.ExperimentResult {
	sig := ctrl.Significance()
	snapshot := ctrl.Snapshot()

	var total int64
	for _, m := range snapshot {
		total += m.Impressions
	}

	return models.ExperimentResult{
		Name:              ctrl.Spec().Name,
		TotalSampleSize:   total,
		Variants:          snapshot,
		Winner:            sig.Winner,
		Confidence:        sig.Confidence,
		RecommendedAction: "experiment still running",
		Reason:            "in_progress",
	}
}
