package api

import "net/http"

// Healthz handles GET /healthz: a liveness probe that only confirms the
// process is responding, independent of driver connectivity.
func Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]string{"status": "ok"})
}

// ReadyChecker reports whether the service is ready to accept session
// operations, typically backed by the driver client's connection state.
type ReadyChecker func() error

// Readyz handles GET /readyz: a readiness probe gated on check.
func Readyz(check ReadyChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			WriteJSONOK(w, map[string]string{"status": "ready"})
			return
		}
		if err := check(); err != nil {
			ServiceUnavailable(w, err.Error())
			return
		}
		WriteJSONOK(w, map[string]string{"status": "ready"})
	}
}
