package httpx

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /healthz liveness checks.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
