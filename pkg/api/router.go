package api

import "net/http"

// NewRouter creates a new HTTP router
func NewRouter(processor BatchRunner, digests DigestRunner) *http.ServeMux {
	mux := http.NewServeMux()

	h := &Handler{
		Processor: processor,
		Digests:   digests,
	}

	mux.HandleFunc("POST /trigger", h.HandleTrigger)
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	return mux
}
