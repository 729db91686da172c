package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Rounds
	mux.Handle("POST /api/v1/rounds/{kind}", chain(http.HandlerFunc(h.TriggerRound)))
	mux.Handle("GET /api/v1/rounds", chain(http.HandlerFunc(h.ListRounds)))
	mux.Handle("GET /api/v1/rounds/{id}", chain(http.HandlerFunc(h.GetRound)))

	// Интроспекция реестра
	mux.Handle("GET /api/v1/actions", chain(http.HandlerFunc(h.ListActions)))
}
