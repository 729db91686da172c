package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/coordinator"
)

// TriggerRound проводит раунд указанного типа и возвращает его запись.
// POST /api/v1/rounds/{kind}
func (h *Handler) TriggerRound(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if kind == "" {
		BadRequest(w, "context kind is required")
		return
	}

	rec, err := h.rounds.Trigger(r.Context(), kind)
	if err != nil {
		// Раунд без единого отклика — это ошибка клиента: такого
		// типа контекста никто не обслуживает.
		if errors.Is(err, coordinator.ErrDiscoveryEmpty) {
			NotFound(w, "no actions registered for context kind "+kind)
			return
		}

		// Раунд прошёл, но завершился ошибкой. Запись всё равно
		// отдаём: в ней имя упавшего действия и журнал завершений.
		JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    ErrCodeRoundFailed,
				Message: rec.Error,
			},
			Data: RoundFromDomain(rec),
		})
		return
	}

	Success(w, RoundFromDomain(rec))
}

// GetRound возвращает запись раунда по ID.
// GET /api/v1/rounds/{id}
func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid round id")
		return
	}

	rec, err := h.rounds.GetRound(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "round not found") {
		return
	}

	Success(w, RoundFromDomain(*rec))
}

// ListRounds возвращает последние раунды.
// GET /api/v1/rounds?kind=...&limit=...
func (h *Handler) ListRounds(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	rounds, err := h.rounds.ListRounds(r.Context(), kind, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RoundResponse, len(rounds))
	for i, rec := range rounds {
		result[i] = RoundFromDomain(rec)
	}

	List(w, result, len(result))
}

// ListActions возвращает зарегистрированные действия.
// GET /api/v1/actions?kind=...
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	all := h.registry.All()
	result := make([]ActionResponse, 0, len(all))
	for _, d := range all {
		if kind != "" && !d.ParticipatesIn(kind) {
			continue
		}
		result = append(result, ActionFromDomain(d))
	}

	List(w, result, len(result))
}
