package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/domain"
)

// Round DTOs

// RoundResponse — ответ с записью раунда.
type RoundResponse struct {
	ID         uuid.UUID           `json:"id"`
	Kind       string              `json:"kind"`
	State      domain.ContextState `json:"state"`
	Discovered int                 `json:"discovered"`
	Completed  []string            `json:"completed"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	DurationMS int64               `json:"duration_ms"`
}

// RoundFromDomain конвертирует domain.ContextRecord в RoundResponse.
func RoundFromDomain(rec domain.ContextRecord) RoundResponse {
	completed := make([]string, len(rec.Completed))
	for i, id := range rec.Completed {
		completed[i] = id.String()
	}

	return RoundResponse{
		ID:         rec.ID,
		Kind:       rec.Kind,
		State:      rec.State,
		Discovered: rec.Discovered,
		Completed:  completed,
		Error:      rec.Error,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		DurationMS: rec.Duration().Milliseconds(),
	}
}

// Action DTOs

// ActionResponse — ответ с зарегистрированным действием.
type ActionResponse struct {
	Module    string   `json:"module"`
	Action    string   `json:"action"`
	Phase     int      `json:"phase"`
	DependsOn []string `json:"depends_on,omitempty"`
	Contexts  []string `json:"contexts,omitempty"`
}

// ActionFromDomain конвертирует domain.Descriptor в ActionResponse.
func ActionFromDomain(d *domain.Descriptor) ActionResponse {
	deps := make([]string, len(d.DependsOn))
	for i, dep := range d.DependsOn {
		deps[i] = dep.String()
	}

	return ActionResponse{
		Module:    d.Module,
		Action:    d.Action,
		Phase:     d.Phase,
		DependsOn: deps,
		Contexts:  d.Contexts,
	}
}
