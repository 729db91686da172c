package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContextRecord — запись о завершённом раунде.
//
// Сохраняется в историю после того, как контекст стал финальным.
// Это аудит-журнал, а не состояние координатора: незавершённые
// раунды не персистятся.
type ContextRecord struct {
	// ID — идентификатор раунда.
	ID uuid.UUID `json:"id"`

	// Kind — тип контекста.
	Kind string `json:"kind"`

	// State — финальное состояние (DONE или ERROR).
	State ContextState `json:"state"`

	// Discovered — количество действий, обнаруженных discovery.
	Discovered int `json:"discovered"`

	// Completed — действия, успешно завершившиеся в раунде.
	Completed []ActionID `json:"completed"`

	// Error — текст ошибки, если раунд завершился с ERROR.
	Error string `json:"error,omitempty"`

	// StartedAt — время создания контекста.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время перехода в финальное состояние.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность раунда.
func (r *ContextRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
