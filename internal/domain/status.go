package domain

// ContextState — состояние контекста выполнения.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → DONE
//	                  ↘ ERROR
//
// Переходы в DONE и ERROR финальны: выигрывает первый вызов,
// повторные переходы игнорируются.
type ContextState string

const (
	// ContextStatePending — контекст создан, ни одно действие ещё не завершилось.
	ContextStatePending ContextState = "PENDING"

	// ContextStateRunning — наблюдается хотя бы одно завершение действия.
	ContextStateRunning ContextState = "RUNNING"

	// ContextStateDone — все фазы успешно завершены.
	ContextStateDone ContextState = "DONE"

	// ContextStateError — раунд завершился с ошибкой.
	ContextStateError ContextState = "ERROR"
)

// IsTerminal возвращает true, если состояние финальное.
func (s ContextState) IsTerminal() bool {
	switch s {
	case ContextStateDone, ContextStateError:
		return true
	default:
		return false
	}
}

// ActionStatus — статус завершения одного действия.
type ActionStatus string

const (
	// ActionStatusDone — handler вернулся без ошибки.
	ActionStatusDone ActionStatus = "DONE"

	// ActionStatusError — handler вернул ошибку.
	ActionStatusError ActionStatus = "ERROR"
)
