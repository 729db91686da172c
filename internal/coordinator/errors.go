package coordinator

import (
	"errors"
	"fmt"

	"github.com/shaiso/Ensemble/internal/domain"
)

// Ошибки координатора.
var (
	// ErrDiscoveryEmpty — ни одного discovery ответа в течение окна.
	// Фатально для раунда: молча не делать ничего — хуже, чем упасть.
	ErrDiscoveryEmpty = errors.New("no discovery replies within window")

	// ErrRoundFailed — раунд завершился в состоянии ERROR.
	ErrRoundFailed = errors.New("round failed")

	// ErrDependencyFailed — ожидаемая зависимость упала.
	// WaitFor отклоняется при любом событии падения в раунде.
	ErrDependencyFailed = errors.New("dependency failed")

	// ErrContextTerminal — операция над уже завершённым контекстом.
	ErrContextTerminal = errors.New("context already terminal")
)

// DependencyError — заявленная зависимость не была обнаружена в раунде.
//
// Возникает на этапе валидации: зависимость, которой нет в карте фаз,
// никогда не завершится, поэтому раунд прерывается до выполнения.
type DependencyError struct {
	// Action — действие, заявившее зависимость.
	Action domain.ActionID

	// Dependency — необнаруженная зависимость.
	Dependency domain.ActionID
}

// Error реализует интерфейс error.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("action %s depends on %s, which was not discovered",
		e.Action, e.Dependency)
}

// PhaseParadoxError — зависимость запланирована в более поздней фазе,
// чем зависящее от неё действие.
//
// Фазы выполняются по возрастанию: ссылка вперёд означала бы deadlock,
// так как фаза N+1 не начнётся, пока не завершится фаза N.
type PhaseParadoxError struct {
	// Action — зависящее действие и его фаза.
	Action domain.ActionID
	Phase  int

	// Dependency — зависимость и её (более поздняя) фаза.
	Dependency      domain.ActionID
	DependencyPhase int
}

// Error реализует интерфейс error.
func (e *PhaseParadoxError) Error() string {
	return fmt.Sprintf("action %s (phase %d) depends on %s (phase %d): dependencies must not be scheduled later",
		e.Action, e.Phase, e.Dependency, e.DependencyPhase)
}
