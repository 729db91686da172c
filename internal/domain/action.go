package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ActionID — типизированный идентификатор действия.
//
// Пара (модуль, действие) вместо строки "module/action":
// граф фаз проверяется типами и не может быть неправильно распарсен.
type ActionID struct {
	// Module — имя модуля, владеющего действием.
	Module string

	// Action — имя действия внутри модуля.
	Action string
}

// String возвращает каноническое представление "module/action".
// Используется только для логов и внешних интерфейсов (CLI, API).
func (id ActionID) String() string {
	return id.Module + "/" + id.Action
}

// IsZero возвращает true, если идентификатор пустой.
func (id ActionID) IsZero() bool {
	return id.Module == "" && id.Action == ""
}

// ParseActionID разбирает строку "module/action" в ActionID.
//
// Применяется только на границах системы (конфигурация, CLI) —
// внутри координатора идентификаторы всегда типизированы.
func ParseActionID(s string) (ActionID, error) {
	module, action, ok := strings.Cut(s, "/")
	if !ok || module == "" || action == "" {
		return ActionID{}, fmt.Errorf("invalid action id %q: want module/action", s)
	}
	return ActionID{Module: module, Action: action}, nil
}

// Execution — интерфейс контекста выполнения, видимый из handler'ов.
//
// Реализуется coordinator.Context. Модули зависят только от domain
// и не знают о внутренностях координатора.
type Execution interface {
	// ID возвращает уникальный идентификатор раунда.
	ID() uuid.UUID

	// Kind возвращает тип контекста (вид раунда).
	Kind() string

	// State возвращает текущее состояние контекста.
	State() ContextState

	// WaitFor блокирует вызывающего до завершения всех перечисленных
	// действий. Возвращает ошибку, если какое-либо действие упало.
	WaitFor(ctx context.Context, ids ...ActionID) error

	// Completed возвращает true, если действие уже в журнале завершений.
	Completed(id ActionID) bool
}

// Handler — функция действия, вызываемая исполнителем.
//
// Возврат nil означает успешное завершение (MarkDone),
// возврат ошибки — падение действия (MarkError).
type Handler func(ctx context.Context, ec Execution) error

// Descriptor — статическое описание действия.
//
// Регистрируется один раз при старте процесса, далее неизменяемо
// и читается всеми контекстами.
type Descriptor struct {
	// Module — имя модуля, владеющего действием.
	Module string

	// Action — имя действия.
	Action string

	// Phase — номер фазы (неотрицательное целое число).
	// Все действия фазы N завершаются до старта фазы N+1.
	Phase int

	// DependsOn — явные зависимости от других действий.
	// Разрешаются через Execution.WaitFor во время выполнения.
	DependsOn []ActionID

	// Contexts — типы контекстов, в которых действие участвует.
	// Действие отвечает на discovery только для перечисленных типов.
	Contexts []string

	// Handler — вызываемая функция действия.
	Handler Handler
}

// ID возвращает идентификатор действия.
func (d *Descriptor) ID() ActionID {
	return ActionID{Module: d.Module, Action: d.Action}
}

// ParticipatesIn возвращает true, если действие участвует
// в контекстах указанного типа.
func (d *Descriptor) ParticipatesIn(kind string) bool {
	for _, k := range d.Contexts {
		if k == kind {
			return true
		}
	}
	return false
}
