package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
)

// Executor выполняет действия модулей по командам Runner'а.
//
// Executor — постоянный компонент процесса (в отличие от Context,
// живущего один раунд). Bind устанавливает постоянные подписки:
//   - RFA слушатели: по одной на пару (действие, тип контекста) —
//     действие заявляет участие в раунде ответом ITH
//   - execute слушатели: по одному на действие — запуск handler'а
//
// Контракт выполнения:
//   - Нет дескриптора — лог и выход (нефатальный no-op)
//   - Context уже финален — лог и выход, handler не вызывается
//   - Явные зависимости — блокировка на Context.WaitFor с повторной
//     проверкой финальности после ожидания
//   - Ошибка handler'а превращается в MarkError и никогда не
//     пробрасывается Runner'у: состояние Context — единственный
//     канал ошибок из этого вызова
type Executor struct {
	bus      *bus.Bus
	registry *registry.Registry
	logger   *slog.Logger

	subs []*bus.Subscription
}

// NewExecutor создаёт Executor.
func NewExecutor(b *bus.Bus, reg *registry.Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		bus:      b,
		registry: reg,
		logger:   logger,
	}
}

// Bind устанавливает постоянные подписки для всех зарегистрированных
// действий. Вызывается один раз при старте процесса, после того как
// все модули зарегистрировались.
func (e *Executor) Bind() {
	for _, desc := range e.registry.All() {
		id := desc.ID()
		phase := desc.Phase

		// Discovery: действие отвечает ITH на RFA своего типа контекста.
		for _, kind := range desc.Contexts {
			sub := e.bus.Subscribe(bus.TopicRFAPattern(kind), func(_ string, payload any) {
				req, ok := payload.(domain.DiscoveryRequest)
				if !ok {
					e.logger.Warn("unexpected rfa payload", "payload", payload)
					return
				}
				e.bus.Publish(bus.TopicITH(req.ContextID), domain.DiscoveryReply{
					Action: id,
					Phase:  phase,
				})
			})
			e.subs = append(e.subs, sub)
		}

		// Выполнение: команда Runner'а запускает handler.
		sub := e.bus.Subscribe(bus.TopicExecute(id), func(_ string, payload any) {
			cmd, ok := payload.(*ExecuteCommand)
			if !ok {
				e.logger.Warn("unexpected execute payload", "action", id, "payload", payload)
				return
			}
			e.ExecuteAction(cmd)
		})
		e.subs = append(e.subs, sub)
	}

	e.logger.Info("executor bound",
		"actions", e.registry.Count(),
		"subscriptions", len(e.subs),
	)
}

// Close снимает все постоянные подписки.
func (e *Executor) Close() {
	for _, sub := range e.subs {
		e.bus.Unsubscribe(sub)
	}
	e.subs = nil
}

// ExecuteAction выполняет одно действие в рамках раунда.
//
// Запускается в горутине доставки шины; блокируется на WaitFor,
// если у действия есть явные зависимости.
func (e *Executor) ExecuteAction(cmd *ExecuteCommand) {
	ec := cmd.Context
	logger := e.logger.With("context_id", ec.ID(), "action", cmd.Action)

	desc, err := e.registry.Lookup(cmd.Action)
	if err != nil {
		// Нет дескриптора — нефатально: лог и выход.
		logger.Warn("action not found, skipping")
		return
	}

	if ec.State().IsTerminal() {
		// Ошибка, замеченная в середине фазы, коротит ещё не
		// начатые вызовы.
		logger.Debug("context terminal, skipping action")
		return
	}

	runCtx := cmd.Ctx
	if runCtx == nil {
		runCtx = context.Background()
	}

	if len(desc.DependsOn) > 0 {
		logger.Debug("waiting for dependencies", "count", len(desc.DependsOn))

		if err := ec.WaitFor(runCtx, desc.DependsOn...); err != nil {
			// Падение ожидаемой зависимости — ошибка самого действия.
			logger.Warn("dependency wait failed", "error", err)
			ec.MarkError(cmd.Action, err)
			return
		}

		// Раунд мог закончиться, пока мы ждали: сосед по фазе упал.
		if ec.State().IsTerminal() {
			logger.Debug("context terminal after wait, skipping action")
			return
		}
	}

	e.invoke(runCtx, desc, ec, logger)
}

// invoke вызывает handler и сообщает результат контексту.
// Паника handler'а приравнивается к ошибке действия.
func (e *Executor) invoke(ctx context.Context, desc *domain.Descriptor, ec *Context, logger *slog.Logger) {
	id := desc.ID()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("action panicked", "panic", r)
			ec.MarkError(id, fmt.Errorf("action panicked: %v", r))
		}
	}()

	if err := desc.Handler(ctx, ec); err != nil {
		logger.Warn("action returned error", "error", err)
		ec.MarkError(id, err)
		return
	}

	ec.MarkDone(id)
}
