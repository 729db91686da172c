package coordinator

import (
	"context"
	"fmt"
	"sort"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
)

// ExecuteCommand — команда выполнения одного действия.
//
// Публикуется Runner'ом на топик действия и потребляется постоянной
// подпиской исполнителя. Несёт сам Context: шина внутрипроцессная,
// передача указателя допустима.
type ExecuteCommand struct {
	// Ctx — контекст раунда (прокидывает дедлайн раунда в handler).
	Ctx context.Context

	// Action — идентификатор действия.
	Action domain.ActionID

	// Context — координатор раунда.
	Context *Context
}

// runPhases выполняет валидированную карту фаз.
//
// Фазы выполняются строго по возрастанию номеров. Внутри фазы все
// действия разгоняются параллельно (fan-out), затем Runner ждёт
// завершения каждого по одноразовому каналу, ключованному на
// конкретное действие — без широковещательных ожиданий, чтобы
// не путаться с соседями по фазе.
func (c *Context) runPhases(ctx context.Context) error {
	phases := c.phaseNumbers()

	for _, phase := range phases {
		actions := c.phaseActions(phase)

		c.logger.Debug("phase started", "phase", phase, "actions", len(actions))

		// Watch регистрируется до публикации команды: результат,
		// пришедший раньше, чем Runner начал ждать, не теряется.
		watches := make([]<-chan domain.CompletionEvent, len(actions))
		for i, id := range actions {
			watches[i] = c.watch(id)
		}

		for _, id := range actions {
			c.bus.Publish(bus.TopicExecute(id), &ExecuteCommand{
				Ctx:     ctx,
				Action:  id,
				Context: c,
			})
		}

		// Join фазы: логическое И всех ожиданий.
		for _, ch := range watches {
			select {
			case <-ch:
			case <-c.failedCh:
				// Раунд уже ERROR: результаты разосланной фазы больше
				// не ожидаются (handler'ы не отменяются, но их
				// завершение будет молча отброшено).
				return fmt.Errorf("%w: %s", ErrRoundFailed, c.Failure())
			case <-ctx.Done():
				c.setError(ctx.Err().Error())
				return ctx.Err()
			}
		}

		// После join фазы: при ошибке следующие фазы не стартуют.
		if c.State() == domain.ContextStateError {
			return fmt.Errorf("%w: %s", ErrRoundFailed, c.Failure())
		}

		c.logger.Debug("phase complete", "phase", phase)
	}

	c.setDone()

	if c.State() == domain.ContextStateError {
		// Ошибка успела зафиксироваться раньше setDone.
		return fmt.Errorf("%w: %s", ErrRoundFailed, c.Failure())
	}
	return nil
}

// phaseNumbers возвращает различные номера фаз по возрастанию.
func (c *Context) phaseNumbers() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int]bool)
	for _, phase := range c.placed {
		seen[phase] = true
	}

	phases := make([]int, 0, len(seen))
	for phase := range seen {
		phases = append(phases, phase)
	}
	sort.Ints(phases)
	return phases
}

// phaseActions возвращает действия фазы, отсортированные по
// идентификатору. Порядок разгона детерминирован, порядок
// завершения внутри фазы — нет.
func (c *Context) phaseActions(phase int) []domain.ActionID {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions := make([]domain.ActionID, 0)
	for id, p := range c.placed {
		if p == phase {
			actions = append(actions, id)
		}
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].String() < actions[j].String()
	})
	return actions
}
