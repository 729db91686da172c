package telemetry

import (
	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
)

// ObserveBus подписывает счётчики действий на события завершения
// всех контекстов. Возвращённую подписку снимает вызывающий.
func ObserveBus(b *bus.Bus) *bus.Subscription {
	return b.Subscribe(bus.TopicStatusPattern(), func(_ string, payload any) {
		ev, ok := payload.(domain.CompletionEvent)
		if !ok {
			return
		}
		ActionsCompleted.WithLabelValues(ev.Action.Module, string(ev.Status)).Inc()
	})
}
