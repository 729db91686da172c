package bus

import (
	"log/slog"
	"strings"
	"sync"
)

// Handler — функция обработки сообщения.
// Вызывается в отдельной горутине для каждой доставки.
type Handler func(topic string, payload any)

// Subscription — активная подписка на шаблон топика.
//
// Подписка принадлежит создавшему её компоненту и снимается
// явно через Unsubscribe — никакой очистки по GC.
type Subscription struct {
	id      uint64
	pattern []string
	handler Handler
}

// Pattern возвращает шаблон подписки.
func (s *Subscription) Pattern() string {
	return strings.Join(s.pattern, "/")
}

// Bus — внутрипроцессная шина с топиками и позиционными wildcard.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	logger *slog.Logger
}

// New создаёт новую шину.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscribe регистрирует обработчик для шаблона топика.
//
// Сегменты шаблона разделены "/"; сегмент "*" совпадает ровно
// с одним произвольным сегментом топика.
func (b *Bus) Subscribe(pattern string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:      b.nextID,
		pattern: splitTopic(pattern),
		handler: handler,
	}
	b.subs[sub.id] = sub

	b.logger.Debug("subscribed", "pattern", pattern, "id", sub.id)
	return sub
}

// Unsubscribe снимает подписку. Повторный вызов — no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[sub.id]; !exists {
		return
	}
	delete(b.subs, sub.id)

	b.logger.Debug("unsubscribed", "pattern", sub.Pattern(), "id", sub.id)
}

// Publish публикует сообщение в топик (fire-and-forget).
//
// Совпавшие подписки вызываются каждая в своей горутине;
// издатель не ждёт обработки и не узнаёт об ошибках подписчиков.
func (b *Bus) Publish(topic string, payload any) {
	segments := splitTopic(topic)

	b.mu.RLock()
	matched := make([]*Subscription, 0, 4)
	for _, sub := range b.subs {
		if matchTopic(sub.pattern, segments) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range matched {
		go sub.handler(topic, payload)
	}
}

// SubscriberCount возвращает количество активных подписок.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// splitTopic разбивает топик на сегменты, отбрасывая ведущий "/".
func splitTopic(topic string) []string {
	return strings.Split(strings.TrimPrefix(topic, "/"), "/")
}

// matchTopic проверяет совпадение топика с шаблоном.
// Количество сегментов должно совпадать точно.
func matchTopic(pattern, topic []string) bool {
	if len(pattern) != len(topic) {
		return false
	}
	for i, p := range pattern {
		if p == Wildcard {
			continue
		}
		if p != topic[i] {
			return false
		}
	}
	return true
}
