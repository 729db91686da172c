package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
)

// EventsExchange — topic exchange для внешних наблюдателей.
const EventsExchange = "ensemble.events"

// MessageType — тип события в envelope.
type MessageType string

// Типы событий.
const (
	MessageTypeActionCompleted MessageType = "action.completed"
	MessageTypeRoundFinished   MessageType = "round.finished"
)

// Message — envelope события для внешнего брокера.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// Relay — мост из внутрипроцессной шины в RabbitMQ.
type Relay struct {
	conn   *Connection
	bus    *bus.Bus
	logger *slog.Logger

	statusSub *bus.Subscription
}

// New создаёт Relay и объявляет exchange.
func New(conn *Connection, b *bus.Bus, logger *slog.Logger) (*Relay, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Relay{
		conn:   conn,
		bus:    b,
		logger: logger,
	}

	err := conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(
			EventsExchange, // name
			"topic",        // type
			true,           // durable
			false,          // auto-deleted
			false,          // internal
			false,          // no-wait
			nil,            // arguments
		)
	})
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return r, nil
}

// Start подписывает relay на события завершения всех контекстов.
func (r *Relay) Start() {
	r.statusSub = r.bus.Subscribe(bus.TopicStatusPattern(), r.onStatus)
	r.logger.Info("relay started", "exchange", EventsExchange)
}

// Stop снимает подписку. Соединение закрывает владелец.
func (r *Relay) Stop() {
	r.bus.Unsubscribe(r.statusSub)
	r.logger.Info("relay stopped")
}

// onStatus транслирует событие завершения действия.
func (r *Relay) onStatus(_ string, payload any) {
	ev, ok := payload.(domain.CompletionEvent)
	if !ok {
		return
	}

	key := fmt.Sprintf("action.%s.%s", ev.Action.Module, ev.Status)
	if err := r.publish(key, MessageTypeActionCompleted, ev); err != nil {
		r.logger.Warn("failed to relay completion event",
			"action", ev.Action,
			"error", err,
		)
	}
}

// PublishRoundFinished транслирует запись о завершённом раунде.
func (r *Relay) PublishRoundFinished(rec *domain.ContextRecord) error {
	key := fmt.Sprintf("round.%s.%s", rec.Kind, rec.State)
	return r.publish(key, MessageTypeRoundFinished, rec)
}

// publish отправляет событие в exchange (fire-and-forget для шины:
// ошибки брокера логируются, но не влияют на координацию).
func (r *Relay) publish(routingKey string, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return r.conn.WithChannel(func(ch *amqp.Channel) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := ch.PublishWithContext(
			ctx,
			EventsExchange,
			routingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", EventsExchange, routingKey, err)
		}

		r.logger.Debug("relayed event",
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}
