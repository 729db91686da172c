// Package modules содержит встроенные действия сервера.
//
// Сервер регистрирует их в общем реестре рядом с действиями
// встраивающего приложения. Все встроенные действия участвуют
// только в контекстах типа "healthcheck", который запускается
// по расписанию или вручную через API.
package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
	"github.com/shaiso/Ensemble/internal/relay"
)

// KindHealthcheck — тип контекста для встроенной проверки здоровья.
const KindHealthcheck = "healthcheck"

// Deps — внешние зависимости встроенных действий.
// Nil-поля означают, что подсистема выключена: её проверка
// завершается успешно с пометкой "disabled" в логе.
type Deps struct {
	DB     *pgxpool.Pool
	Broker *relay.Connection
	Logger *slog.Logger
}

// Register регистрирует встроенные действия в реестре.
func Register(reg *registry.Registry, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	descriptors := []domain.Descriptor{
		{
			Module:   "storage",
			Action:   "ping",
			Phase:    1,
			Contexts: []string{KindHealthcheck},
			Handler:  pingStorage(deps.DB, logger),
		},
		{
			Module:   "broker",
			Action:   "ping",
			Phase:    1,
			Contexts: []string{KindHealthcheck},
			Handler:  pingBroker(deps.Broker, logger),
		},
		{
			Module: "report",
			Action: "summary",
			Phase:  2,
			DependsOn: []domain.ActionID{
				{Module: "storage", Action: "ping"},
				{Module: "broker", Action: "ping"},
			},
			Contexts: []string{KindHealthcheck},
			Handler:  reportSummary(logger),
		},
	}

	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("failed to register builtin action %s: %w", d.ID(), err)
		}
	}

	return nil
}

// pingStorage проверяет соединение с базой данных.
func pingStorage(pool *pgxpool.Pool, logger *slog.Logger) domain.Handler {
	return func(ctx context.Context, ec domain.Execution) error {
		if pool == nil {
			logger.Debug("storage ping skipped: database disabled", "context_id", ec.ID())
			return nil
		}

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		return nil
	}
}

// pingBroker проверяет соединение с брокером сообщений.
func pingBroker(conn *relay.Connection, logger *slog.Logger) domain.Handler {
	return func(ctx context.Context, ec domain.Execution) error {
		if conn == nil {
			logger.Debug("broker ping skipped: relay disabled", "context_id", ec.ID())
			return nil
		}

		// Открытие канала проходит только на живом соединении.
		return conn.WithChannel(func(ch *amqp.Channel) error {
			return nil
		})
	}
}

// reportSummary пишет итог проверки в лог. Выполняется во второй
// фазе и дополнительно ждёт обе проверки через WaitFor: даже если
// карту фаз поменяют, итог не выйдет раньше проверок.
func reportSummary(logger *slog.Logger) domain.Handler {
	return func(ctx context.Context, ec domain.Execution) error {
		err := ec.WaitFor(ctx,
			domain.ActionID{Module: "storage", Action: "ping"},
			domain.ActionID{Module: "broker", Action: "ping"},
		)
		if err != nil {
			return err
		}

		logger.Info("healthcheck passed",
			"context_id", ec.ID(),
			"kind", ec.Kind(),
		)
		return nil
	}
}
