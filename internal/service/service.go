package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/coordinator"
	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
	"github.com/shaiso/Ensemble/internal/relay"
	"github.com/shaiso/Ensemble/internal/repo"
	"github.com/shaiso/Ensemble/internal/telemetry"
)

// RoundService запускает раунды координации.
type RoundService struct {
	bus      *bus.Bus
	registry *registry.Registry

	window  time.Duration
	timeout time.Duration

	// История и relay опциональны (nil — выключено).
	history *repo.ContextRepo
	relay   *relay.Relay

	logger *slog.Logger
}

// Config — конфигурация RoundService.
type Config struct {
	Bus      *bus.Bus
	Registry *registry.Registry

	// DiscoveryWindow — окно сбора discovery ответов.
	DiscoveryWindow time.Duration

	// RoundTimeout — дедлайн раунда (0 — без дедлайна).
	RoundTimeout time.Duration

	// History — репозиторий истории (опционально).
	History *repo.ContextRepo

	// Relay — мост во внешний брокер (опционально).
	Relay *relay.Relay

	// Logger
	Logger *slog.Logger
}

// New создаёт RoundService.
func New(cfg Config) *RoundService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RoundService{
		bus:      cfg.Bus,
		registry: cfg.Registry,
		window:   cfg.DiscoveryWindow,
		timeout:  cfg.RoundTimeout,
		history:  cfg.History,
		relay:    cfg.Relay,
		logger:   logger,
	}
}

// Trigger проводит один раунд указанного типа.
//
// Блокируется до финального состояния контекста. Возвращает запись
// о раунде и ошибку раунда (nil, если раунд завершился DONE).
func (s *RoundService) Trigger(ctx context.Context, kind string) (domain.ContextRecord, error) {
	telemetry.RoundsStarted.WithLabelValues(kind).Inc()

	ec := coordinator.NewContext(coordinator.Config{
		Kind:            kind,
		Bus:             s.bus,
		Registry:        s.registry,
		DiscoveryWindow: s.window,
		Logger:          s.logger,
	})

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runErr := ec.Run(runCtx)

	rec := ec.Record()
	s.observe(&rec)

	if s.history != nil {
		// Историю пишем отдельным контекстом: раунд мог упасть
		// по дедлайну, запись должна сохраниться всё равно.
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.history.Insert(saveCtx, &rec); err != nil {
			s.logger.Warn("failed to persist round record",
				"context_id", rec.ID,
				"error", err,
			)
		}
		cancel()
	}

	if s.relay != nil {
		if err := s.relay.PublishRoundFinished(&rec); err != nil {
			s.logger.Warn("failed to relay round record",
				"context_id", rec.ID,
				"error", err,
			)
		}
	}

	return rec, runErr
}

// GetRound возвращает запись раунда из истории.
func (s *RoundService) GetRound(ctx context.Context, id uuid.UUID) (*domain.ContextRecord, error) {
	if s.history == nil {
		return nil, repo.ErrNotFound
	}
	return s.history.GetByID(ctx, id)
}

// ListRounds возвращает последние раунды из истории.
func (s *RoundService) ListRounds(ctx context.Context, kind string, limit int) ([]domain.ContextRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecent(ctx, kind, limit)
}

// observe записывает метрики завершённого раунда.
func (s *RoundService) observe(rec *domain.ContextRecord) {
	telemetry.RoundsFinished.WithLabelValues(rec.Kind, string(rec.State)).Inc()
	telemetry.RoundDuration.WithLabelValues(rec.Kind).Observe(rec.Duration().Seconds())
	telemetry.DiscoveryReplies.WithLabelValues(rec.Kind).Observe(float64(rec.Discovered))
}
