package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Ensemble/internal/config"
	"github.com/shaiso/Ensemble/internal/domain"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Trigger запускает один раунд указанного типа.
// Реализуется RoundService; интерфейс разрывает зависимость
// scheduler → service.
type Trigger interface {
	Trigger(ctx context.Context, kind string) (domain.ContextRecord, error)
}

// Scheduler — cron-планировщик раундов.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	logger  *slog.Logger
}

// New создаёт Scheduler из записей конфигурации.
func New(schedules []config.Schedule, trigger Trigger, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithParser(cronParser)),
		trigger: trigger,
		logger:  logger,
	}

	for _, sched := range schedules {
		kind := sched.Kind

		_, err := s.cron.AddFunc(sched.Cron, func() {
			s.runScheduled(kind)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for kind %s: %w",
				sched.Cron, kind, err)
		}

		logger.Info("schedule registered", "kind", kind, "cron", sched.Cron)
	}

	return s, nil
}

// Start запускает планировщик.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop останавливает планировщик и ждёт завершения текущих запусков.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runScheduled проводит один запланированный раунд.
func (s *Scheduler) runScheduled(kind string) {
	s.logger.Debug("scheduled round triggered", "kind", kind)

	rec, err := s.trigger.Trigger(context.Background(), kind)
	if err != nil {
		s.logger.Warn("scheduled round failed",
			"kind", kind,
			"context_id", rec.ID,
			"error", err,
		)
		return
	}

	s.logger.Info("scheduled round complete",
		"kind", kind,
		"context_id", rec.ID,
		"completed", len(rec.Completed),
	)
}

// ValidateCronExpr проверяет валидность cron-выражения.
// Используется при валидации конфигурации.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}
