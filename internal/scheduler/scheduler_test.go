package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shaiso/Ensemble/internal/config"
	"github.com/shaiso/Ensemble/internal/domain"
)

// fakeTrigger записывает запрошенные типы раундов.
type fakeTrigger struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (f *fakeTrigger) Trigger(_ context.Context, kind string) (domain.ContextRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return domain.ContextRecord{Kind: kind}, f.err
}

func TestNew_ValidSchedules(t *testing.T) {
	schedules := []config.Schedule{
		{Kind: "healthcheck", Cron: "*/5 * * * *"},
		{Kind: "cleanup", Cron: "0 3 * * *"},
	}

	s, err := New(schedules, &fakeTrigger{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.cron.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(s.cron.Entries()))
	}
}

func TestNew_InvalidCron(t *testing.T) {
	schedules := []config.Schedule{
		{Kind: "healthcheck", Cron: "not a cron"},
	}

	_, err := New(schedules, &fakeTrigger{}, nil)
	if err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestNew_Empty(t *testing.T) {
	s, err := New(nil, &fakeTrigger{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Запуск и остановка без расписаний не должны блокировать.
	s.Start()
	s.Stop()
}

func TestRunScheduled(t *testing.T) {
	trigger := &fakeTrigger{}
	s, err := New(nil, trigger, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.runScheduled("healthcheck")

	trigger.mu.Lock()
	defer trigger.mu.Unlock()
	if len(trigger.kinds) != 1 || trigger.kinds[0] != "healthcheck" {
		t.Errorf("expected single healthcheck trigger, got %v", trigger.kinds)
	}
}

func TestRunScheduled_TriggerError(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("round failed")}
	s, err := New(nil, trigger, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ошибка раунда логируется, но не роняет планировщик.
	s.runScheduled("healthcheck")
}

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"*/5 * * * *", false},
		{"0 3 * * 1", false},
		{"", true},
		{"61 * * * *", true},
		{"* * * *", true},
		{"@every 5m", true}, // только 5-польные выражения
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpr(tt.expr)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %q", tt.expr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.expr, err)
			}
		})
	}
}
