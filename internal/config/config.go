package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Значения по умолчанию.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultDiscoveryWindow = 50 * time.Millisecond
)

// Config — конфигурация сервера.
type Config struct {
	// HTTPAddr — адрес HTTP API.
	HTTPAddr string `toml:"http_addr"`

	// DBURL — DSN PostgreSQL для истории раундов.
	// Пусто — история не ведётся.
	DBURL string `toml:"db_url"`

	// AMQPURL — URL RabbitMQ для relay событий.
	// Пусто — relay выключен.
	AMQPURL string `toml:"amqp_url"`

	// DiscoveryWindowMS — окно сбора discovery ответов в миллисекундах.
	DiscoveryWindowMS int `toml:"discovery_window_ms"`

	// RoundTimeoutSec — дедлайн раунда в секундах.
	// 0 — раунд не ограничен по времени.
	RoundTimeoutSec int `toml:"round_timeout_sec"`

	// Schedules — расписания автоматических раундов.
	Schedules []Schedule `toml:"schedule"`
}

// Schedule — cron-расписание запуска раундов одного типа.
type Schedule struct {
	// Kind — тип контекста, который запускается.
	Kind string `toml:"kind"`

	// Cron — выражение в формате robfig/cron (5 полей).
	Cron string `toml:"cron"`
}

// Load загружает конфигурацию.
//
// path может быть пустым — тогда используются только переменные
// окружения и значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := &Config{
		HTTPAddr:          DefaultHTTPAddr,
		DiscoveryWindowMS: int(DefaultDiscoveryWindow / time.Millisecond),
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv накладывает переменные окружения поверх файла.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.AMQPURL = v
	}
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr must not be empty")
	}
	if c.DiscoveryWindowMS <= 0 {
		return fmt.Errorf("discovery_window_ms must be positive, got %d", c.DiscoveryWindowMS)
	}
	if c.RoundTimeoutSec < 0 {
		return fmt.Errorf("round_timeout_sec must be non-negative, got %d", c.RoundTimeoutSec)
	}

	for i, s := range c.Schedules {
		if s.Kind == "" {
			return fmt.Errorf("schedule[%d]: kind must not be empty", i)
		}
		if s.Cron == "" {
			return fmt.Errorf("schedule[%d]: cron must not be empty", i)
		}
	}
	return nil
}

// DiscoveryWindow возвращает окно сбора как Duration.
func (c *Config) DiscoveryWindow() time.Duration {
	return time.Duration(c.DiscoveryWindowMS) * time.Millisecond
}

// RoundTimeout возвращает дедлайн раунда (0 — без дедлайна).
func (c *Config) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSec) * time.Second
}
