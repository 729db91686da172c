package api

import (
	"log/slog"

	"github.com/shaiso/Ensemble/internal/registry"
	"github.com/shaiso/Ensemble/internal/service"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	rounds   *service.RoundService
	registry *registry.Registry
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Rounds   *service.RoundService
	Registry *registry.Registry
	Logger   *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		rounds:   cfg.Rounds,
		registry: cfg.Registry,
		logger:   logger,
	}
}
