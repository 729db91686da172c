// Ensemble server — координатор раундов с HTTP API.
//
// Поднимает внутреннюю шину, реестр действий, исполнитель,
// опциональные историю (PostgreSQL) и relay (RabbitMQ),
// cron-планировщик и HTTP API с /healthz и /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Ensemble/internal/api"
	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/config"
	"github.com/shaiso/Ensemble/internal/coordinator"
	"github.com/shaiso/Ensemble/internal/modules"
	"github.com/shaiso/Ensemble/internal/registry"
	"github.com/shaiso/Ensemble/internal/relay"
	"github.com/shaiso/Ensemble/internal/repo"
	"github.com/shaiso/Ensemble/internal/scheduler"
	"github.com/shaiso/Ensemble/internal/service"
	"github.com/shaiso/Ensemble/internal/telemetry"
)

var startTime = time.Now()

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to TOML config file")
	flag.Parse()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger("ensemble-server")
	logger.Info("starting ensemble-server")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Шина и реестр — ядро координатора
	b := bus.New(logger)
	reg := registry.New()

	// История раундов (опционально)
	var history *repo.ContextRepo
	var pool *pgxpool.Pool
	if cfg.DBURL != "" {
		pool, err = repo.NewPool(context.Background(), cfg.DBURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		history = repo.NewContextRepo(pool)
		if err := history.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		logger.Info("round history enabled")
	}

	// Relay во внешний брокер (опционально)
	var eventRelay *relay.Relay
	var brokerConn *relay.Connection
	if cfg.AMQPURL != "" {
		brokerConn, err = relay.NewConnection(cfg.AMQPURL, logger)
		if err != nil {
			logger.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer brokerConn.Close()

		eventRelay, err = relay.New(brokerConn, b, logger)
		if err != nil {
			logger.Error("failed to create relay", "error", err)
			os.Exit(1)
		}
		eventRelay.Start()
		defer eventRelay.Stop()
		logger.Info("event relay enabled")
	}

	// Встроенные действия сервера
	if err := modules.Register(reg, modules.Deps{
		DB:     pool,
		Broker: brokerConn,
		Logger: logger,
	}); err != nil {
		logger.Error("failed to register builtin actions", "error", err)
		os.Exit(1)
	}

	// Исполнитель отвечает на discovery и команды запуска
	executor := coordinator.NewExecutor(b, reg, logger)
	executor.Bind()
	defer executor.Close()

	// Метрики завершений действий
	statusObserver := telemetry.ObserveBus(b)
	defer b.Unsubscribe(statusObserver)

	rounds := service.New(service.Config{
		Bus:             b,
		Registry:        reg,
		DiscoveryWindow: cfg.DiscoveryWindow(),
		RoundTimeout:    cfg.RoundTimeout(),
		History:         history,
		Relay:           eventRelay,
		Logger:          logger,
	})

	// Cron-планировщик раундов
	sched, err := scheduler.New(cfg.Schedules, rounds, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	handler := api.NewHandler(api.Config{
		Rounds:   rounds,
		Registry: reg,
		Logger:   logger,
	})

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "actions", reg.Count())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
