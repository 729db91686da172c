package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики координатора.
//
// Регистрируются в default registry и экспортируются сервером
// на /metrics через promhttp.
var (
	// RoundsStarted — количество начатых раундов по типу контекста.
	RoundsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ensemble",
		Name:      "rounds_started_total",
		Help:      "Number of coordination rounds started.",
	}, []string{"kind"})

	// RoundsFinished — количество завершённых раундов по типу и состоянию.
	RoundsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ensemble",
		Name:      "rounds_finished_total",
		Help:      "Number of coordination rounds finished, by terminal state.",
	}, []string{"kind", "state"})

	// RoundDuration — длительность раунда от создания до финального состояния.
	RoundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ensemble",
		Name:      "round_duration_seconds",
		Help:      "Round duration from creation to terminal state.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"kind"})

	// ActionsCompleted — завершения действий по статусу.
	ActionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ensemble",
		Name:      "actions_completed_total",
		Help:      "Number of action completions, by status.",
	}, []string{"module", "status"})

	// DiscoveryReplies — количество discovery ответов на раунд.
	DiscoveryReplies = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ensemble",
		Name:      "discovery_replies",
		Help:      "Discovery replies collected per round.",
		Buckets:   prometheus.LinearBuckets(0, 2, 10),
	}, []string{"kind"})
)
