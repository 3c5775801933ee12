// metrics.go — Prometheus бизнес-метрики бота.
// HTTP-метрики ops-сервера регистрируются в пакете server.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// capturesTotal — количество захватов контента по типу и режиму.
	capturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_captures_total",
			Help: "Общее количество захватов контента",
		},
		[]string{"kind", "mode"},
	)

	// restoresTotal — количество доставок по результату.
	restoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_restores_total",
			Help: "Общее количество доставок контента по кодам",
		},
		[]string{"result"},
	)

	// resolveCacheHitsTotal — попадания в кэш разрешения кодов.
	resolveCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_resolve_cache_hits_total",
		Help: "Общее количество попаданий в кэш разрешения кодов",
	})

	// sweepRunsTotal — количество запусков фоновой очистки.
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_sweep_runs_total",
		Help: "Общее количество запусков фоновой очистки",
	})

	// sweepRemovedTotal — количество удалённых очисткой сущностей.
	sweepRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_sweep_removed_total",
		Help: "Общее количество ссылок и батчей, удалённых очисткой",
	})

	// sweepDurationSeconds — длительность цикла очистки.
	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fs_sweep_duration_seconds",
		Help:    "Длительность цикла фоновой очистки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)
