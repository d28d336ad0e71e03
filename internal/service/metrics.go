package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики бизнес-операций.
var (
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sm_cv_parse_total",
		Help: "Количество разборов CV по результату (created, updated, error).",
	}, []string{"result"})

	matchUpsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sm_match_upserts_total",
		Help: "Количество операций сопоставления по результату (created, existing, error).",
	}, []string{"result"})

	bulkMatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sm_bulk_match_duration_seconds",
		Help:    "Длительность массового сопоставления кандидатов и вакансий.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 0.05s … ~102s
	})

	bulkMatchPairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sm_bulk_match_pairs_total",
		Help: "Количество пар, обработанных массовым сопоставлением (created, updated, failed).",
	}, []string{"outcome"})
)
