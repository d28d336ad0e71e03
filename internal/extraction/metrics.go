package extraction

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

var extractionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sm_extraction_duration_seconds",
		Help:    "Длительность извлечения атрибутов из CV.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{"extractor", "status"},
)

// Instrumented записывает длительность и исход каждого извлечения.
type Instrumented struct {
	next Extractor
}

// NewInstrumented оборачивает экстрактор метриками.
func NewInstrumented(next Extractor) *Instrumented {
	return &Instrumented{next: next}
}

// Name возвращает имя внутреннего экстрактора.
func (i *Instrumented) Name() string { return i.next.Name() }

// Extract вызывает внутренний экстрактор и нормализует результат.
func (i *Instrumented) Extract(ctx context.Context, doc Document) (*model.CandidateAttributes, error) {
	start := time.Now()
	attrs, err := i.next.Extract(ctx, doc)
	if err == nil {
		attrs, err = Normalize(attrs)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	extractionDuration.WithLabelValues(i.next.Name(), status).Observe(time.Since(start).Seconds())

	return attrs, err
}
