package extraction

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// Prometheus-метрики кэша извлечения.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sm_extraction_cache_hits_total",
		Help: "Общее количество попаданий в кэш результатов извлечения.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sm_extraction_cache_misses_total",
		Help: "Общее количество промахов кэша результатов извлечения.",
	})
)

// CachingExtractor кэширует результаты извлечения по checksum файла.
// Повторный разбор того же содержимого не вызывает внутренний экстрактор.
// Кэш per-instance, хранятся только копии атрибутов.
type CachingExtractor struct {
	next  Extractor
	cache *expirable.LRU[string, model.CandidateAttributes]
}

// NewCachingExtractor оборачивает next LRU-кэшем размера size с TTL ttl.
func NewCachingExtractor(next Extractor, size int, ttl time.Duration) *CachingExtractor {
	return &CachingExtractor{
		next:  next,
		cache: expirable.NewLRU[string, model.CandidateAttributes](size, nil, ttl),
	}
}

// Name возвращает имя внутреннего экстрактора.
func (c *CachingExtractor) Name() string { return c.next.Name() }

// Extract возвращает результат из кэша или вызывает внутренний экстрактор.
// Документы без checksum не кэшируются.
func (c *CachingExtractor) Extract(ctx context.Context, doc Document) (*model.CandidateAttributes, error) {
	if doc.Checksum == "" {
		return c.next.Extract(ctx, doc)
	}

	if attrs, ok := c.cache.Get(doc.Checksum); ok {
		cacheHitsTotal.Inc()
		return cloneAttrs(attrs), nil
	}
	cacheMissesTotal.Inc()

	attrs, err := c.next.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.cache.Add(doc.Checksum, *cloneAttrs(*attrs))
	return attrs, nil
}

// Len возвращает количество записей в кэше.
func (c *CachingExtractor) Len() int {
	return c.cache.Len()
}

func cloneAttrs(a model.CandidateAttributes) *model.CandidateAttributes {
	a.Skills = slices.Clone(a.Skills)
	return &a
}
