// bulk_match.go — массовое сопоставление всех активных кандидатов
// со всеми активными вакансиями.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// MaxReportedFailures — предел числа ошибок пар в отчёте.
const MaxReportedFailures = 100

// PairFailure — ошибка сопоставления одной пары.
type PairFailure struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
	Error       string `json:"error"`
}

// MatchAllResult — итог массового сопоставления.
type MatchAllResult struct {
	Candidates int
	Jobs       int
	Created    int
	Updated    int
	Failed     int
	// Failures — первые MaxReportedFailures ошибок
	Failures []PairFailure
	Duration time.Duration
}

// BulkMatchService — массовое сопоставление.
type BulkMatchService struct {
	candidates repository.CandidateRepository
	jobs       repository.JobRepository
	tx         TxRunner
	workers    int
	logger     *slog.Logger
}

// NewBulkMatchService создаёт сервис массового сопоставления.
// workers — число параллельно обрабатываемых пар.
func NewBulkMatchService(
	candidates repository.CandidateRepository,
	jobs repository.JobRepository,
	tx TxRunner,
	workers int,
	logger *slog.Logger,
) *BulkMatchService {
	if workers < 1 {
		workers = 1
	}
	return &BulkMatchService{
		candidates: candidates,
		jobs:       jobs,
		tx:         tx,
		workers:    workers,
		logger:     logger.With(slog.String("component", "bulk_match")),
	}
}

// MatchAll сопоставляет каждого активного кандидата с каждой активной
// вакансией, пересчитывая существующие сопоставления. Каждая пара
// обрабатывается в своей транзакции. Ошибка пары не прерывает обработку:
// она учитывается в Failed и попадает в Failures.
// Отмена ctx прекращает запуск новых пар.
func (s *BulkMatchService) MatchAll(ctx context.Context) (*MatchAllResult, error) {
	start := time.Now()
	defer func() {
		bulkMatchDuration.Observe(time.Since(start).Seconds())
	}()

	candidates, err := s.candidates.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение активных кандидатов: %w", err)
	}
	jobs, err := s.jobs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение активных вакансий: %w", err)
	}

	s.logger.Info("Начало массового сопоставления",
		slog.Int("candidates", len(candidates)),
		slog.Int("jobs", len(jobs)),
		slog.Int("workers", s.workers),
	)

	result := &MatchAllResult{
		Candidates: len(candidates),
		Jobs:       len(jobs),
		Failures:   []PairFailure{},
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)

schedule:
	for _, c := range candidates {
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				break schedule
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(c *model.Candidate, j *model.Job) {
				defer wg.Done()
				defer func() { <-sem }()

				res, err := s.matchPair(ctx, c, j)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					if len(result.Failures) < MaxReportedFailures {
						result.Failures = append(result.Failures, PairFailure{
							CandidateID: c.ID,
							JobID:       j.ID,
							Error:       err.Error(),
						})
					}
					bulkMatchPairsTotal.WithLabelValues("failed").Inc()
					s.logger.Warn("Ошибка сопоставления пары",
						slog.String("candidate_id", c.ID),
						slog.String("job_id", j.ID),
						slog.String("error", err.Error()),
					)
					return
				}
				if res == model.ResultCreated {
					result.Created++
					bulkMatchPairsTotal.WithLabelValues("created").Inc()
				} else {
					result.Updated++
					bulkMatchPairsTotal.WithLabelValues("updated").Inc()
				}
			}(c, j)
		}
	}

	wg.Wait()
	result.Duration = time.Since(start)

	if ctx.Err() != nil {
		s.logger.Warn("Массовое сопоставление прервано",
			slog.Int("created", result.Created),
			slog.Int("updated", result.Updated),
			slog.Int("failed", result.Failed),
		)
		return result, ctx.Err()
	}

	s.logger.Info("Массовое сопоставление завершено",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// matchPair выполняет upsert одной пары в отдельной транзакции.
func (s *BulkMatchService) matchPair(ctx context.Context, c *model.Candidate, j *model.Job) (model.UpsertResult, error) {
	var result model.UpsertResult
	err := s.tx.InTx(ctx, func(r *repository.Repositories) error {
		_, res, err := upsertPair(ctx, r, c, j, true)
		result = res
		return err
	})
	return result, err
}
