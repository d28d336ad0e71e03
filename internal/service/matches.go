// matches.go — сервис чтения сопоставлений и экспорта в XLSX.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/export"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// exportPageSize — размер страницы при выборке сопоставлений для экспорта.
const exportPageSize = 1000

// MatchView — сопоставление с вложенными кандидатом и вакансией.
type MatchView struct {
	Match     *model.Match
	Candidate *model.Candidate
	Job       *model.Job
}

// MatchService — сервис чтения сопоставлений.
type MatchService struct {
	matches    repository.MatchRepository
	candidates repository.CandidateRepository
	jobs       repository.JobRepository
	logger     *slog.Logger
}

// NewMatchService создаёт сервис сопоставлений.
func NewMatchService(
	matches repository.MatchRepository,
	candidates repository.CandidateRepository,
	jobs repository.JobRepository,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		matches:    matches,
		candidates: candidates,
		jobs:       jobs,
		logger:     logger.With(slog.String("component", "match_service")),
	}
}

// List возвращает страницу сопоставлений и их общее количество.
func (s *MatchService) List(ctx context.Context, filter model.MatchFilter, params model.ListParams) ([]*model.MatchDetail, int, error) {
	if err := validateMatchFilter(filter); err != nil {
		return nil, 0, err
	}
	items, err := s.matches.List(ctx, filter, params)
	if err != nil {
		return nil, 0, mapListErr("получение списка сопоставлений", err)
	}
	total, err := s.matches.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт сопоставлений: %w", err)
	}
	return items, total, nil
}

// Get возвращает сопоставление с кандидатом и вакансией.
func (s *MatchService) Get(ctx context.Context, id string) (*MatchView, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: сопоставление '%s' не найдено", ErrNotFound, id)
		}
		return nil, fmt.Errorf("получение сопоставления: %w", err)
	}

	c, err := s.candidates.GetByID(ctx, m.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("получение кандидата сопоставления: %w", err)
	}
	j, err := s.jobs.GetByID(ctx, m.JobID)
	if err != nil {
		return nil, fmt.Errorf("получение вакансии сопоставления: %w", err)
	}
	return &MatchView{Match: m, Candidate: c, Job: j}, nil
}

// Export записывает в w XLSX-книгу со всеми сопоставлениями,
// удовлетворяющими фильтру, в порядке sort.
func (s *MatchService) Export(ctx context.Context, w io.Writer, filter model.MatchFilter, sort string) error {
	if err := validateMatchFilter(filter); err != nil {
		return err
	}

	var all []*model.MatchDetail
	for offset := 0; ; offset += exportPageSize {
		page, err := s.matches.List(ctx, filter, model.ListParams{
			Limit:  exportPageSize,
			Offset: offset,
			Sort:   sort,
		})
		if err != nil {
			return mapListErr("выборка сопоставлений для экспорта", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}

	if err := export.WriteMatches(w, all, time.Now().UTC()); err != nil {
		return fmt.Errorf("формирование XLSX: %w", err)
	}

	s.logger.Info("Сопоставления экспортированы", slog.Int("count", len(all)))
	return nil
}

func validateMatchFilter(filter model.MatchFilter) error {
	if filter.CandidateID != "" {
		if err := validateID("candidate_id", filter.CandidateID); err != nil {
			return err
		}
	}
	if filter.JobID != "" {
		if err := validateID("job_id", filter.JobID); err != nil {
			return err
		}
	}
	if filter.MinScore != nil && (*filter.MinScore < 0 || *filter.MinScore > 100) {
		return fmt.Errorf("%w: min_score должен быть в диапазоне 0..100", ErrValidation)
	}
	return nil
}
