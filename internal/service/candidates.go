// candidates.go — сервис кандидатов: список, получение, частичное обновление.
// Создание и обновление атрибутов выполняет ReconcileService.Parse.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// CandidateService — сервис кандидатов.
type CandidateService struct {
	repo   repository.CandidateRepository
	logger *slog.Logger
}

// NewCandidateService создаёт сервис кандидатов.
func NewCandidateService(repo repository.CandidateRepository, logger *slog.Logger) *CandidateService {
	return &CandidateService{
		repo:   repo,
		logger: logger.With(slog.String("component", "candidate_service")),
	}
}

// List возвращает страницу кандидатов и их общее количество.
func (s *CandidateService) List(ctx context.Context, filter model.CandidateFilter, params model.ListParams) ([]*model.Candidate, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, mapListErr("получение списка кандидатов", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт кандидатов: %w", err)
	}
	return items, total, nil
}

// Get возвращает кандидата по ID.
func (s *CandidateService) Get(ctx context.Context, id string) (*model.Candidate, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: кандидат '%s' не найден", ErrNotFound, id)
		}
		return nil, fmt.Errorf("получение кандидата: %w", err)
	}
	return c, nil
}

// Patch обновляет email, телефон и статус кандидата.
func (s *CandidateService) Patch(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: недопустимый статус %q", ErrValidation, *patch.Status)
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email != "" && !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: некорректный email %q", ErrValidation, email)
		}
		patch.Email = &email
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		patch.Phone = &phone
	}

	c, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: кандидат '%s' не найден", ErrNotFound, id)
		}
		return nil, fmt.Errorf("обновление кандидата: %w", err)
	}

	s.logger.Info("Кандидат обновлён",
		slog.String("candidate_id", id),
		slog.String("status", c.Status.String()),
	)
	return c, nil
}
