// jobs.go — сервис вакансий: CRUD.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// JobService — сервис вакансий.
type JobService struct {
	repo   repository.JobRepository
	tx     TxRunner
	logger *slog.Logger
}

// NewJobService создаёт сервис вакансий.
func NewJobService(repo repository.JobRepository, tx TxRunner, logger *slog.Logger) *JobService {
	return &JobService{
		repo:   repo,
		tx:     tx,
		logger: logger.With(slog.String("component", "job_service")),
	}
}

// Create создаёт вакансию. Пустой статус заменяется на active.
func (s *JobService) Create(ctx context.Context, title string, requirements []string, status model.Status) (*model.Job, error) {
	if status == "" {
		status = model.StatusActive
	}
	j := &model.Job{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(title),
		Requirements: cleanList(requirements),
		Status:       status,
	}
	if err := validateJob(j); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, j); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("создание вакансии: %w", err)
	}

	s.logger.Info("Вакансия создана",
		slog.String("job_id", j.ID),
		slog.String("title", j.Title),
		slog.Int("requirements", len(j.Requirements)),
	)
	return j, nil
}

// List возвращает страницу вакансий и их общее количество.
func (s *JobService) List(ctx context.Context, filter model.JobFilter, params model.ListParams) ([]*model.Job, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, mapListErr("получение списка вакансий", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт вакансий: %w", err)
	}
	return items, total, nil
}

// Get возвращает вакансию по ID.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: вакансия '%s' не найдена", ErrNotFound, id)
		}
		return nil, fmt.Errorf("получение вакансии: %w", err)
	}
	return j, nil
}

// Update применяет изменения к вакансии. Для полной замены (PUT)
// все поля patch заданы, для частичной (PATCH) — только изменяемые.
// Чтение и запись выполняются в одной транзакции под блокировкой строки.
func (s *JobService) Update(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	var j *model.Job
	err := s.tx.InTx(ctx, func(r *repository.Repositories) error {
		current, err := r.Jobs.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: вакансия '%s' не найдена", ErrNotFound, id)
			}
			return fmt.Errorf("получение вакансии: %w", err)
		}

		if patch.Title != nil {
			current.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Requirements != nil {
			current.Requirements = cleanList(*patch.Requirements)
		}
		if patch.Status != nil {
			current.Status = *patch.Status
		}
		if err := validateJob(current); err != nil {
			return err
		}

		if err := r.Jobs.Update(ctx, current); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: вакансия '%s' не найдена", ErrNotFound, id)
			}
			return fmt.Errorf("обновление вакансии: %w", err)
		}
		j = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Вакансия обновлена", slog.String("job_id", id))
	return j, nil
}

// Delete удаляет вакансию вместе с её сопоставлениями.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: вакансия '%s' не найдена", ErrNotFound, id)
		}
		return fmt.Errorf("удаление вакансии: %w", err)
	}

	s.logger.Info("Вакансия удалена", slog.String("job_id", id))
	return nil
}

func validateJob(j *model.Job) error {
	if j.Title == "" {
		return fmt.Errorf("%w: название вакансии не может быть пустым", ErrValidation)
	}
	if len(j.Title) > 255 {
		return fmt.Errorf("%w: название вакансии длиннее 255 символов", ErrValidation)
	}
	if !j.Status.Valid() {
		return fmt.Errorf("%w: недопустимый статус %q", ErrValidation, j.Status)
	}
	return nil
}

// cleanList обрезает пробелы и убирает пустые элементы, сохраняя порядок.
func cleanList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			result = append(result, it)
		}
	}
	return result
}
