// reconcile.go — оркестратор сверки: разбор CV в кандидата (Parse)
// и сопоставление кандидата с вакансией (Match). Каждая операция —
// create-or-update в одной транзакции.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/domain/scoring"
	"github.com/bigkaa/skillmatch/internal/extraction"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// PathResolver возвращает путь к файлу CV на диске.
type PathResolver interface {
	FullPath(storagePath string) string
}

// ReconcileService — оркестратор разбора CV и сопоставлений.
type ReconcileService struct {
	uploads   repository.CVUploadRepository
	tx        TxRunner
	extractor extraction.Extractor
	files     PathResolver
	timeout   time.Duration
	logger    *slog.Logger
}

// NewReconcileService создаёт оркестратор. timeout ограничивает
// длительность извлечения (0 — без ограничения).
func NewReconcileService(
	uploads repository.CVUploadRepository,
	tx TxRunner,
	extractor extraction.Extractor,
	files PathResolver,
	timeout time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		uploads:   uploads,
		tx:        tx,
		extractor: extractor,
		files:     files,
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "reconcile_service")),
	}
}

// Parse извлекает атрибуты кандидата из загруженного CV и создаёт
// кандидата либо обновляет существующего, созданного из того же CV.
func (s *ReconcileService) Parse(ctx context.Context, cvUploadID string) (*model.Candidate, model.UpsertResult, error) {
	if err := validateID("cv_upload_id", cvUploadID); err != nil {
		return nil, "", err
	}

	upload, err := s.uploads.GetByID(ctx, cvUploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: загрузка CV '%s' не найдена", ErrNotFound, cvUploadID)
		}
		return nil, "", fmt.Errorf("получение загрузки CV: %w", err)
	}

	// Извлечение может быть долгим, поэтому выполняется вне транзакции.
	attrs, err := s.extract(ctx, upload)
	if err != nil {
		parseTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Ошибка извлечения данных из CV",
			slog.String("cv_upload_id", cvUploadID),
			slog.String("error", err.Error()),
		)
		return nil, "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	var (
		candidate *model.Candidate
		result    model.UpsertResult
	)
	err = s.tx.InTx(ctx, func(r *repository.Repositories) error {
		if _, err := r.CVUploads.GetForUpdate(ctx, cvUploadID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: загрузка CV '%s' не найдена", ErrNotFound, cvUploadID)
			}
			return fmt.Errorf("блокировка загрузки CV: %w", err)
		}

		existing, err := r.Candidates.GetBySourceCV(ctx, cvUploadID)
		switch {
		case err == nil:
			existing.Name = attrs.Name
			existing.Skills = attrs.Skills
			existing.ExperienceYears = attrs.ExperienceYears
			if err := r.Candidates.UpdateAttributes(ctx, existing); err != nil {
				return fmt.Errorf("обновление кандидата: %w", err)
			}
			candidate, result = existing, model.ResultUpdated
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("поиск кандидата по CV: %w", err)
		}

		c := &model.Candidate{
			ID:              uuid.New().String(),
			Name:            attrs.Name,
			Skills:          attrs.Skills,
			ExperienceYears: attrs.ExperienceYears,
			SourceCVID:      cvUploadID,
			Status:          model.StatusActive,
		}
		if err := r.Candidates.Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: кандидат для CV '%s' уже существует", ErrConflict, cvUploadID)
			}
			return fmt.Errorf("создание кандидата: %w", err)
		}
		candidate, result = c, model.ResultCreated
		return nil
	})
	if err != nil {
		parseTotal.WithLabelValues("error").Inc()
		return nil, "", err
	}

	parseTotal.WithLabelValues(string(result)).Inc()
	s.logger.Info("CV разобран",
		slog.String("cv_upload_id", cvUploadID),
		slog.String("candidate_id", candidate.ID),
		slog.String("result", string(result)),
		slog.Int("skills", len(candidate.Skills)),
	)
	return candidate, result, nil
}

func (s *ReconcileService) extract(ctx context.Context, upload *model.CVUpload) (*model.CandidateAttributes, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.extractor.Extract(ctx, extraction.Document{
		UploadID:         upload.ID,
		Path:             s.files.FullPath(upload.FilePath),
		OriginalFilename: upload.OriginalFilename,
		Checksum:         upload.Checksum,
	})
}

// Match создаёт сопоставление кандидата с вакансией. Если сопоставление
// уже есть, при recalculate оценка пересчитывается, иначе возвращается
// как есть; результат в обоих случаях ResultExisting.
func (s *ReconcileService) Match(ctx context.Context, candidateID, jobID string, recalculate bool) (*model.Match, model.UpsertResult, error) {
	if err := validateID("candidate_id", candidateID); err != nil {
		return nil, "", err
	}
	if err := validateID("job_id", jobID); err != nil {
		return nil, "", err
	}

	var (
		match  *model.Match
		result model.UpsertResult
	)
	err := s.tx.InTx(ctx, func(r *repository.Repositories) error {
		candidate, err := r.Candidates.GetByID(ctx, candidateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: кандидат '%s' не найден", ErrNotFound, candidateID)
			}
			return fmt.Errorf("получение кандидата: %w", err)
		}
		job, err := r.Jobs.GetByID(ctx, jobID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: вакансия '%s' не найдена", ErrNotFound, jobID)
			}
			return fmt.Errorf("получение вакансии: %w", err)
		}

		match, result, err = upsertPair(ctx, r, candidate, job, recalculate)
		return err
	})
	if err != nil {
		matchUpsertsTotal.WithLabelValues("error").Inc()
		return nil, "", err
	}

	matchUpsertsTotal.WithLabelValues(string(result)).Inc()
	s.logger.Debug("Сопоставление выполнено",
		slog.String("candidate_id", candidateID),
		slog.String("job_id", jobID),
		slog.String("result", string(result)),
		slog.Float64("score", match.Score),
	)
	return match, result, nil
}

// upsertPair создаёт или пересчитывает сопоставление пары внутри
// транзакции r. Пара сериализуется advisory-блокировкой.
func upsertPair(
	ctx context.Context,
	r *repository.Repositories,
	candidate *model.Candidate,
	job *model.Job,
	recalculate bool,
) (*model.Match, model.UpsertResult, error) {
	if err := r.Matches.LockPair(ctx, candidate.ID, job.ID); err != nil {
		return nil, "", err
	}

	existing, err := r.Matches.GetByPair(ctx, candidate.ID, job.ID)
	switch {
	case err == nil:
		if !recalculate {
			return existing, model.ResultExisting, nil
		}
		res := scoring.Score(candidate.Skills, job.Requirements)
		existing.Score = res.Score
		existing.Rationale = res.Rationale
		if err := r.Matches.UpdateScore(ctx, existing); err != nil {
			return nil, "", fmt.Errorf("обновление сопоставления: %w", err)
		}
		return existing, model.ResultExisting, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("поиск сопоставления: %w", err)
	}

	res := scoring.Score(candidate.Skills, job.Requirements)
	m := &model.Match{
		ID:          uuid.New().String(),
		CandidateID: candidate.ID,
		JobID:       job.ID,
		Score:       res.Score,
		Rationale:   res.Rationale,
	}
	if err := r.Matches.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%w: сопоставление %s/%s уже существует", ErrConflict, candidate.ID, job.ID)
		}
		return nil, "", fmt.Errorf("создание сопоставления: %w", err)
	}
	return m, model.ResultCreated, nil
}
