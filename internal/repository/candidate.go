package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// CandidateRepository — интерфейс CRUD для таблицы candidates.
type CandidateRepository interface {
	// Create создаёт кандидата. Повтор source_cv_id → ErrConflict.
	Create(ctx context.Context, c *model.Candidate) error
	// GetByID возвращает кандидата по UUID.
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
	// GetBySourceCV возвращает кандидата, созданного из указанного CV.
	GetBySourceCV(ctx context.Context, cvUploadID string) (*model.Candidate, error)
	// UpdateAttributes обновляет имя, навыки и опыт (результат повторного разбора).
	UpdateAttributes(ctx context.Context, c *model.Candidate) error
	// Patch частично обновляет контактные данные и статус.
	Patch(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error)
	// List возвращает страницу кандидатов с фильтрацией.
	List(ctx context.Context, filter model.CandidateFilter, params model.ListParams) ([]*model.Candidate, error)
	// Count возвращает количество кандидатов с фильтрацией.
	Count(ctx context.Context, filter model.CandidateFilter) (int, error)
	// ListActive возвращает всех активных кандидатов.
	ListActive(ctx context.Context) ([]*model.Candidate, error)
}

type candidateRepo struct {
	db DBTX
}

// NewCandidateRepository создаёт репозиторий кандидатов.
func NewCandidateRepository(db DBTX) CandidateRepository {
	return &candidateRepo{db: db}
}

const candidateColumns = `id, name, email, phone, skills, experience_years, source_cv_id, status, parsed_at, updated_at`

func scanCandidate(row pgx.Row) (*model.Candidate, error) {
	c := &model.Candidate{}
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Skills, &c.ExperienceYears,
		&c.SourceCVID, &status, &c.ParsedAt, &c.UpdatedAt)
	c.Status = model.Status(status)
	return c, err
}

func (r *candidateRepo) Create(ctx context.Context, c *model.Candidate) error {
	query := `
		INSERT INTO candidates (id, name, email, phone, skills, experience_years, source_cv_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING parsed_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, nonNil(c.Skills), c.ExperienceYears,
		c.SourceCVID, string(c.Status),
	).Scan(&c.ParsedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: кандидат для CV %s уже существует", ErrConflict, c.SourceCVID)
		}
		return fmt.Errorf("ошибка создания кандидата: %w", err)
	}
	return nil
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	return r.get(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
}

func (r *candidateRepo) GetBySourceCV(ctx context.Context, cvUploadID string) (*model.Candidate, error) {
	return r.get(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE source_cv_id = $1`, cvUploadID)
}

func (r *candidateRepo) get(ctx context.Context, query string, arg string) (*model.Candidate, error) {
	c, err := scanCandidate(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения кандидата: %w", err)
	}
	return c, nil
}

func (r *candidateRepo) UpdateAttributes(ctx context.Context, c *model.Candidate) error {
	query := `
		UPDATE candidates
		SET name = $2, skills = $3, experience_years = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, c.ID, c.Name, nonNil(c.Skills), c.ExperienceYears).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления кандидата: %w", err)
	}
	return nil
}

func (r *candidateRepo) Patch(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE candidates
		SET email = COALESCE($2, email),
			phone = COALESCE($3, phone),
			status = COALESCE($4, status),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + candidateColumns

	c, err := scanCandidate(r.db.QueryRow(ctx, query, id, patch.Email, patch.Phone, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления кандидата: %w", err)
	}
	return c, nil
}

// buildCandidateWhere строит WHERE-условие и аргументы для фильтрации кандидатов.
func buildCandidateWhere(filter model.CandidateFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(skills) AS s WHERE s ILIKE $%d))", n, n))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	return whereClause(conditions), args
}

func (r *candidateRepo) List(ctx context.Context, filter model.CandidateFilter, params model.ListParams) ([]*model.Candidate, error) {
	orderBy, err := CandidateSortKeys.OrderBy(params.Sort, DefaultCandidateSort)
	if err != nil {
		return nil, err
	}

	where, args := buildCandidateWhere(filter)
	argNum := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM candidates %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		candidateColumns, where, orderBy, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	return r.query(ctx, query, args...)
}

func (r *candidateRepo) Count(ctx context.Context, filter model.CandidateFilter) (int, error) {
	where, args := buildCandidateWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM candidates `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта кандидатов: %w", err)
	}
	return count, nil
}

func (r *candidateRepo) ListActive(ctx context.Context) ([]*model.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE status = 'active' ORDER BY id`
	return r.query(ctx, query)
}

func (r *candidateRepo) query(ctx context.Context, query string, args ...any) ([]*model.Candidate, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка кандидатов: %w", err)
	}
	defer rows.Close()

	var result []*model.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования кандидата: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
