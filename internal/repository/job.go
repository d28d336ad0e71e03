package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// JobRepository — интерфейс CRUD для таблицы jobs.
type JobRepository interface {
	Create(ctx context.Context, j *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// GetForUpdate возвращает вакансию и блокирует строку до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (*model.Job, error)
	// Update перезаписывает название, требования и статус.
	Update(ctx context.Context, j *model.Job) error
	// Delete удаляет вакансию (каскадно удаляет её сопоставления).
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.JobFilter, params model.ListParams) ([]*model.Job, error)
	Count(ctx context.Context, filter model.JobFilter) (int, error)
	// ListActive возвращает все активные вакансии.
	ListActive(ctx context.Context) ([]*model.Job, error)
}

type jobRepo struct {
	db DBTX
}

// NewJobRepository создаёт репозиторий вакансий.
func NewJobRepository(db DBTX) JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, title, requirements, status, created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	j := &model.Job{}
	var status string
	err := row.Scan(&j.ID, &j.Title, &j.Requirements, &status, &j.CreatedAt, &j.UpdatedAt)
	j.Status = model.Status(status)
	return j, err
}

func (r *jobRepo) Create(ctx context.Context, j *model.Job) error {
	query := `
		INSERT INTO jobs (id, title, requirements, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, j.ID, j.Title, nonNil(j.Requirements), string(j.Status)).
		Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: вакансия с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания вакансии: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	return r.get(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
}

func (r *jobRepo) GetForUpdate(ctx context.Context, id string) (*model.Job, error) {
	return r.get(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
}

func (r *jobRepo) get(ctx context.Context, query string, id string) (*model.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения вакансии: %w", err)
	}
	return j, nil
}

func (r *jobRepo) Update(ctx context.Context, j *model.Job) error {
	query := `
		UPDATE jobs
		SET title = $2, requirements = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, j.ID, j.Title, nonNil(j.Requirements), string(j.Status)).
		Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления вакансии: %w", err)
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления вакансии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildJobWhere строит WHERE-условие и аргументы для фильтрации вакансий.
func buildJobWhere(filter model.JobFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(requirements) AS rq WHERE rq ILIKE $%d))", n, n))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	return whereClause(conditions), args
}

func (r *jobRepo) List(ctx context.Context, filter model.JobFilter, params model.ListParams) ([]*model.Job, error) {
	orderBy, err := JobSortKeys.OrderBy(params.Sort, DefaultJobSort)
	if err != nil {
		return nil, err
	}

	where, args := buildJobWhere(filter)
	argNum := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobColumns, where, orderBy, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	return r.query(ctx, query, args...)
}

func (r *jobRepo) Count(ctx context.Context, filter model.JobFilter) (int, error) {
	where, args := buildJobWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта вакансий: %w", err)
	}
	return count, nil
}

func (r *jobRepo) ListActive(ctx context.Context) ([]*model.Job, error) {
	return r.query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = 'active' ORDER BY id`)
}

func (r *jobRepo) query(ctx context.Context, query string, args ...any) ([]*model.Job, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка вакансий: %w", err)
	}
	defer rows.Close()

	var result []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования вакансии: %w", err)
		}
		result = append(result, j)
	}
	return result, rows.Err()
}
