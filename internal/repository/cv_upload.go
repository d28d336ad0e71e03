package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// CVUploadRepository — интерфейс CRUD для таблицы cv_uploads.
type CVUploadRepository interface {
	// Create сохраняет запись о загруженном файле.
	Create(ctx context.Context, u *model.CVUpload) error
	// GetByID возвращает загрузку по UUID.
	GetByID(ctx context.Context, id string) (*model.CVUpload, error)
	// GetForUpdate возвращает загрузку и блокирует строку до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (*model.CVUpload, error)
	// List возвращает страницу загрузок.
	List(ctx context.Context, params model.ListParams) ([]*model.CVUpload, error)
	// Count возвращает общее количество загрузок.
	Count(ctx context.Context) (int, error)
	// Delete удаляет загрузку (каскадно удаляет кандидата).
	Delete(ctx context.Context, id string) error
}

type cvUploadRepo struct {
	db DBTX
}

// NewCVUploadRepository создаёт репозиторий загрузок CV.
func NewCVUploadRepository(db DBTX) CVUploadRepository {
	return &cvUploadRepo{db: db}
}

const cvUploadColumns = `id, file_path, original_filename, content_type, size, checksum, uploaded_at`

func scanCVUpload(row pgx.Row) (*model.CVUpload, error) {
	u := &model.CVUpload{}
	err := row.Scan(&u.ID, &u.FilePath, &u.OriginalFilename, &u.ContentType,
		&u.Size, &u.Checksum, &u.UploadedAt)
	return u, err
}

func (r *cvUploadRepo) Create(ctx context.Context, u *model.CVUpload) error {
	query := `
		INSERT INTO cv_uploads (id, file_path, original_filename, content_type, size, checksum)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING uploaded_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.FilePath, u.OriginalFilename, u.ContentType, u.Size, u.Checksum,
	).Scan(&u.UploadedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: загрузка с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения загрузки CV: %w", err)
	}
	return nil
}

func (r *cvUploadRepo) GetByID(ctx context.Context, id string) (*model.CVUpload, error) {
	return r.get(ctx, `SELECT `+cvUploadColumns+` FROM cv_uploads WHERE id = $1`, id)
}

func (r *cvUploadRepo) GetForUpdate(ctx context.Context, id string) (*model.CVUpload, error) {
	return r.get(ctx, `SELECT `+cvUploadColumns+` FROM cv_uploads WHERE id = $1 FOR UPDATE`, id)
}

func (r *cvUploadRepo) get(ctx context.Context, query, id string) (*model.CVUpload, error) {
	u, err := scanCVUpload(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения загрузки CV: %w", err)
	}
	return u, nil
}

func (r *cvUploadRepo) List(ctx context.Context, params model.ListParams) ([]*model.CVUpload, error) {
	orderBy, err := CVUploadSortKeys.OrderBy(params.Sort, DefaultCVUploadSort)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM cv_uploads ORDER BY %s LIMIT $1 OFFSET $2`,
		cvUploadColumns, orderBy)

	rows, err := r.db.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка загрузок CV: %w", err)
	}
	defer rows.Close()

	var result []*model.CVUpload
	for rows.Next() {
		u, err := scanCVUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования загрузки CV: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *cvUploadRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cv_uploads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта загрузок CV: %w", err)
	}
	return count, nil
}

func (r *cvUploadRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cv_uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления загрузки CV: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
