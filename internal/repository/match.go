package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// MatchRepository — интерфейс доступа к таблице matches.
type MatchRepository interface {
	// LockPair берёт транзакционную advisory-блокировку пары (кандидат, вакансия).
	// Действует только внутри транзакции.
	LockPair(ctx context.Context, candidateID, jobID string) error
	// Create создаёт сопоставление. Повтор пары → ErrConflict.
	Create(ctx context.Context, m *model.Match) error
	GetByID(ctx context.Context, id string) (*model.Match, error)
	// GetByPair возвращает сопоставление пары или ErrNotFound.
	GetByPair(ctx context.Context, candidateID, jobID string) (*model.Match, error)
	// UpdateScore обновляет оценку и обоснование.
	UpdateScore(ctx context.Context, m *model.Match) error
	// List возвращает страницу сопоставлений с именем кандидата и названием вакансии.
	List(ctx context.Context, filter model.MatchFilter, params model.ListParams) ([]*model.MatchDetail, error)
	Count(ctx context.Context, filter model.MatchFilter) (int, error)
}

type matchRepo struct {
	db DBTX
}

// NewMatchRepository создаёт репозиторий сопоставлений.
func NewMatchRepository(db DBTX) MatchRepository {
	return &matchRepo{db: db}
}

const matchColumns = `id, candidate_id, job_id, score, rationale, matched_at, updated_at`

func scanMatch(row pgx.Row) (*model.Match, error) {
	m := &model.Match{}
	err := row.Scan(&m.ID, &m.CandidateID, &m.JobID, &m.Score, &m.Rationale, &m.MatchedAt, &m.UpdatedAt)
	return m, err
}

func (r *matchRepo) LockPair(ctx context.Context, candidateID, jobID string) error {
	_, err := r.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
		candidateID, jobID)
	if err != nil {
		return fmt.Errorf("ошибка блокировки пары %s/%s: %w", candidateID, jobID, err)
	}
	return nil
}

func (r *matchRepo) Create(ctx context.Context, m *model.Match) error {
	query := `
		INSERT INTO matches (id, candidate_id, job_id, score, rationale)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING matched_at, updated_at`

	err := r.db.QueryRow(ctx, query, m.ID, m.CandidateID, m.JobID, m.Score, m.Rationale).
		Scan(&m.MatchedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: сопоставление %s/%s уже существует", ErrConflict, m.CandidateID, m.JobID)
		}
		return fmt.Errorf("ошибка создания сопоставления: %w", err)
	}
	return nil
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.Match, error) {
	return r.get(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
}

func (r *matchRepo) GetByPair(ctx context.Context, candidateID, jobID string) (*model.Match, error) {
	return r.get(ctx, `SELECT `+matchColumns+` FROM matches WHERE candidate_id = $1 AND job_id = $2`,
		candidateID, jobID)
}

func (r *matchRepo) get(ctx context.Context, query string, args ...any) (*model.Match, error) {
	m, err := scanMatch(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения сопоставления: %w", err)
	}
	return m, nil
}

func (r *matchRepo) UpdateScore(ctx context.Context, m *model.Match) error {
	query := `
		UPDATE matches
		SET score = $2, rationale = $3, updated_at = now()
		WHERE id = $1
		RETURNING matched_at, updated_at`

	err := r.db.QueryRow(ctx, query, m.ID, m.Score, m.Rationale).Scan(&m.MatchedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления сопоставления: %w", err)
	}
	return nil
}

// buildMatchWhere строит WHERE-условие и аргументы для фильтрации сопоставлений.
func buildMatchWhere(filter model.MatchFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.CandidateID != "" {
		args = append(args, filter.CandidateID)
		conditions = append(conditions, fmt.Sprintf("m.candidate_id = $%d", len(args)))
	}
	if filter.JobID != "" {
		args = append(args, filter.JobID)
		conditions = append(conditions, fmt.Sprintf("m.job_id = $%d", len(args)))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		conditions = append(conditions, fmt.Sprintf("m.score >= $%d", len(args)))
	}
	return whereClause(conditions), args
}

func (r *matchRepo) List(ctx context.Context, filter model.MatchFilter, params model.ListParams) ([]*model.MatchDetail, error) {
	orderBy, err := MatchSortKeys.OrderBy(params.Sort, DefaultMatchSort)
	if err != nil {
		return nil, err
	}

	where, args := buildMatchWhere(filter)
	argNum := len(args) + 1
	query := fmt.Sprintf(`
		SELECT m.id, m.candidate_id, m.job_id, m.score, m.rationale, m.matched_at, m.updated_at,
			c.name, j.title
		FROM matches m
		JOIN candidates c ON c.id = m.candidate_id
		JOIN jobs j ON j.id = m.job_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, where, orderBy, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сопоставлений: %w", err)
	}
	defer rows.Close()

	var result []*model.MatchDetail
	for rows.Next() {
		d := &model.MatchDetail{}
		if err := rows.Scan(&d.ID, &d.CandidateID, &d.JobID, &d.Score, &d.Rationale,
			&d.MatchedAt, &d.UpdatedAt, &d.CandidateName, &d.JobTitle); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сопоставления: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *matchRepo) Count(ctx context.Context, filter model.MatchFilter) (int, error) {
	where, args := buildMatchWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM matches m `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сопоставлений: %w", err)
	}
	return count, nil
}
