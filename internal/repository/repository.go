// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrInvalidSort — недопустимый ключ сортировки.
	ErrInvalidSort = errors.New("недопустимый ключ сортировки")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories — набор репозиториев, работающих через один DBTX.
type Repositories struct {
	CVUploads  CVUploadRepository
	Candidates CandidateRepository
	Jobs       JobRepository
	Matches    MatchRepository
}

// NewRepositories создаёт набор репозиториев поверх пула или транзакции.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		CVUploads:  NewCVUploadRepository(db),
		Candidates: NewCandidateRepository(db),
		Jobs:       NewJobRepository(db),
		Matches:    NewMatchRepository(db),
	}
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается.
// При успехе — коммитится.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// InTx выполняет fn с набором репозиториев, привязанных к одной транзакции.
func (r *TxRunner) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	return r.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// SortKeys — допустимые ключи сортировки: ключ API → выражение ORDER BY.
type SortKeys map[string]string

// Допустимые сортировки по сущностям.
var (
	CVUploadSortKeys = SortKeys{
		"uploaded_at":        "uploaded_at ASC, id ASC",
		"-uploaded_at":       "uploaded_at DESC, id DESC",
		"original_filename":  "original_filename ASC, id ASC",
		"-original_filename": "original_filename DESC, id DESC",
		"size":               "size ASC, id ASC",
		"-size":              "size DESC, id DESC",
	}
	CandidateSortKeys = SortKeys{
		"parsed_at":         "parsed_at ASC, id ASC",
		"-parsed_at":        "parsed_at DESC, id DESC",
		"name":              "name ASC, id ASC",
		"-name":             "name DESC, id DESC",
		"experience_years":  "experience_years ASC, id ASC",
		"-experience_years": "experience_years DESC, id DESC",
	}
	JobSortKeys = SortKeys{
		"created_at":  "created_at ASC, id ASC",
		"-created_at": "created_at DESC, id DESC",
		"title":       "title ASC, id ASC",
		"-title":      "title DESC, id DESC",
	}
	MatchSortKeys = SortKeys{
		"score":       "m.score ASC, m.id ASC",
		"-score":      "m.score DESC, m.id DESC",
		"matched_at":  "m.matched_at ASC, m.id ASC",
		"-matched_at": "m.matched_at DESC, m.id DESC",
	}
)

// Сортировки по умолчанию.
const (
	DefaultCVUploadSort  = "-uploaded_at"
	DefaultCandidateSort = "-parsed_at"
	DefaultJobSort       = "-created_at"
	DefaultMatchSort     = "-score"
)

// OrderBy возвращает выражение ORDER BY для ключа sort.
// Пустой ключ заменяется на def.
func (k SortKeys) OrderBy(sort, def string) (string, error) {
	if sort == "" {
		sort = def
	}
	expr, ok := k[sort]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, sort)
	}
	return expr, nil
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в %...%.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// whereClause собирает условия в WHERE.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}

// nonNil возвращает пустой срез вместо nil (NOT NULL для TEXT[]).
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
