package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/skillmatch/internal/config"
	"github.com/bigkaa/skillmatch/internal/database"
	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("skillmatch_test"),
		postgres.WithUsername("skillmatch"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("SM_DB_HOST", host)
	t.Setenv("SM_DB_PORT", port.Port())
	t.Setenv("SM_DB_NAME", "skillmatch_test")
	t.Setenv("SM_DB_USER", "skillmatch")
	t.Setenv("SM_DB_PASSWORD", "test-password")
	t.Setenv("SM_DB_SSL_MODE", "disable")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// createUpload создаёт тестовую загрузку CV.
func createUpload(t *testing.T, repos *Repositories) *model.CVUpload {
	t.Helper()
	u := &model.CVUpload{
		ID:               uuid.New().String(),
		FilePath:         "cv_" + uuid.New().String()[:8] + ".pdf",
		OriginalFilename: "cv.pdf",
		ContentType:      "application/pdf",
		Size:             1024,
		Checksum:         "abc",
	}
	if err := repos.CVUploads.Create(context.Background(), u); err != nil {
		t.Fatalf("CVUploads.Create() ошибка: %v", err)
	}
	return u
}

func TestCandidateUniquePerCV(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := NewRepositories(pool)

	u := createUpload(t, repos)

	c := &model.Candidate{
		ID:              uuid.New().String(),
		Name:            "Jane Doe",
		Skills:          []string{"Python", "Django"},
		ExperienceYears: 5,
		SourceCVID:      u.ID,
		Status:          model.StatusActive,
	}
	if err := repos.Candidates.Create(ctx, c); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Второй кандидат на тот же CV — конфликт
	dup := *c
	dup.ID = uuid.New().String()
	if err := repos.Candidates.Create(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидался ErrConflict, получено: %v", err)
	}

	got, err := repos.Candidates.GetBySourceCV(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetBySourceCV() ошибка: %v", err)
	}
	if got.ID != c.ID || got.Status != model.StatusActive {
		t.Errorf("получен кандидат %s (%s), ожидался %s (active)", got.ID, got.Status, c.ID)
	}

	got.Skills = []string{"Go"}
	got.ExperienceYears = 7
	if err := repos.Candidates.UpdateAttributes(ctx, got); err != nil {
		t.Fatalf("UpdateAttributes() ошибка: %v", err)
	}

	inactive := model.StatusInactive
	patched, err := repos.Candidates.Patch(ctx, c.ID, model.CandidatePatch{Status: &inactive})
	if err != nil {
		t.Fatalf("Patch() ошибка: %v", err)
	}
	if patched.Status != model.StatusInactive || patched.ExperienceYears != 7 {
		t.Errorf("после Patch: status=%s experience=%d", patched.Status, patched.ExperienceYears)
	}

	active, err := repos.Candidates.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() ошибка: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListActive() вернул %d, ожидалось 0", len(active))
	}

	// Удаление CV каскадно удаляет кандидата
	if err := repos.CVUploads.Delete(ctx, u.ID); err != nil {
		t.Fatalf("CVUploads.Delete() ошибка: %v", err)
	}
	if _, err := repos.Candidates.GetByID(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound после удаления CV, получено: %v", err)
	}
}

func TestCandidateSearch(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := NewRepositories(pool)

	for _, tc := range []struct {
		name   string
		skills []string
	}{
		{"Alice", []string{"Go", "PostgreSQL"}},
		{"Bob", []string{"Python"}},
	} {
		u := createUpload(t, repos)
		c := &model.Candidate{
			ID: uuid.New().String(), Name: tc.name, Skills: tc.skills,
			SourceCVID: u.ID, Status: model.StatusActive,
		}
		if err := repos.Candidates.Create(ctx, c); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}

	list, err := repos.Candidates.List(ctx, model.CandidateFilter{Search: "postgres"},
		model.ListParams{Limit: 10, Sort: "name"})
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Alice" {
		t.Errorf("поиск по навыку вернул %d записей", len(list))
	}

	count, err := repos.Candidates.Count(ctx, model.CandidateFilter{Search: "bo"})
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, ожидалось 1", count)
	}

	if _, err := repos.Candidates.List(ctx, model.CandidateFilter{}, model.ListParams{Limit: 10, Sort: "email"}); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("ожидался ErrInvalidSort, получено: %v", err)
	}
}

func TestMatchPairUniqueAndTx(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := NewRepositories(pool)
	tx := NewTxRunner(pool)

	u := createUpload(t, repos)
	c := &model.Candidate{
		ID: uuid.New().String(), Name: "Jane", Skills: []string{"Go"},
		SourceCVID: u.ID, Status: model.StatusActive,
	}
	if err := repos.Candidates.Create(ctx, c); err != nil {
		t.Fatalf("Candidates.Create() ошибка: %v", err)
	}
	j := &model.Job{ID: uuid.New().String(), Title: "Dev", Requirements: []string{"Go", "SQL"}, Status: model.StatusActive}
	if err := repos.Jobs.Create(ctx, j); err != nil {
		t.Fatalf("Jobs.Create() ошибка: %v", err)
	}

	m := &model.Match{ID: uuid.New().String(), CandidateID: c.ID, JobID: j.ID, Score: 50, Rationale: "r"}
	err := tx.InTx(ctx, func(r *Repositories) error {
		if err := r.Matches.LockPair(ctx, c.ID, j.ID); err != nil {
			return err
		}
		return r.Matches.Create(ctx, m)
	})
	if err != nil {
		t.Fatalf("InTx() ошибка: %v", err)
	}

	dup := &model.Match{ID: uuid.New().String(), CandidateID: c.ID, JobID: j.ID, Score: 10}
	if err := repos.Matches.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидался ErrConflict, получено: %v", err)
	}

	// Ошибка внутри транзакции откатывает изменения
	sentinel := errors.New("rollback")
	err = tx.InTx(ctx, func(r *Repositories) error {
		m.Score = 99
		if err := r.Matches.UpdateScore(ctx, m); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("ожидалась sentinel-ошибка, получено: %v", err)
	}
	got, err := repos.Matches.GetByPair(ctx, c.ID, j.ID)
	if err != nil {
		t.Fatalf("GetByPair() ошибка: %v", err)
	}
	if got.Score != 50 {
		t.Errorf("Score = %v после отката, ожидалось 50", got.Score)
	}

	list, err := repos.Matches.List(ctx, model.MatchFilter{JobID: j.ID}, model.ListParams{Limit: 10})
	if err != nil {
		t.Fatalf("Matches.List() ошибка: %v", err)
	}
	if len(list) != 1 || list[0].CandidateName != "Jane" || list[0].JobTitle != "Dev" {
		t.Errorf("Matches.List() вернул неожиданный результат: %+v", list)
	}

	// Удаление вакансии каскадно удаляет сопоставления
	if err := repos.Jobs.Delete(ctx, j.ID); err != nil {
		t.Fatalf("Jobs.Delete() ошибка: %v", err)
	}
	if _, err := repos.Matches.GetByID(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получено: %v", err)
	}
}
