package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/skillmatch/internal/config"
	"github.com/bigkaa/skillmatch/internal/database"
	"github.com/bigkaa/skillmatch/internal/extraction"
	"github.com/bigkaa/skillmatch/internal/repository"
	"github.com/bigkaa/skillmatch/internal/service"
	"github.com/bigkaa/skillmatch/internal/storage/filestore"
)

// application — собранный граф зависимостей: пул БД, хранилище и сервисы.
type application struct {
	pool       *pgxpool.Pool
	files      *filestore.FileStore
	cvUploads  *service.CVUploadService
	candidates *service.CandidateService
	jobs       *service.JobService
	matches    *service.MatchService
	reconcile  *service.ReconcileService
	bulk       *service.BulkMatchService
}

// newApplication применяет миграции, подключается к PostgreSQL
// и создаёт сервисный слой.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	// 1. Миграции БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return nil, fmt.Errorf("миграции БД: %w", err)
	}

	// 2. Пул подключений
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// 3. Файловое хранилище CV
	files, err := filestore.New(cfg.DataDir, cfg.UploadMaxSize)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("файловое хранилище: %w", err)
	}

	// 4. Экстрактор атрибутов кандидата
	extractor, err := extraction.New(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// 5. Repositories
	uploadRepo := repository.NewCVUploadRepository(pool)
	candidateRepo := repository.NewCandidateRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	tx := repository.NewTxRunner(pool)

	// 6. Services
	return &application{
		pool:       pool,
		files:      files,
		cvUploads:  service.NewCVUploadService(uploadRepo, files, cfg.UploadAllowedExtensions, logger),
		candidates: service.NewCandidateService(candidateRepo, logger),
		jobs:       service.NewJobService(jobRepo, tx, logger),
		matches:    service.NewMatchService(matchRepo, candidateRepo, jobRepo, logger),
		reconcile:  service.NewReconcileService(uploadRepo, tx, extractor, files, cfg.ExtractionTimeout, logger),
		bulk:       service.NewBulkMatchService(candidateRepo, jobRepo, tx, cfg.MatchWorkers, logger),
	}, nil
}

// Close освобождает пул подключений.
func (a *application) Close() {
	a.pool.Close()
}
