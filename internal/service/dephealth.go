// dephealth.go — мониторинг PostgreSQL через topologymetrics SDK.
//
// Проверка идёт SQL-запросом через существующий pgxpool (адаптер
// stdlib.OpenDBFromPool), поэтому исчерпание пула тоже видно как сбой.
// Метрики app_dependency_* публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
)

// DependencyPostgres — имя зависимости PostgreSQL в графе topologymetrics.
const DependencyPostgres = "postgresql"

// DephealthConfig — параметры мониторинга зависимостей.
type DephealthConfig struct {
	// ServiceID — имя вершины графа (skillmatch)
	ServiceID string
	// Group — группа в метриках (SM_DEPHEALTH_GROUP)
	Group string
	// PGConnURL — URL PostgreSQL только для меток host/port
	PGConnURL string
	// CheckInterval — интервал проверки (SM_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
}

// DephealthService — мониторинг зависимостей SkillMatch.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт мониторинг PostgreSQL. Дополнительные opts
// передаются в SDK (например dephealth.WithRegisterer в тестах).
func NewDephealthService(
	cfg DephealthConfig,
	db *sql.DB,
	logger *slog.Logger,
	opts ...dephealth.Option,
) (*DephealthService, error) {
	if db == nil {
		return nil, errors.New("dephealth: *sql.DB не задан")
	}

	all := append([]dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency(DependencyPostgres, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(cfg.PGConnURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		),
	}, opts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, all...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh: dh,
		logger: logger.With(
			slog.String("component", "dephealth"),
			slog.String("group", cfg.Group),
		),
	}, nil
}

// Start запускает периодические проверки.
func (ds *DephealthService) Start(ctx context.Context) error {
	if err := ds.dh.Start(ctx); err != nil {
		return err
	}
	ds.logger.Info("Мониторинг PostgreSQL запущен")
	return nil
}

// Stop останавливает проверки.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг PostgreSQL остановлен")
}

// PostgresHealthy сообщает, прошла ли последняя проверка PostgreSQL.
// Ключи Health() SDK имеют вид "postgresql:host:port".
func (ds *DephealthService) PostgresHealthy() bool {
	found := false
	for key, ok := range ds.dh.Health() {
		if key != DependencyPostgres && !strings.HasPrefix(key, DependencyPostgres+":") {
			continue
		}
		found = true
		if !ok {
			return false
		}
	}
	return found
}
