package cli

import (
	"context"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/bigkaa/skillmatch/internal/api/handlers"
	"github.com/bigkaa/skillmatch/internal/api/middleware"
	"github.com/bigkaa/skillmatch/internal/api/openapi"
	"github.com/bigkaa/skillmatch/internal/config"
	"github.com/bigkaa/skillmatch/internal/database"
	"github.com/bigkaa/skillmatch/internal/server"
	"github.com/bigkaa/skillmatch/internal/service"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("SkillMatch запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("extractor", cfg.Extractor),
	)

	a, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации", slog.String("error", err.Error()))
		return err
	}
	defer a.Close()

	// Адаптер pgxpool → *sql.DB для topologymetrics: проверка идёт
	// через общий пул соединений.
	pgDB := stdlib.OpenDBFromPool(a.pool)
	defer pgDB.Close()

	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     app,
		Group:         cfg.DephealthGroup,
		PGConnURL:     cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, pgDB, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(a.pool), openapi.Spec())
	if dephealthSvc != nil {
		healthHandler.SetDependencyMonitor(dephealthSvc)
	}
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		a.cvUploads,
		a.candidates,
		a.jobs,
		a.matches,
		a.reconcile,
		a.bulk,
		cfg.UploadMaxSize,
		logger,
	)

	middlewares := []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.Recoverer,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	}
	if cfg.OpenAPIValidation {
		doc, err := openapi.Load(ctx)
		if err != nil {
			logger.Error("Ошибка загрузки OpenAPI-спецификации", slog.String("error", err.Error()))
			return err
		}
		validator, err := middleware.OpenAPIValidator(doc, logger)
		if err != nil {
			logger.Error("Ошибка создания OpenAPI-валидатора", slog.String("error", err.Error()))
			return err
		}
		middlewares = append(middlewares, validator)
		logger.Info("Валидация запросов по OpenAPI включена")
	}

	srv := server.New(cfg, logger, apiHandler, middlewares...)
	runErr := srv.Run(ctx)
	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("SkillMatch остановлен")
	return runErr
}
