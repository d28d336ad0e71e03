package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bigkaa/skillmatch/internal/database"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции БД и завершиться",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger.Info("Применение миграций БД...")
			if err := database.Migrate(cfg, logger); err != nil {
				logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
}
