// Пакет cli — команды командной строки SkillMatch (cobra).
package cli

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bigkaa/skillmatch/internal/config"
)

const app = "skillmatch"

// options — общие флаги всех команд.
type options struct {
	configFile string
	envFile    string
}

// NewRootCommand создаёт корневую команду со всеми подкомандами.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           app,
		Short:         "SkillMatch: разбор CV и сопоставление кандидатов с вакансиями",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML-файл конфигурации (переменные SM_* имеют приоритет)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "файл переменных окружения, загружается при наличии")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newMatchAllCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute выполняет корневую команду.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig загружает .env (если есть), конфигурацию и настраивает логгер.
func (o *options) loadConfig() (*config.Config, *slog.Logger, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.SetupLogger(cfg), nil
}
