package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bigkaa/skillmatch/internal/service"
)

func newMatchAllCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match-all",
		Short: "Сопоставить всех активных кандидатов со всеми активными вакансиями",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApplication(ctx, cfg, logger)
			if err != nil {
				logger.Error("Ошибка инициализации", slog.String("error", err.Error()))
				return err
			}
			defer a.Close()

			res, err := a.bulk.MatchAll(ctx)
			if res != nil {
				if encErr := writeMatchSummary(cmd.OutOrStdout(), res); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
}

// matchSummary — итог массового сопоставления для вывода в stdout.
type matchSummary struct {
	Candidates int                   `json:"candidates"`
	Jobs       int                   `json:"jobs"`
	Created    int                   `json:"matches_created"`
	Updated    int                   `json:"matches_updated"`
	Failed     int                   `json:"matches_failed"`
	Failures   []service.PairFailure `json:"failures"`
	DurationMs int64                 `json:"duration_ms"`
}

func writeMatchSummary(w io.Writer, res *service.MatchAllResult) error {
	failures := res.Failures
	if failures == nil {
		failures = []service.PairFailure{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(matchSummary{
		Candidates: res.Candidates,
		Jobs:       res.Jobs,
		Created:    res.Created,
		Updated:    res.Updated,
		Failed:     res.Failed,
		Failures:   failures,
		DurationMs: res.Duration.Milliseconds(),
	})
}
