// main.go — точка входа SkillMatch.
// Команды: serve (HTTP API), migrate, match-all, version.
package main

import (
	"log/slog"
	"os"

	"github.com/bigkaa/skillmatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("Команда завершилась с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
