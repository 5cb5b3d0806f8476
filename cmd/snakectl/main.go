package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tukib/snakebot/internal/cli"
	"github.com/tukib/snakebot/internal/platform/config"
	"github.com/tukib/snakebot/internal/platform/logging"
)

func main() {
	cfg, err := config.LoadStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}
	// diagnostics go to stderr so --format json stays parseable
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, "warn", cfg.LogFormat)))

	if err := cli.NewRootCommand(cfg, cli.OpenStore).Execute(); err != nil {
		os.Exit(1)
	}
}
