package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/pairvox/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "pairvox",
		Usage: "Voice pair-programming: spoken explanations, code blocks written or run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			NewInitCommand(),
			NewChatCommand(),
			NewReplayCommand(),
			NewSessionsCommand(),
		},
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return ctx, nil
}

// loadConfig reads the --config file, falling back to defaults when it is
// missing, and applies the --home override.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if home := cmd.String("home"); home != "" {
		if abs, err := filepath.Abs(home); err == nil {
			home = abs
		}
		if cfg.Shell.Dir == cfg.HomeDir {
			cfg.Shell.Dir = home
		}
		cfg.HomeDir = home
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("config loaded", "path", path, "home_dir", cfg.HomeDir)
	return cfg, nil
}
