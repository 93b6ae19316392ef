package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/pairvox/internal/assistant"
	"github.com/dohr-michael/pairvox/internal/models"
)

// NewReplayCommand returns the replay subcommand.
func NewReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Route a recorded reply through the speech and snippet pipeline",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "chunk",
				Usage: "Fragment size in runes",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  "home",
				Usage: "Directory receiving code blocks (overrides home_dir)",
			},
			&cli.BoolFlag{
				Name:  "mute",
				Usage: "Do not speak the reply",
			},
		},
		Action: runReplay,
	}
}

func runReplay(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: pairvox replay <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a := newApp(cfg)
	defer a.Close()

	pipeline, err := a.pipeline(cmd.Bool("mute"))
	if err != nil {
		return err
	}
	report, err := assistant.NewPipeline(pipeline).Run(ctx, models.NewChunkSource(string(data), cmd.Int("chunk")))
	a.summarize(report)
	return err
}
