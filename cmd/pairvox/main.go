// Command pairvox is a voice-enabled pair-programming assistant for the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dohr-michael/pairvox/cmd/commands"
	"github.com/dohr-michael/pairvox/internal/config"
)

var version = "dev"

func main() {
	// A missing .env is normal; only a malformed one is worth reporting.
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		fmt.Fprintf(os.Stderr, "pairvox: ignoring %s: %v\n", config.DotenvPath(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCommand()
	root.Version = version
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pairvox: %v\n", err)
		os.Exit(1)
	}
}
