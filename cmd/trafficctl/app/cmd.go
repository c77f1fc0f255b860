// Package app - Cobra commands of trafficctl.
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-traffic/cmd/trafficctl/app/options"
)

// NewCommand creates the root command with the replay and export subcommands.
func NewCommand() *cobra.Command {
	g := options.NewGlobal()

	cmd := &cobra.Command{
		Use:          "trafficctl",
		Short:        "Count line crossings and flag stopped vehicles from precomputed detections",
		SilenceUsage: true,
	}
	g.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(newReplayCommand(g), newExportCommand(g))
	return cmd
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func setup(g *options.Global) (*slog.Logger, error) {
	logger, err := g.Logger()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
