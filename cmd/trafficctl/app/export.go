package app

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-traffic/cmd/trafficctl/app/options"
	"github.com/nvr-ai/go-traffic/config"
	"github.com/nvr-ai/go-traffic/sink"
	"github.com/nvr-ai/go-traffic/util"
)

func newExportCommand(g *options.Global) *cobra.Command {
	e := options.NewExport()

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Project detection centroids to GPS and write them as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := e.Validate(); err != nil {
				return err
			}
			logger, err := setup(g)
			if err != nil {
				return err
			}
			cfg, err := g.Config()
			if err != nil {
				return err
			}
			n, err := runExport(cfg, e)
			if err != nil {
				return err
			}
			logger.Info("track export written", "path", e.Out, "points", n, "mode", cfg.Geo.Mode)
			return nil
		},
	}
	e.AddFlags(cmd.Flags())
	return cmd
}

func runExport(cfg *config.Config, e *options.Export) (int, error) {
	projector, err := cfg.Geo.Build()
	if err != nil {
		return 0, err
	}
	table, err := util.LoadDetectionFile(e.Detections)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(e.Out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.Wrapf(err, "create %s", dir)
		}
	}
	f, err := os.Create(e.Out)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", e.Out)
	}

	exp := sink.NewTrackExport(f, projector, cfg.LabelSet())
	for _, frame := range table.Frames() {
		for _, d := range table.Detections(frame) {
			exp.Add(d)
		}
	}
	return exp.Len(), exp.Close()
}
