package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/stereokin/stereokin/config"
	"github.com/stereokin/stereokin/export"
	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/vision/finder"
)

const (
	flagConfig   = "config"
	flagOutput   = "output"
	flagStride   = "stride"
	flagWorkers  = "workers"
	flagPlotDir  = "plot-dir"
	flagDebugDir = "debug-dir"
	flagDebug    = "debug"

	defaultCSV = "results.csv"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "stereokin",
		Usage:           "reconstruct projectile kinematics from stereo image sequences",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			logger := logging.NewLogger("stereokin")
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("stereokin")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run an experiment and export its kinematics",
				UsageText: "stereokin run --config <experiment.json> [other options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load the experiment from `FILE`",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the kinematics table to `FILE` (.csv is appended when missing)",
					},
					&cli.IntFlag{
						Name:  flagStride,
						Usage: "keep every `N`th frame pair",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "number of frames detected in parallel",
					},
					&cli.StringFlag{
						Name:  flagPlotDir,
						Usage: "write speed, acceleration and trajectory plots into `DIR`",
					},
					&cli.StringFlag{
						Name:  flagDebugDir,
						Usage: "write detection overlays into `DIR`",
					},
				},
				Action: RunAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of experiment files and finder parameters",
				Action: SchemaAction,
			},
		},
	}
}

// RunAction computes the kinematics of the configured experiment and writes its outputs.
func RunAction(c *cli.Context) error {
	logger := logging.Global()
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return err
	}
	e, err := cfg.BuildExperiment(logger)
	if err != nil {
		return err
	}
	if c.IsSet(flagStride) {
		if err := e.SetStride(c.Int(flagStride)); err != nil {
			return err
		}
	}
	if c.IsSet(flagWorkers) {
		e.SetWorkers(c.Int(flagWorkers))
	}
	if c.IsSet(flagDebugDir) {
		e.SetDebugDir(c.String(flagDebugDir))
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.ComputeKinematics(ctx); err != nil {
		return errors.Wrap(err, "computing kinematics")
	}
	res := e.Results()

	output := firstNonEmpty(c.String(flagOutput), cfg.Output.CSV, defaultCSV)
	written, err := export.NewTable(res.Trajectory, res.Velocity, res.Acceleration).WriteCSV(output)
	if err != nil {
		return err
	}
	logger.Infow("kinematics written", "experiment", res.ID, "path", written)

	if plotDir := firstNonEmpty(c.String(flagPlotDir), cfg.Output.PlotDir); plotDir != "" {
		if err := export.PlotAll(plotDir, res.Trajectory, res.Velocity, res.Acceleration); err != nil {
			return err
		}
		logger.Infow("plots written", "dir", plotDir)
	}

	summary := export.Summarize(len(res.Frames), res.Trajectory, res.Velocity, res.Acceleration)
	fmt.Fprintln(c.App.Writer, summary.String())
	return nil
}

// SchemaAction prints the experiment file schema followed by the schema of every registered
// finder's parameters.
func SchemaAction(c *cli.Context) error {
	out := struct {
		Experiment interface{} `json:"experiment"`
		Finders    interface{} `json:"finders"`
	}{
		Experiment: config.Schema(),
		Finders:    finder.RegisteredParameterSchemas(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
