package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/ffplan/config"
	"github.com/zero-day-ai/ffplan/planner"
	"github.com/zero-day-ai/ffplan/telemetry"
)

// app holds state shared by the subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	// plannerOpts are appended to every planner the commands build.
	plannerOpts []planner.Option

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(opts ...planner.Option) *cobra.Command {
	a := &app{plannerOpts: opts}

	root := &cobra.Command{
		Use:           "ffplan",
		Short:         "Plan Hanoi block stacking with Metric-FF",
		Long:          `Builds PDDL problem files from observed facts, runs the Metric-FF planner and reports the plan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to ffplan.yaml (default: search from the current directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text, json")

	root.AddCommand(
		a.planCmd(),
		a.synthCmd(),
		a.checkCmd(),
		a.workerCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout carries only command output.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) newPlanner(extra ...planner.Option) (*planner.Planner, error) {
	opts := append([]planner.Option{planner.WithLogger(a.logger)}, extra...)
	opts = append(opts, a.plannerOpts...)
	return planner.New(a.cfg, opts...)
}
