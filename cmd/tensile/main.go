package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/config"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/logging"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/store"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// #endregion main

// #region app

// app holds what every subcommand needs after flags and config are resolved.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
}

func (a *app) engine() *analysis.Engine {
	return analysis.NewEngine(a.cfg.EngineConfig(), a.logger)
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.NewStore(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", a.cfg.DB, err)
	}
	return s, nil
}

// #endregion app

// #region root

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgPath string

	root := &cobra.Command{
		Use:           "tensile",
		Short:         "Compute yield strength, tensile strength and elongation from tensile test records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", os.Getenv("TENSILE_CONFIG"), "config file (yaml, json or toml)")
	pf.String("db", "", "path to the SQLite database")
	pf.Float64("gauge-length", 0, "default gauge length in mm")
	pf.String("smoothing", "", "smoothing strategy: savitzky_golay or moving_average")
	pf.String("specimen-file", "", "specimen config file with cross_sectional_areas and legend_texts")
	pf.String("log-level", "", "log level")
	pf.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newAnalyzeCmd(a),
		newAreasCmd(a),
		newInspectCmd(a),
		newReplayCmd(a),
		newSynthCmd(a),
		newServeCmd(a),
	)
	return root
}

// #endregion root
