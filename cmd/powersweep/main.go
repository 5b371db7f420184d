package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/config"
	"github.com/san-kum/powersweep/internal/logging"
	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/sweep"
)

// Exit codes. A collaborator failure is reported as exitStage whatever the
// collaborator's own status was; the status itself is logged.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitMissingKey = 3
	exitSchema     = 4
	exitPath       = 5
	exitMismatch   = 6
	exitStage      = 20
)

// cli holds the persistent flags and the logger shared by every command.
type cli struct {
	configFile      string
	verbose         bool
	logFormat       string
	analysisVersion string
	replicates      int

	logger *zap.Logger
}

func main() {
	app := &cli{}
	if err := app.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "powersweep",
		Short: "parameter sweeps for simulate-then-train power analyses",
		Long: `powersweep expands a declared parameter grid into parameter files and
per-run config descriptors, then runs the simulate and train stages of one
run at a time, usually as a scheduler array task.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(c.verbose, c.logFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", config.DefaultFile, "project config file (yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&c.logFormat, "log-format", logging.FormatJSON, "log encoding: json or console")
	pf.StringVar(&c.analysisVersion, "analysis-version", "", "override analysis_version")
	pf.IntVar(&c.replicates, "replicates", 0, "override replicates")

	rootCmd.AddCommand(
		c.initCmd(),
		c.presetsCmd(),
		c.generateCmd(),
		c.gridCmd(),
		c.lookupCmd(),
		c.resolveCmd(),
		c.runCmd(),
		c.launchCmd(),
		c.statusCmd(),
		c.collectCmd(),
		c.queryCmd(),
	)
	return rootCmd
}

// loadConfig reads the project file and applies command-line overrides.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("analysis-version") {
		cfg.AnalysisVersion = c.analysisVersion
	}
	if cmd.Flags().Changed("replicates") {
		cfg.Replicates = c.replicates
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func exitCode(err error) int {
	var stageErr *stage.ExitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &stageErr):
		return exitStage
	case errors.Is(err, sweep.ErrMismatch):
		return exitMismatch
	case errors.Is(err, sweep.ErrMissingKey):
		return exitMissingKey
	case errors.Is(err, sweep.ErrSchema):
		return exitSchema
	case errors.Is(err, sweep.ErrPath):
		return exitPath
	case errors.Is(err, sweep.ErrValidation):
		return exitValidation
	}
	return exitFailure
}
