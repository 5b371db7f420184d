package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/powersweep/internal/config"
	"github.com/san-kum/powersweep/internal/launcher"
	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/sweep"
)

// runNumber takes --run when given, otherwise the scheduler array index.
func runNumber(cmd *cobra.Command, runNr int, cfg *config.Config) (int, error) {
	if cmd.Flags().Changed("run") && runNr < 1 {
		return 0, sweep.Validationf("run number", "--run must be >= 1, got %d", runNr)
	}
	return stage.RunNumber(runNr, cfg.IndexEnv, os.LookupEnv)
}

func (c *cli) resolveCmd() *cobra.Command {
	var runNr int
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "print a run's descriptor and resolved paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := runNumber(cmd, runNr, cfg)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			r, err := gen.runner(cfg, c.logger)
			if err != nil {
				return err
			}
			d, paths, err := r.Resolve(n)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Descriptor any    `json:"descriptor"`
				ParamFile  string `json:"param_file"`
				DataDir    string `json:"data_dir"`
				ResultsDir string `json:"results_dir"`
			}{d, paths.ParamFile, paths.DataDir, paths.ResultsDir})
		},
	}
	cmd.Flags().IntVar(&runNr, "run", 0, "run number (default: scheduler array index)")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var runNr int
	cmd := &cobra.Command{
		Use:   "run [stage]",
		Short: "run one stage for one run number",
		Long: `Runs a stage (simulate or train) for a single run number. The run number
comes from --run or, inside an array job, from the first set variable in
index_env.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := runNumber(cmd, runNr, cfg)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			r, err := gen.runner(cfg, c.logger)
			if err != nil {
				return err
			}
			res, err := r.Run(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			fmt.Printf("%s run %d completed in %v\n", res.Stage, res.RunNr, res.Duration.Round(time.Millisecond))
			fmt.Printf("output: %s\n", res.Output)
			return nil
		},
	}
	cmd.Flags().IntVar(&runNr, "run", 0, "run number (default: scheduler array index)")
	return cmd
}

func (c *cli) launchCmd() *cobra.Command {
	var from, to, parallel int
	cmd := &cobra.Command{
		Use:   "launch [stage]",
		Short: "run a stage over a range of runs on this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			r, err := gen.runner(cfg, c.logger)
			if err != nil {
				return err
			}
			runs, err := launcher.Range(from, to, gen.indexer.Total())
			if err != nil {
				return err
			}

			outcomes := launcher.New(r, parallel, c.logger).Run(cmd.Context(), args[0], runs)
			failed := launcher.Failed(outcomes)
			fmt.Printf("%s: %d/%d runs succeeded\n", args[0], len(outcomes)-len(failed), len(outcomes))
			if len(failed) == 0 {
				return nil
			}
			errs := make([]error, 0, len(failed))
			for _, o := range failed {
				fmt.Printf("  run %d: %v\n", o.RunNr, o.Err)
				errs = append(errs, o.Err)
			}
			return fmt.Errorf("%d of %d runs failed: %w", len(failed), len(outcomes), errors.Join(errs...))
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "first run number")
	cmd.Flags().IntVar(&to, "to", 0, "last run number (default: all)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "concurrent runs (default: GOMAXPROCS)")
	return cmd
}
