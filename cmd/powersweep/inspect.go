package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/powersweep/internal/catalog"
	"github.com/san-kum/powersweep/internal/config"
	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/results"
	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/sweep"
)

func (c *cli) gridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "print the stored parameter grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			t, err := gen.table()
			if err != nil {
				return err
			}
			records := t.Records()
			fmt.Println(renderTable(records[0], records[1:]))
			return nil
		},
	}
}

func (c *cli) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [param_set_id]",
		Short: "print one parameter set computed from the declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return sweep.Validationf("lookup", "param_set_id %q is not an integer", args[0])
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			decl, err := cfg.Declaration()
			if err != nil {
				return err
			}
			set, err := grid.At(decl.Parameters, id)
			if err != nil {
				return err
			}
			schema, err := decl.Schema()
			if err != nil {
				return err
			}
			derived, _ := schema.Derived()
			special, _ := set.Value(decl.Names(), decl.Special)

			rows := [][]string{
				{sweep.IDColumn, strconv.Itoa(set.ID)},
				{derived.Name, sweep.Label(special)},
			}
			for i, name := range decl.Names() {
				rows = append(rows, []string{name, set.Values[i]})
			}
			fmt.Println(renderTable([]string{"COLUMN", "VALUE"}, rows))
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	var stageName string
	var plot bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "report completed runs per parameter set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			t, err := gen.table()
			if err != nil {
				return err
			}
			stages, err := stage.FromConfig(cfg.Stages, cfg.Resolve(cfg.WorkDir))
			if err != nil {
				return err
			}
			st, err := stages.Get(stageName)
			if err != nil {
				return err
			}

			rep := results.Status(t, gen.indexer, stageRoot(cfg, st), st.ExpectedOutputs)
			printStatus(stageName, rep)
			if plot && len(rep.Sets) > 1 {
				pct := rep.Fractions()
				for i := range pct {
					pct[i] *= 100
				}
				fmt.Println()
				fmt.Println(asciigraph.Plot(pct,
					asciigraph.Height(8),
					asciigraph.Width(min(80, max(20, len(pct)))),
					asciigraph.LowerBound(0),
					asciigraph.UpperBound(100),
					asciigraph.Caption("% replicates complete by param_set_id"),
				))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stageName, "stage", config.StageTrain, "stage whose outputs are checked")
	cmd.Flags().BoolVar(&plot, "plot", true, "plot completion per parameter set")
	return cmd
}

// stageRoot is the per-version tree a stage writes into.
func stageRoot(cfg *config.Config, st *stage.Stage) string {
	if st.Output == stage.ResultsDir {
		return cfg.ResultsDir()
	}
	return cfg.DataDir()
}

func printStatus(stageName string, rep *results.Report) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %d/%d runs complete", stageName, rep.Completed(), len(rep.Runs))))
	rows := make([][]string, 0, len(rep.Sets))
	for _, s := range rep.Sets {
		progress := fmt.Sprintf("%d/%d", s.Done, s.Total)
		switch {
		case s.Done == s.Total:
			progress = doneStyle.Render(progress)
		case s.Done > 0:
			progress = partialStyle.Render(progress)
		default:
			progress = pendingStyle.Render(progress)
		}
		rows = append(rows, []string{strconv.Itoa(s.ParamSetID), s.Label, progress})
	}
	fmt.Println(renderTable([]string{"SET", "LABEL", "DONE"}, rows))
}

func (c *cli) collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "join every run's metrics with the grid into one CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			t, err := gen.table()
			if err != nil {
				return err
			}
			col := results.NewCollector(cfg.ResultsDir(), cfg.MetricsFile, c.logger)
			sum, err := col.Collect(t, gen.indexer)
			if err != nil {
				return err
			}
			path, err := col.Write(sum)
			if err != nil {
				return err
			}
			fmt.Printf("collected %d runs into %s\n", len(sum.Records), path)
			if len(sum.Missing) > 0 {
				fmt.Fprintf(os.Stderr, "missing %s for %d runs\n", cfg.MetricsFile, len(sum.Missing))
			}
			return nil
		},
	}
}

func (c *cli) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [NAME=VALUE ...]",
		Short: "list runs whose parameters match every filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := make([]catalog.Filter, 0, len(args))
			for _, a := range args {
				f, err := catalog.ParseFilter(a)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := openGenerated(cfg)
			if err != nil {
				return err
			}
			if _, err := os.Stat(gen.store.CatalogPath()); err != nil {
				return sweep.PathErr("query", gen.store.CatalogPath(), err)
			}
			cat, err := catalog.Open(gen.store.CatalogPath())
			if err != nil {
				return err
			}
			defer cat.Close()

			names, err := cat.Names(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range filters {
				if !slices.Contains(names, f.Name) {
					return sweep.MissingKeyf("query", "no parameter %q (have %s)", f.Name, strings.Join(names, ", "))
				}
			}

			entries, err := cat.Runs(cmd.Context(), filters...)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{strconv.Itoa(e.RunNr), strconv.Itoa(e.ParamSetID), strconv.Itoa(e.Replicate), e.Label, e.RunOutputDir})
			}
			fmt.Println(renderTable([]string{"RUN", "SET", "REPLICATE", "LABEL", "OUTPUT DIR"}, rows))
			return nil
		},
	}
}
