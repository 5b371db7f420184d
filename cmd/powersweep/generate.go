package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/catalog"
	"github.com/san-kum/powersweep/internal/config"
	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/paramfile"
	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/storage"
)

type generateOptions struct {
	force   bool
	catalog bool
}

type generation struct {
	table    *grid.Table
	indexer  *runindex.Indexer
	manifest *storage.Manifest
	written  int
}

func (c *cli) generateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "write the grid, parameter files, run configs and manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := generate(cmd.Context(), cfg, opts, c.logger)
			if err != nil {
				return err
			}
			fmt.Printf("analysis: %s\n", cfg.AnalysisVersion)
			fmt.Printf("parameter sets: %d\n", gen.table.Len())
			fmt.Printf("replicates: %d\n", gen.indexer.Replicates())
			fmt.Printf("runs: %d\n", gen.written)
			fmt.Printf("fingerprint: %s\n", gen.manifest.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite parameter files whose content changed")
	cmd.Flags().BoolVar(&opts.catalog, "catalog", true, "build the sqlite run catalog")
	return cmd
}

// generate runs the whole generation phase. The grid, every parameter file
// and the manifest are built and checked in memory before anything is
// written, so a bad declaration or template leaves the version directory
// untouched.
func generate(ctx context.Context, cfg *config.Config, opts generateOptions, logger *zap.Logger) (*generation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decl, err := cfg.Declaration()
	if err != nil {
		return nil, err
	}
	table, err := grid.Build(decl)
	if err != nil {
		return nil, err
	}
	ix, err := runindex.New(table.Len(), cfg.Replicates)
	if err != nil {
		return nil, err
	}

	template, err := paramfile.LoadTemplate(cfg.Resolve(cfg.Template))
	if err != nil {
		return nil, err
	}
	st := storage.New(cfg.VersionDir())
	m := paramfile.New(template, st.ParamDir(), logger)
	m.Strict = cfg.StrictTemplate
	m.Force = opts.force

	docs, err := m.RenderAll(table)
	if err != nil {
		return nil, err
	}
	if err := m.Check(docs); err != nil {
		return nil, err
	}
	gridCSV, err := storage.EncodeGrid(table)
	if err != nil {
		return nil, err
	}
	manifest := &storage.Manifest{
		AnalysisVersion: cfg.AnalysisVersion,
		ParamSets:       table.Len(),
		Replicates:      ix.Replicates(),
		TotalRuns:       ix.Total(),
		Parameters:      decl.Names(),
		Special:         decl.Special,
		LabelColumn:     decl.LabelColumn,
		Fingerprint:     storage.Fingerprint(gridCSV, ix.Replicates()),
	}

	logger.Info("generating sweep",
		zap.String("analysis_version", cfg.AnalysisVersion),
		zap.Int("param_sets", table.Len()),
		zap.Int("replicates", ix.Replicates()),
		zap.Int("runs", ix.Total()))

	if err := st.Init(); err != nil {
		return nil, err
	}
	if err := storage.WriteFileAtomic(st.GridPath(), gridCSV, 0644); err != nil {
		return nil, fmt.Errorf("writing grid: %w", err)
	}
	if err := m.Write(docs); err != nil {
		return nil, err
	}
	configs := runconfig.NewManager(st.ConfigDir(), ix, logger)
	written, err := configs.WriteAll(storage.ParamDirName)
	if err != nil {
		return nil, err
	}
	if err := st.WriteManifest(manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	if opts.catalog {
		cat, err := catalog.Open(st.CatalogPath())
		if err != nil {
			return nil, err
		}
		defer cat.Close()
		if err := cat.Build(ctx, table, ix); err != nil {
			return nil, fmt.Errorf("building catalog: %w", err)
		}
	}

	return &generation{table: table, indexer: ix, manifest: manifest, written: written}, nil
}

func (c *cli) initCmd() *cobra.Command {
	var preset string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "write a project config and a starter template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if _, err := os.Stat(c.configFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.configFile)
			}
			if err := config.Save(c.configFile, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s (preset %s)\n", c.configFile, preset)

			tmpl := filepath.Join(filepath.Dir(c.configFile), cfg.Template)
			if _, err := os.Stat(tmpl); errors.Is(err, fs.ErrNotExist) {
				if err := os.WriteFile(tmpl, []byte(starterTemplate(cfg)), 0644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", tmpl)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "binary", "preset to start from")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

// starterTemplate has one NAME={NAME} line per declared parameter.
func starterTemplate(cfg *config.Config) string {
	var b strings.Builder
	for _, p := range cfg.Parameters {
		fmt.Fprintf(&b, "%s={%s}\n", p.Name, p.Name)
	}
	return b.String()
}

func (c *cli) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %s, %d parameters, R=%d\n", name, p.AnalysisVersion, len(p.Parameters), p.Replicates)
			}
			return nil
		},
	}
}
