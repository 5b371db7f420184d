package main

import (
	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/config"
	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/storage"
	"github.com/san-kum/powersweep/internal/sweep"
)

// generated is a sweep as the generation phase left it on disk.
type generated struct {
	store    *storage.Store
	manifest *storage.Manifest
	indexer  *runindex.Indexer
}

// openGenerated loads the manifest and refuses to continue when the
// configured replicate count differs from the generated one.
func openGenerated(cfg *config.Config) (*generated, error) {
	st := storage.New(cfg.VersionDir())
	man, err := st.LoadManifest()
	if err != nil {
		return nil, err
	}
	ix, err := runindex.New(man.ParamSets, man.Replicates)
	if err != nil {
		return nil, err
	}
	if err := ix.Require(cfg.Replicates); err != nil {
		return nil, err
	}
	return &generated{store: st, manifest: man, indexer: ix}, nil
}

// table reads the grid artifact back.
func (g *generated) table() (*grid.Table, error) {
	schema, err := g.manifest.Schema()
	if err != nil {
		return nil, err
	}
	t, err := g.store.LoadGrid(schema)
	if err != nil {
		return nil, err
	}
	if t.Len() != g.manifest.ParamSets {
		return nil, sweep.Schemaf("load grid", "%s has %d sets, manifest records %d", g.store.GridPath(), t.Len(), g.manifest.ParamSets)
	}
	return t, nil
}

func (g *generated) configs(logger *zap.Logger) *runconfig.Manager {
	return runconfig.NewManager(g.store.ConfigDir(), g.indexer, logger)
}

// runner wires the configured stages to the generated sweep.
func (g *generated) runner(cfg *config.Config, logger *zap.Logger) (*stage.Runner, error) {
	stages, err := stage.FromConfig(cfg.Stages, cfg.Resolve(cfg.WorkDir))
	if err != nil {
		return nil, err
	}
	layout := stage.Layout{
		VersionDir: cfg.VersionDir(),
		DataDir:    cfg.DataDir(),
		ResultsDir: cfg.ResultsDir(),
	}
	r := stage.NewRunner(layout, g.configs(logger), stages, logger)
	r.Clean = cfg.Clean
	return r, nil
}
