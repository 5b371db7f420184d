// Package runindex maps (param_set_id, replicate_id) pairs to linear run
// numbers and back. Generators and consumers must agree on R.
package runindex

import "github.com/san-kum/powersweep/internal/sweep"

// Record is one run: a parameter set, a replicate and its run number.
type Record struct {
	RunNr      int
	ParamSetID int
	Replicate  int
}

// Indexer is the bijection over S parameter sets and R replicates.
type Indexer struct {
	sets       int
	replicates int
}

func New(sets, replicates int) (*Indexer, error) {
	if sets < 1 {
		return nil, sweep.Validationf("runindex", "parameter set count must be >= 1, got %d", sets)
	}
	if replicates < 1 {
		return nil, sweep.Validationf("runindex", "replicate count must be >= 1, got %d", replicates)
	}
	return &Indexer{sets: sets, replicates: replicates}, nil
}

func (ix *Indexer) Sets() int { return ix.sets }
func (ix *Indexer) Replicates() int { return ix.replicates }
func (ix *Indexer) Total() int { return ix.sets * ix.replicates }

// Forward returns (paramSetID-1)*R + replicate.
func (ix *Indexer) Forward(paramSetID, replicate int) (int, error) {
	if paramSetID < 1 || paramSetID > ix.sets {
		return 0, sweep.Validationf("runindex", "param_set_id %d outside [1, %d]", paramSetID, ix.sets)
	}
	if replicate < 1 || replicate > ix.replicates {
		return 0, sweep.Validationf("runindex", "replicate %d outside [1, %d]", replicate, ix.replicates)
	}
	return (paramSetID-1)*ix.replicates + replicate, nil
}

// Inverse recovers (paramSetID, replicate) from a run number.
func (ix *Indexer) Inverse(runNr int) (paramSetID, replicate int, err error) {
	if runNr < 1 || runNr > ix.Total() {
		return 0, 0, sweep.Validationf("runindex", "run_nr %d outside [1, %d]", runNr, ix.Total())
	}
	return (runNr-1)/ix.replicates + 1, (runNr-1)%ix.replicates + 1, nil
}

// Record resolves a run number into its full record.
func (ix *Indexer) Record(runNr int) (Record, error) {
	id, rep, err := ix.Inverse(runNr)
	if err != nil {
		return Record{}, err
	}
	return Record{RunNr: runNr, ParamSetID: id, Replicate: rep}, nil
}

// All returns every record in run order.
func (ix *Indexer) All() []Record {
	records := make([]Record, 0, ix.Total())
	for id := 1; id <= ix.sets; id++ {
		for rep := 1; rep <= ix.replicates; rep++ {
			records = append(records, Record{RunNr: (id-1)*ix.replicates + rep, ParamSetID: id, Replicate: rep})
		}
	}
	return records
}

// Require fails when a consumer's replicate count differs from the one the
// sweep was generated with. Continuing would silently misindex every run.
func (ix *Indexer) Require(replicates int) error {
	if replicates != ix.replicates {
		return sweep.Mismatchf("runindex", "sweep was generated with R=%d but the consumer uses R=%d", ix.replicates, replicates)
	}
	return nil
}
