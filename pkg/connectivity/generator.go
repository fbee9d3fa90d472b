// Package connectivity builds the experiment × structure matrices used to
// fit a structural connectivity model from tracer experiments.
//
// Two resolutions are supported. At region resolution each matrix column is
// the integrated projection density of one structure. At voxel resolution
// every voxel of every structure gets its own column, experiments are
// screened for injection coverage, and graph Laplacians aligned with the
// columns can be produced.
//
// Rows are experiments and are shared by the source, target-ipsi and
// target-contra matrices of one result.
package connectivity

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"voxelconnect/internal/models"
	"voxelconnect/internal/store"
	"voxelconnect/pkg/backend"
	"voxelconnect/pkg/density"
	"voxelconnect/pkg/logging"
)

// Generator produces result matrices from a backend. A Generator keeps no
// state between calls; every call reads the backend afresh.
type Generator struct {
	backend backend.Backend
	params  *Params
}

// NewGenerator creates a generator over b with the given parameters.
func NewGenerator(b backend.Backend, params *Params) *Generator {
	return &Generator{backend: b, params: params}
}

// GenerateRegionMatrices opens the store in dataDir and builds region
// resolution matrices.
func GenerateRegionMatrices(dataDir string, params *Params) (*ResultMatrixSet, error) {
	s, err := store.Open(dataDir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return NewGenerator(s, params).RegionMatrices()
}

// GenerateVoxelMatrices opens the store in dataDir and builds voxel
// resolution matrices.
func GenerateVoxelMatrices(dataDir string, params *Params) (*ResultMatrixSet, error) {
	s, err := store.Open(dataDir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return NewGenerator(s, params).VoxelMatrices()
}

// run carries the data of a single invocation.
type run struct {
	params      *Params
	log         *density.Log
	experiments []*models.Experiment
	structures  map[models.StructureID]*models.Structure
}

func (g *Generator) newRun() (*run, error) {
	if err := g.params.Validate(); err != nil {
		return nil, err
	}
	return &run{
		params:     g.params,
		log:        &density.Log{},
		structures: make(map[models.StructureID]*models.Structure),
	}, nil
}

func (r *run) progress(format string, args ...interface{}) {
	if r.params.Verbose {
		logging.Infof(format, args...)
	}
}

// loadExperiments fetches the requested experiments, or all of them, in
// order. keep, when not nil, drops experiments before their injection
// shells are fetched.
func (r *run) loadExperiments(b backend.Backend, keep func(*models.Experiment) bool) error {
	ids := r.params.ExperimentIDs
	if ids == nil {
		var err error
		if ids, err = b.ListExperiments(); err != nil {
			return fmt.Errorf("listing experiments: %w", err)
		}
	}
	r.experiments = make([]*models.Experiment, 0, len(ids))
	for _, id := range ids {
		e, err := b.Experiment(id)
		if err != nil {
			return fmt.Errorf("loading experiment: %w", err)
		}
		if keep != nil && !keep(e) {
			continue
		}
		if r.params.SourceShell {
			if e.Shell, err = b.InjectionMask(id, true); err != nil {
				return fmt.Errorf("loading injection shell: %w", err)
			}
		}
		r.experiments = append(r.experiments, e)
	}
	return nil
}

func (r *run) loadStructures(b backend.Backend) error {
	ids := append(append([]models.StructureID{}, r.params.SourceIDs...), r.params.TargetIDs...)
	for _, id := range ids {
		if _, found := r.structures[id]; found {
			continue
		}
		s, err := backend.Structure(b, id)
		if err != nil {
			return fmt.Errorf("loading structure masks: %w", err)
		}
		r.structures[id] = s
	}
	return nil
}

// forEach calls fn for 0..n-1, fanning out over NumCores workers. Each call
// must only write state owned by its index.
func (r *run) forEach(n int, fn func(j int) error) error {
	if r.params.NumCores < 2 {
		for j := 0; j < n; j++ {
			if err := fn(j); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(r.params.NumCores)
	for j := 0; j < n; j++ {
		j := j
		g.Go(func() error { return fn(j) })
	}
	return g.Wait()
}

func (r *run) experimentIDs() []models.ExperimentID {
	ids := make([]models.ExperimentID, len(r.experiments))
	for i, e := range r.experiments {
		ids[i] = e.ID
	}
	return ids
}

// newMatrix allocates a rows×cols matrix. A space without columns is legal
// and yields a nil matrix, since gonum cannot represent it; its shape is
// still known from the row and column labels.
func newMatrix(rows, cols int) (*mat.Dense, error) {
	if rows == 0 {
		return nil, ErrNoExperiments
	}
	if cols == 0 {
		return nil, nil
	}
	return mat.NewDense(rows, cols, nil), nil
}

// setSegment writes values into row i starting at column start.
func setSegment(m *mat.Dense, i, start int, values []float64) {
	for k, v := range values {
		m.Set(i, start+k, v)
	}
}
