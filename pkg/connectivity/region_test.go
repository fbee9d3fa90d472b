package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/backend"
	"voxelconnect/pkg/layout"
	"voxelconnect/pkg/mask"
)

func TestRegionMatrices(t *testing.T) {
	res, err := NewGenerator(testBackend(), testParams()).RegionMatrices()
	require.NoError(t, err)

	assert.Equal(t, RegionResolution, res.Resolution)
	// 300 and 400 inject no source voxel and are dropped by the row sum test
	assert.Equal(t, []models.ExperimentID{100, 200}, res.Rows)
	assert.Equal(t, []models.StructureID{1, 2}, res.SourceColumns)
	assert.Equal(t, []models.StructureID{10}, res.TargetIpsiColumns)
	assert.Equal(t, []models.StructureID{10}, res.TargetContraColumns)
	assert.Equal(t, []models.StructureID{1, 2}, res.QualifiedSources)

	requireMatrix(t, []float64{
		3, 0,
		0, 4,
	}, res.Source)
	// the injection of 200 covers (5,0,0), which is carved out of the target
	requireMatrix(t, []float64{0.75, 1}, res.TargetIpsi)
	requireMatrix(t, []float64{3, 0}, res.TargetContra)

	assert.Nil(t, res.Lx)
	assert.Nil(t, res.SourceVoxels)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.ExperimentID(200), res.Warnings[0].Experiment)
	assert.Equal(t, models.MissingTile, res.Warnings[0].Code)
}

func TestRegionSourceRetention(t *testing.T) {
	// two structures of 3 and 2 voxels, one experiment hitting the first in
	// 2 voxels and the second in none
	b := backend.NewMemory()
	b.AddStructure(newStructure(1, []mask.Voxel{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, nil))
	b.AddStructure(newStructure(2, []mask.Voxel{{0, 5, 0}, {1, 5, 0}}, nil))
	b.AddStructure(newStructure(10, []mask.Voxel{{5, 0, 0}}, nil))
	b.AddExperiment(&models.Experiment{
		ID: 1, StructureID: 1,
		Injection: mask.New(mask.Voxel{0, 0, 0}, mask.Voxel{1, 0, 0}, mask.Voxel{9, 9, 9}),
		Density:   models.SparseDensity{{0, 0, 0}: 1, {1, 0, 0}: 1},
	})

	g := NewGenerator(b, testParams())
	r, err := g.newRun()
	require.NoError(t, err)
	require.NoError(t, r.loadExperiments(b, nil))
	require.NoError(t, r.loadStructures(b))
	l, err := layout.Region(r.params.SourceIDs)
	require.NoError(t, err)
	src, err := r.regionSource(l)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, src.qualified)

	// losing a requested structure aborts the call
	_, err = g.RegionMatrices()
	assert.ErrorIs(t, err, ErrInsufficientStructures)
}

func TestRegionInclusionThreshold(t *testing.T) {
	// the largest injection overlap is 2 voxels for both sources
	for threshold, ok := range map[int]bool{0: true, 1: true, 2: true, 3: false} {
		p := testParams()
		p.MinVoxelsPerInjection = threshold
		res, err := NewGenerator(testBackend(), p).RegionMatrices()
		if ok {
			require.NoError(t, err, "threshold %d", threshold)
			assert.Equal(t, []models.StructureID{1, 2}, res.SourceColumns)
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStructures, "threshold %d", threshold)
		}
	}
}

func TestRegionExperimentSelection(t *testing.T) {
	p := testParams()
	p.ExperimentIDs = []models.ExperimentID{200, 300, 100}
	res, err := NewGenerator(testBackend(), p).RegionMatrices()
	require.NoError(t, err)
	assert.Equal(t, []models.ExperimentID{200, 100}, res.Rows)
	requireMatrix(t, []float64{
		0, 4,
		3, 0,
	}, res.Source)
	requireMatrix(t, []float64{1, 0.75}, res.TargetIpsi)
}

func TestRegionShell(t *testing.T) {
	p := testParams()
	p.SourceShell = true
	res, err := NewGenerator(testBackend(), p).RegionMatrices()
	require.NoError(t, err)
	// the shell of 100 reaches (5,0,0)
	requireMatrix(t, []float64{0.25, 1}, res.TargetIpsi)
}

func TestRegionNoExperiments(t *testing.T) {
	p := testParams()
	p.ExperimentIDs = []models.ExperimentID{300}
	p.MinVoxelsPerInjection = 0
	_, err := NewGenerator(testBackend(), p).RegionMatrices()
	assert.ErrorIs(t, err, ErrNoExperiments)
}

func TestBackendErrorsPropagate(t *testing.T) {
	p := testParams()
	p.TargetIDs = []models.StructureID{10, 77}
	_, err := NewGenerator(testBackend(), p).RegionMatrices()
	assert.ErrorIs(t, err, backend.ErrNotFound)

	p = testParams()
	p.ExperimentIDs = []models.ExperimentID{100, 555}
	_, err = NewGenerator(testBackend(), p).VoxelMatrices()
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestInvalidParams(t *testing.T) {
	for name, edit := range map[string]func(*Params){
		"no sources":        func(p *Params) { p.SourceIDs = nil },
		"no targets":        func(p *Params) { p.TargetIDs = nil },
		"duplicate source":  func(p *Params) { p.SourceIDs = []models.StructureID{1, 1} },
		"duplicate exp":     func(p *Params) { p.ExperimentIDs = []models.ExperimentID{5, 5} },
		"negative min":      func(p *Params) { p.MinVoxelsPerInjection = -1 },
		"coverage above 1":  func(p *Params) { p.SourceCoverage = 1.5 },
		"negative coverage": func(p *Params) { p.SourceCoverage = -0.1 },
	} {
		p := testParams()
		edit(p)
		_, err := NewGenerator(testBackend(), p).RegionMatrices()
		assert.ErrorIs(t, err, ErrInvalidParams, name)
	}
}
