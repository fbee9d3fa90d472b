package connectivity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/backend"
	"voxelconnect/pkg/mask"
)

func newStructure(id models.StructureID, ipsi, contra []mask.Voxel) *models.Structure {
	i, c := mask.New(ipsi...), mask.New(contra...)
	return &models.Structure{ID: id, Full: mask.Union(i, c), Ipsi: i, Contra: c}
}

// testBackend holds two source structures, one target structure and four
// experiments:
//
//	100 injected in 1, fully inside the sources
//	200 injected in 2, partly inside target 10, carries a missing tile
//	300 injected in structure 99, outside every source
//	400 injected in 1 with no injection density
func testBackend() *backend.Memory {
	b := backend.NewMemory()
	b.AddStructure(newStructure(1,
		[]mask.Voxel{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		[]mask.Voxel{{0, 0, 9}}))
	b.AddStructure(newStructure(2,
		[]mask.Voxel{{0, 5, 0}, {1, 5, 0}},
		nil))
	b.AddStructure(newStructure(10,
		[]mask.Voxel{{5, 0, 0}, {6, 0, 0}},
		[]mask.Voxel{{5, 0, 9}}))

	b.AddExperiment(&models.Experiment{
		ID: 100, StructureID: 1,
		Injection: mask.New(mask.Voxel{0, 0, 0}, mask.Voxel{1, 0, 0}),
		Shell:     mask.New(mask.Voxel{0, 0, 0}, mask.Voxel{1, 0, 0}, mask.Voxel{5, 0, 0}),
		Density: models.SparseDensity{
			{0, 0, 0}: 1, {1, 0, 0}: 2,
			{5, 0, 0}: 0.5, {6, 0, 0}: 0.25, {5, 0, 9}: 3,
		},
	})
	b.AddExperiment(&models.Experiment{
		ID: 200, StructureID: 2,
		Injection: mask.New(mask.Voxel{0, 5, 0}, mask.Voxel{1, 5, 0}, mask.Voxel{5, 0, 0}),
		Shell:     mask.New(mask.Voxel{0, 5, 0}, mask.Voxel{1, 5, 0}, mask.Voxel{5, 0, 0}),
		Density: models.SparseDensity{
			{0, 5, 0}: 4, {1, 5, 0}: models.MissingTile,
			{5, 0, 0}: 7, {6, 0, 0}: 1,
		},
	})
	b.AddExperiment(&models.Experiment{
		ID: 300, StructureID: 99,
		Injection: mask.New(mask.Voxel{9, 9, 9}),
		Shell:     mask.New(mask.Voxel{9, 9, 9}),
		Density:   models.SparseDensity{{9, 9, 9}: 1, {5, 0, 0}: 2},
	})
	b.AddExperiment(&models.Experiment{
		ID: 400, StructureID: 1,
		Injection: mask.New(mask.Voxel{2, 0, 0}),
		Shell:     mask.New(mask.Voxel{2, 0, 0}),
		Density:   models.SparseDensity{{6, 0, 0}: 5},
	})
	return b
}

func testParams() *Params {
	p := DefaultParams()
	p.SourceIDs = []models.StructureID{1, 2}
	p.TargetIDs = []models.StructureID{10}
	p.MinVoxelsPerInjection = 2
	p.NumCores = 1
	return p
}

func requireMatrix(t *testing.T, want []float64, got *mat.Dense) {
	t.Helper()
	require.NotNil(t, got)
	r, c := got.Dims()
	require.Equal(t, len(want), r*c, "matrix is %d×%d", r, c)
	require.True(t, mat.EqualApprox(mat.NewDense(r, c, want), got, 1e-12), "got\n%v", mat.Formatted(got))
}

func requireNonNegative(t *testing.T, matrices ...*mat.Dense) {
	t.Helper()
	for _, m := range matrices {
		for _, v := range denseValues(m) {
			require.GreaterOrEqual(t, v, 0.0)
		}
	}
}
