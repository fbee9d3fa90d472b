package connectivity

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"voxelconnect/internal/models"
	"voxelconnect/internal/store"
	"voxelconnect/pkg/archive"
	"voxelconnect/pkg/laplacian"
	"voxelconnect/pkg/mask"
)

func voxelResult(t *testing.T) *ResultMatrixSet {
	t.Helper()
	p := testParams()
	p.SourceCoverage = 0
	p.Laplacian = true
	res, err := NewGenerator(testBackend(), p).VoxelMatrices()
	require.NoError(t, err)
	return res
}

func TestFields(t *testing.T) {
	res := voxelResult(t)
	f := res.Fields()

	assert.Equal(t, []float64{2, 5}, f["experiment_source_matrix_shape"])
	assert.Equal(t, []float64{1, 2, 0, 0, 0, 0, 0, 0, 4, 0}, f["experiment_source_matrix"])
	assert.Equal(t, []float64{2, 2}, f["experiment_target_matrix_ipsi_shape"])
	assert.Equal(t, []float64{100, 200}, f["row_label_list"])
	assert.Equal(t, []float64{1, 1, 1, 2, 2}, f["col_label_list_source"])
	assert.Equal(t, []float64{5, 0, 9}, f["voxel_coords_target_contra"])
	assert.Len(t, f["voxel_coords_source"], 15)

	for name, L := range map[string]*laplacian.CSC{"Lx": res.Lx, "Ly_ipsi": res.LyIpsi, "Ly_contra": res.LyContra} {
		assert.Len(t, f[name+"_data"], L.NNZ(), name)
		assert.True(t, mat.Equal(L, laplacianFromFields(t, f, name)), name)
	}
	assert.Equal(t, []float64{5, 5}, f["Lx_shape"])

	region, err := NewGenerator(testBackend(), testParams()).RegionMatrices()
	require.NoError(t, err)
	rf := region.Fields()
	assert.NotContains(t, rf, "voxel_coords_source")
	assert.NotContains(t, rf, "Lx_data")
	assert.Equal(t, []float64{10}, rf["col_label_list_target_ipsi"])
}

// laplacianFromFields rebuilds a Laplacian stored as coordinate triplets.
func laplacianFromFields(t *testing.T, f map[string][]float64, name string) *laplacian.CSC {
	t.Helper()
	shape := f[name+"_shape"]
	require.Len(t, shape, 2, name)
	rows, cols, data := f[name+"_row"], f[name+"_col"], f[name+"_data"]
	require.Len(t, rows, len(data), name)
	require.Len(t, cols, len(data), name)
	b := laplacian.NewBuilder(int(shape[0]), int(shape[1]))
	for k, v := range data {
		b.Add(int(rows[k]), int(cols[k]), v)
	}
	return b.Compress()
}

func TestFieldsGroupRoundTrip(t *testing.T) {
	res := voxelResult(t)
	s, err := store.Create(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteGroup("voxel", res.Fields()))
	f, err := s.ReadGroup("voxel")
	require.NoError(t, err)

	assert.True(t, mat.Equal(res.Lx, laplacianFromFields(t, f, "Lx")))
	assert.True(t, mat.Equal(res.LyIpsi, laplacianFromFields(t, f, "Ly_ipsi")))
	assert.Equal(t, []float64{1, 1}, f["Ly_contra_shape"])
	assert.Equal(t, denseValues(res.Source), f["experiment_source_matrix"])
}

func TestSummarize(t *testing.T) {
	res := voxelResult(t)
	s := Summarize(res)
	assert.Equal(t, 2, s.Experiments)
	assert.Equal(t, 2, s.Source.Rows)
	assert.Equal(t, 5, s.Source.Columns)
	assert.InDelta(t, 0.3, s.Source.NonzeroFraction, 1e-12)
	assert.InDelta(t, 0.7, s.Source.Mean, 1e-12)
	assert.Positive(t, s.Source.StdDev)
	assert.Equal(t, res.Lx.NNZ()+res.LyIpsi.NNZ()+res.LyContra.NNZ(), s.LaplacianNonzeros)
	assert.Equal(t, len(res.Warnings), s.Warnings)

	single := Summarize(&ResultMatrixSet{Source: mat.NewDense(1, 1, []float64{2})})
	assert.Equal(t, 2.0, single.Source.Mean)
	assert.Zero(t, single.Source.StdDev)
	assert.Zero(t, single.TargetIpsi.Rows)
}

func TestArchiveRoundTrip(t *testing.T) {
	res := voxelResult(t)
	path := filepath.Join(t.TempDir(), "voxel.gob")
	_, err := archive.Save(path, res, archive.Zstd)
	require.NoError(t, err)

	var got ResultMatrixSet
	require.NoError(t, archive.Load(path, &got))
	assert.Equal(t, res.Rows, got.Rows)
	assert.Equal(t, res.SourceVoxels, got.SourceVoxels)
	assert.Equal(t, res.QualifiedSources, got.QualifiedSources)
	assert.Equal(t, res.Warnings, got.Warnings)
	assert.True(t, mat.Equal(res.Source, got.Source))
	assert.True(t, mat.Equal(res.TargetContra, got.TargetContra))
	assert.True(t, mat.Equal(res.Lx, got.Lx))
	assert.Equal(t, res.LyIpsi.NNZ(), got.LyIpsi.NNZ())
}

func TestGenerateFromDataDir(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Create(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutStructure(newStructure(1, []mask.Voxel{{0, 0, 0}, {1, 0, 0}}, nil)))
	require.NoError(t, s.PutStructure(newStructure(10, []mask.Voxel{{3, 0, 0}}, []mask.Voxel{{3, 1, 0}})))

	vol := models.NewDensityVolume(4, 2, 1)
	vol.Set(mask.Voxel{0, 0, 0}, 2)
	vol.Set(mask.Voxel{1, 0, 0}, 1)
	vol.Set(mask.Voxel{3, 0, 0}, 0.5)
	vol.Set(mask.Voxel{3, 1, 0}, models.NoData)
	require.NoError(t, s.PutExperiment(&models.Experiment{
		ID: 7, StructureID: 1, Density: vol,
		Injection: mask.New(mask.Voxel{0, 0, 0}, mask.Voxel{1, 0, 0}),
	}))
	require.NoError(t, s.Close())

	p := DefaultParams()
	p.SourceIDs = []models.StructureID{1}
	p.TargetIDs = []models.StructureID{10}
	p.MinVoxelsPerInjection = 1
	p.Laplacian = true

	res, err := GenerateVoxelMatrices(dir, p)
	require.NoError(t, err)
	requireMatrix(t, []float64{2, 1}, res.Source)
	requireMatrix(t, []float64{0.5}, res.TargetIpsi)
	requireMatrix(t, []float64{0}, res.TargetContra)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.NoData, res.Warnings[0].Code)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{-1, 1, 1, -1}), res.Lx))

	region, err := GenerateRegionMatrices(dir, p)
	require.NoError(t, err)
	requireMatrix(t, []float64{3}, region.Source)

	_, err = GenerateRegionMatrices(filepath.Join(dir, "missing"), p)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoExperiments))
}
