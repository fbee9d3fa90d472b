package connectivity

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/density"
	"voxelconnect/pkg/laplacian"
	"voxelconnect/pkg/mask"
)

// Resolution tells what a matrix column stands for.
type Resolution int

const (
	// RegionResolution columns are whole structures.
	RegionResolution Resolution = iota

	// VoxelResolution columns are single voxels.
	VoxelResolution
)

func (r Resolution) String() string {
	if r == VoxelResolution {
		return "voxel"
	}
	return "region"
}

// ResultMatrixSet is the output of one generation run. All matrices share
// the row labels in Rows.
type ResultMatrixSet struct {
	Resolution Resolution

	// Source is experiments × source columns.
	Source *mat.Dense

	// TargetIpsi and TargetContra are experiments × target columns for each
	// hemisphere.
	//
	// A matrix is nil when its space has no columns, such as a target
	// without contra voxels. Its shape is then len(Rows) × 0.
	TargetIpsi   *mat.Dense
	TargetContra *mat.Dense

	// Rows are the experiment ids, one per matrix row.
	Rows []models.ExperimentID

	// Column labels: the structure owning each column.
	SourceColumns       []models.StructureID
	TargetIpsiColumns   []models.StructureID
	TargetContraColumns []models.StructureID

	// Voxel coordinate of each column. Voxel resolution only.
	SourceVoxels       []mask.Voxel
	TargetIpsiVoxels   []mask.Voxel
	TargetContraVoxels []mask.Voxel

	// QualifiedSources are the source structures in which at least one
	// experiment reached the injection voxel threshold.
	QualifiedSources []models.StructureID

	// Laplacians aligned with the source, target-ipsi and target-contra
	// columns. Nil unless requested.
	Lx       *laplacian.CSC
	LyIpsi   *laplacian.CSC
	LyContra *laplacian.CSC

	// Warnings lists the sentinel density codes met during the run.
	Warnings []density.Warning
}

// Fields flattens the result into named arrays for group storage. Matrices
// are stored row-major with a companion "<name>_shape" entry; labels are
// stored as numbers and voxel coordinates as consecutive x, y, z triples.
// Laplacians, when present, are stored as coordinate triplets in
// "<name>_row", "<name>_col" and "<name>_data" plus "<name>_shape".
func (res *ResultMatrixSet) Fields() map[string][]float64 {
	f := make(map[string][]float64)
	rows := len(res.Rows)
	putMatrix(f, "experiment_source_matrix", res.Source, rows, len(res.SourceColumns))
	putMatrix(f, "experiment_target_matrix_ipsi", res.TargetIpsi, rows, len(res.TargetIpsiColumns))
	putMatrix(f, "experiment_target_matrix_contra", res.TargetContra, rows, len(res.TargetContraColumns))
	putLaplacian(f, "Lx", res.Lx)
	putLaplacian(f, "Ly_ipsi", res.LyIpsi)
	putLaplacian(f, "Ly_contra", res.LyContra)

	labels := make([]float64, rows)
	for i, id := range res.Rows {
		labels[i] = float64(id)
	}
	f["row_label_list"] = labels
	f["col_label_list_source"] = structureLabels(res.SourceColumns)
	f["col_label_list_target_ipsi"] = structureLabels(res.TargetIpsiColumns)
	f["col_label_list_target_contra"] = structureLabels(res.TargetContraColumns)

	if res.Resolution == VoxelResolution {
		f["voxel_coords_source"] = voxelCoords(res.SourceVoxels)
		f["voxel_coords_target_ipsi"] = voxelCoords(res.TargetIpsiVoxels)
		f["voxel_coords_target_contra"] = voxelCoords(res.TargetContraVoxels)
	}
	return f
}

// putMatrix stores m, or an empty rows×cols entry when m is nil.
func putMatrix(f map[string][]float64, name string, m *mat.Dense, rows, cols int) {
	if m != nil {
		rows, cols = m.Dims()
	}
	f[name] = denseValues(m)
	if f[name] == nil {
		f[name] = []float64{}
	}
	f[name+"_shape"] = []float64{float64(rows), float64(cols)}
}

func putLaplacian(f map[string][]float64, name string, L *laplacian.CSC) {
	if L == nil {
		return
	}
	r, c := L.Dims()
	nnz := L.NNZ()
	rows := make([]float64, 0, nnz)
	cols := make([]float64, 0, nnz)
	data := make([]float64, 0, nnz)
	L.DoNonZero(func(i, j int, v float64) {
		rows = append(rows, float64(i))
		cols = append(cols, float64(j))
		data = append(data, v)
	})
	f[name+"_row"] = rows
	f[name+"_col"] = cols
	f[name+"_data"] = data
	f[name+"_shape"] = []float64{float64(r), float64(c)}
}

func structureLabels(ids []models.StructureID) []float64 {
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = float64(id)
	}
	return out
}

func voxelCoords(voxels []mask.Voxel) []float64 {
	out := make([]float64, 0, 3*len(voxels))
	for _, v := range voxels {
		out = append(out, float64(v[0]), float64(v[1]), float64(v[2]))
	}
	return out
}

// denseValues returns the entries of m row by row.
func denseValues(m *mat.Dense) []float64 {
	if m == nil || m.IsEmpty() {
		return nil
	}
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// MatrixStats describes one result matrix.
type MatrixStats struct {
	Rows, Columns int

	// NonzeroFraction is the share of entries above zero.
	NonzeroFraction float64

	// Mean and StdDev are taken over every entry.
	Mean, StdDev float64
}

func matrixStats(m *mat.Dense, rows, cols int) MatrixStats {
	values := denseValues(m)
	if len(values) == 0 {
		return MatrixStats{Rows: rows, Columns: cols}
	}
	r, c := m.Dims()
	nonzero := 0
	for _, v := range values {
		if v > 0 {
			nonzero++
		}
	}
	mean, std := stat.Mean(values, nil), 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	return MatrixStats{
		Rows:            r,
		Columns:         c,
		NonzeroFraction: float64(nonzero) / float64(len(values)),
		Mean:            mean,
		StdDev:          std,
	}
}

// Summary gives an overview of a result.
type Summary struct {
	Experiments  int
	Source       MatrixStats
	TargetIpsi   MatrixStats
	TargetContra MatrixStats

	// LaplacianNonzeros counts stored entries across the three Laplacians.
	LaplacianNonzeros int

	Warnings int
}

// Summarize computes the Summary of res.
func Summarize(res *ResultMatrixSet) Summary {
	s := Summary{
		Experiments:  len(res.Rows),
		Source:       matrixStats(res.Source, len(res.Rows), len(res.SourceColumns)),
		TargetIpsi:   matrixStats(res.TargetIpsi, len(res.Rows), len(res.TargetIpsiColumns)),
		TargetContra: matrixStats(res.TargetContra, len(res.Rows), len(res.TargetContraColumns)),
		Warnings:     len(res.Warnings),
	}
	for _, L := range []*laplacian.CSC{res.Lx, res.LyIpsi, res.LyContra} {
		if L != nil {
			s.LaplacianNonzeros += L.NNZ()
		}
	}
	return s
}
