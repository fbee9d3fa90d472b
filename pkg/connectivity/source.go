package connectivity

import (
	"gonum.org/v1/gonum/mat"

	"voxelconnect/pkg/density"
	"voxelconnect/pkg/layout"
	"voxelconnect/pkg/mask"
)

// sourceMatrix is the unfiltered experiment × source matrix together with
// the per-structure injection threshold outcome.
type sourceMatrix struct {
	m *mat.Dense

	// qualified[j] is set when at least one experiment places
	// MinVoxelsPerInjection or more injection voxels inside the ipsi mask
	// of source structure j.
	qualified []bool
}

// buildSource fills one row per experiment. place writes the density of
// experiment i restricted to the injection/structure intersection into
// column block j.
func (r *run) buildSource(cols int, place func(m *mat.Dense, i, j int, inter, region mask.VoxelMask)) (*sourceMatrix, error) {
	m, err := newMatrix(len(r.experiments), cols)
	if err != nil {
		return nil, err
	}
	sm := &sourceMatrix{m: m, qualified: make([]bool, len(r.params.SourceIDs))}
	if m == nil {
		// no columns to fill, qualification still counts
		place = func(*mat.Dense, int, int, mask.VoxelMask, mask.VoxelMask) {}
	}
	err = r.forEach(len(r.params.SourceIDs), func(j int) error {
		region := r.structures[r.params.SourceIDs[j]].Ipsi
		for i, e := range r.experiments {
			inter := mask.Intersection(e.Injection, region)
			place(m, i, j, inter, region)
			if mask.Cardinality(inter) >= r.params.MinVoxelsPerInjection {
				sm.qualified[j] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sm, nil
}

// regionSource gives each source structure one column holding the
// integrated density inside the injection footprint.
func (r *run) regionSource(l *layout.ColumnLayout) (*sourceMatrix, error) {
	return r.buildSource(l.Total(), func(m *mat.Dense, i, j int, inter, _ mask.VoxelMask) {
		col, _ := l.RangeFor(r.params.SourceIDs[j])
		m.Set(i, col.Start, density.Integrated(r.experiments[i], inter, r.log))
	})
}

// voxelSource gives each source voxel a column; only voxels inside the
// injection footprint carry density.
func (r *run) voxelSource(l *layout.ColumnLayout) (*sourceMatrix, error) {
	return r.buildSource(l.Total(), func(m *mat.Dense, i, j int, inter, region mask.VoxelMask) {
		cols, _ := l.RangeFor(r.params.SourceIDs[j])
		setSegment(m, i, cols.Start, density.PerVoxel(r.experiments[i], inter, region, r.log))
	})
}
