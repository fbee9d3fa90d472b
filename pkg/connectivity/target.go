package connectivity

import (
	"gonum.org/v1/gonum/mat"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/density"
	"voxelconnect/pkg/layout"
	"voxelconnect/pkg/mask"
)

// buildTarget fills the experiment × target matrix for hemisphere h. The
// experiment's injection footprint (or shell) is removed from every target
// region first, so signal at the injection site never counts as
// projection.
func (r *run) buildTarget(h models.Hemisphere, cols int, place func(m *mat.Dense, i, j int, diff, region mask.VoxelMask)) (*mat.Dense, error) {
	m, err := newMatrix(len(r.experiments), cols)
	if err != nil || m == nil {
		return nil, err
	}
	err = r.forEach(len(r.params.TargetIDs), func(j int) error {
		region := r.structures[r.params.TargetIDs[j]].Mask(h)
		for i, e := range r.experiments {
			diff := mask.Difference(region, e.ExclusionMask(r.params.SourceShell))
			place(m, i, j, diff, region)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *run) regionTarget(h models.Hemisphere, l *layout.ColumnLayout) (*mat.Dense, error) {
	return r.buildTarget(h, l.Total(), func(m *mat.Dense, i, j int, diff, _ mask.VoxelMask) {
		col, _ := l.RangeFor(r.params.TargetIDs[j])
		m.Set(i, col.Start, density.Integrated(r.experiments[i], diff, r.log))
	})
}

func (r *run) voxelTarget(h models.Hemisphere, l *layout.ColumnLayout) (*mat.Dense, error) {
	return r.buildTarget(h, l.Total(), func(m *mat.Dense, i, j int, diff, region mask.VoxelMask) {
		cols, _ := l.RangeFor(r.params.TargetIDs[j])
		setSegment(m, i, cols.Start, density.PerVoxel(r.experiments[i], diff, region, r.log))
	})
}
