// Package density aggregates projection density over voxel masks.
//
// Density volumes carry three sentinel codes in place of measurements.
// All of them are read as zero. NoSignal (-1) is corrected silently while
// MissingTile (-2) and NoData (-3) are reported through a Log so the
// offending experiment can be traced.
package density

import (
	"gonum.org/v1/gonum/floats"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/mask"
)

// tally counts the reportable sentinel codes seen during one aggregation.
type tally struct {
	missingTile int
	noData      int
}

// correct returns v with sentinel codes replaced by zero.
func (t *tally) correct(v float64) float64 {
	switch v {
	case models.NoSignal:
		return 0
	case models.MissingTile:
		t.missingTile++
		return 0
	case models.NoData:
		t.noData++
		return 0
	}
	return v
}

func (t *tally) flush(id models.ExperimentID, log *Log) {
	if t.missingTile > 0 {
		log.record(Warning{Experiment: id, Code: models.MissingTile, Count: t.missingTile})
	}
	if t.noData > 0 {
		log.record(Warning{Experiment: id, Code: models.NoData, Count: t.noData})
	}
}

// Integrated sums the corrected density of e over the voxels of m. An empty
// mask yields 0 without touching the density array.
func Integrated(e *models.Experiment, m mask.VoxelMask, log *Log) float64 {
	if m.Empty() {
		return 0
	}
	var t tally
	values := make([]float64, m.Len())
	m.Each(func(i int, v mask.Voxel) {
		values[i] = t.correct(e.Density.At(v))
	})
	t.flush(e.ID, log)
	return floats.Sum(values)
}

// PerVoxel returns one corrected density value per voxel of region, in
// region order. Voxels of region that are not in relevant are zero and are
// never read from the density array.
func PerVoxel(e *models.Experiment, relevant, region mask.VoxelMask, log *Log) []float64 {
	out := make([]float64, region.Len())
	if relevant.Empty() {
		return out
	}
	var t tally
	region.Each(func(i int, v mask.Voxel) {
		if relevant.Contains(v) {
			out[i] = t.correct(e.Density.At(v))
		}
	})
	t.flush(e.ID, log)
	return out
}
