package connectivity

import (
	"voxelconnect/internal/models"
	"voxelconnect/pkg/density"
	"voxelconnect/pkg/logging"
	"voxelconnect/pkg/mask"
)

// injectedInSource reports whether the injection was placed in one of the
// source structures.
func injectedInSource(sources []models.StructureID) func(*models.Experiment) bool {
	in := make(map[models.StructureID]bool, len(sources))
	for _, id := range sources {
		in[id] = true
	}
	return func(e *models.Experiment) bool { return in[e.StructureID] }
}

// sourceFraction is the share of the experiment's injection density that
// lies inside sources. ok is false when the injection carries no density.
func sourceFraction(e *models.Experiment, sources mask.VoxelMask, log *density.Log) (frac float64, ok bool) {
	total := density.Integrated(e, e.Injection, log)
	if total <= 0 {
		return 0, false
	}
	inside := density.Integrated(e, mask.Intersection(e.Injection, sources), log)
	return inside / total, true
}

// filterByCoverage drops experiments whose injection density is not
// sufficiently contained in the union of the full source masks. Survivors
// keep their order.
func (r *run) filterByCoverage() {
	masks := make([]mask.VoxelMask, len(r.params.SourceIDs))
	for j, id := range r.params.SourceIDs {
		masks[j] = r.structures[id].Full
	}
	sources := mask.Union(masks...)

	kept := r.experiments[:0:0]
	for _, e := range r.experiments {
		frac, ok := sourceFraction(e, sources, r.log)
		if !ok {
			logging.Warningf("experiment %d has no injection density, excluded", e.ID)
			continue
		}
		if frac < r.params.SourceCoverage {
			r.progress("experiment %d excluded, source coverage %.3f < %.3f", e.ID, frac, r.params.SourceCoverage)
			continue
		}
		kept = append(kept, e)
	}
	r.experiments = kept
}
