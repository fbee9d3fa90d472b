package connectivity

import (
	"voxelconnect/internal/models"
	"voxelconnect/pkg/laplacian"
	"voxelconnect/pkg/layout"
	"voxelconnect/pkg/logging"
	"voxelconnect/pkg/mask"
)

// VoxelMatrices builds voxel resolution matrices: one column per voxel of
// each source structure's ipsi mask, and per voxel of each target's ipsi or
// contra mask.
//
// Only experiments injected into one of the source structures are used,
// and of those only the ones whose injection density is at least
// SourceCoverage inside the union of the source structures. Structure
// qualification against MinVoxelsPerInjection is reported in
// QualifiedSources but never removes columns.
func (g *Generator) VoxelMatrices() (*ResultMatrixSet, error) {
	r, err := g.newRun()
	if err != nil {
		return nil, err
	}
	tlog := logging.NewTimeLog()

	r.progress("Creating experiment list")
	if err := r.loadExperiments(g.backend, injectedInSource(r.params.SourceIDs)); err != nil {
		return nil, err
	}
	r.progress("Getting region masks")
	if err := r.loadStructures(g.backend); err != nil {
		return nil, err
	}

	r.progress("Checking source coverage of %d experiments", len(r.experiments))
	r.filterByCoverage()
	if len(r.experiments) == 0 {
		return nil, ErrNoExperiments
	}

	sourceMasks := r.masks(r.params.SourceIDs, models.Ipsi)
	ipsiMasks := r.masks(r.params.TargetIDs, models.Ipsi)
	contraMasks := r.masks(r.params.TargetIDs, models.Contra)

	sourceLayout, err := layout.Voxel(r.params.SourceIDs, sourceMasks)
	if err != nil {
		return nil, err
	}
	ipsiLayout, err := layout.Voxel(r.params.TargetIDs, ipsiMasks)
	if err != nil {
		return nil, err
	}
	contraLayout, err := layout.Voxel(r.params.TargetIDs, contraMasks)
	if err != nil {
		return nil, err
	}
	if sourceLayout.Total()+ipsiLayout.Total()+contraLayout.Total() == 0 {
		return nil, ErrEmptyColumnSpace
	}

	r.progress("Getting source densities")
	src, err := r.voxelSource(sourceLayout)
	if err != nil {
		return nil, err
	}
	var qualified []models.StructureID
	for j, ok := range src.qualified {
		if ok {
			qualified = append(qualified, r.params.SourceIDs[j])
			r.progress("structure %d above threshold", r.params.SourceIDs[j])
		}
	}

	r.progress("Getting target densities")
	ipsi, err := r.voxelTarget(models.Ipsi, ipsiLayout)
	if err != nil {
		return nil, err
	}
	contra, err := r.voxelTarget(models.Contra, contraLayout)
	if err != nil {
		return nil, err
	}

	res := &ResultMatrixSet{
		Resolution:          VoxelResolution,
		Source:              src.m,
		TargetIpsi:          ipsi,
		TargetContra:        contra,
		Rows:                r.experimentIDs(),
		SourceColumns:       sourceLayout.Labels(),
		TargetIpsiColumns:   ipsiLayout.Labels(),
		TargetContraColumns: contraLayout.Labels(),
		SourceVoxels:        voxelLabels(sourceLayout, sourceMasks),
		TargetIpsiVoxels:    voxelLabels(ipsiLayout, ipsiMasks),
		TargetContraVoxels:  voxelLabels(contraLayout, contraMasks),
		QualifiedSources:    qualified,
	}

	if r.params.Laplacian {
		r.progress("Getting laplacians")
		res.Lx = laplacian.BlockDiagonal(ordered(sourceLayout, sourceMasks)...)
		res.LyIpsi = laplacian.BlockDiagonal(ordered(ipsiLayout, ipsiMasks)...)
		res.LyContra = laplacian.BlockDiagonal(ordered(contraLayout, contraMasks)...)
	}
	res.Warnings = r.log.Warnings()

	if r.params.Verbose {
		tlog.Infof("Built voxel matrices for %d experiments", len(r.experiments))
	}
	return res, nil
}

func (r *run) masks(ids []models.StructureID, h models.Hemisphere) map[models.StructureID]mask.VoxelMask {
	out := make(map[models.StructureID]mask.VoxelMask, len(ids))
	for _, id := range ids {
		out[id] = r.structures[id].Mask(h)
	}
	return out
}

// ordered lists the masks in the column order of l.
func ordered(l *layout.ColumnLayout, masks map[models.StructureID]mask.VoxelMask) []mask.VoxelMask {
	ids := l.IDs()
	out := make([]mask.VoxelMask, len(ids))
	for k, id := range ids {
		out[k] = masks[id]
	}
	return out
}

// voxelLabels returns the coordinate of every column of l.
func voxelLabels(l *layout.ColumnLayout, masks map[models.StructureID]mask.VoxelMask) []mask.Voxel {
	out := make([]mask.Voxel, 0, l.Total())
	for _, m := range ordered(l, masks) {
		out = append(out, m.Voxels()...)
	}
	return out
}
