package connectivity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/layout"
	"voxelconnect/pkg/logging"
)

// RegionMatrices builds region resolution matrices: one column per source
// structure and per target structure.
//
// Every source structure must reach MinVoxelsPerInjection in at least one
// experiment, otherwise ErrInsufficientStructures is returned. Experiments
// whose source row sums to zero are dropped. No coverage filter is applied
// and no Laplacian is built.
func (g *Generator) RegionMatrices() (*ResultMatrixSet, error) {
	r, err := g.newRun()
	if err != nil {
		return nil, err
	}
	tlog := logging.NewTimeLog()

	r.progress("Creating experiment list")
	if err := r.loadExperiments(g.backend, nil); err != nil {
		return nil, err
	}
	r.progress("Getting region masks")
	if err := r.loadStructures(g.backend); err != nil {
		return nil, err
	}

	sourceLayout, err := layout.Region(r.params.SourceIDs)
	if err != nil {
		return nil, err
	}
	targetLayout, err := layout.Region(r.params.TargetIDs)
	if err != nil {
		return nil, err
	}

	r.progress("Getting source densities")
	src, err := r.regionSource(sourceLayout)
	if err != nil {
		return nil, err
	}

	var retained []int
	for j, ok := range src.qualified {
		if ok {
			retained = append(retained, j)
		}
	}
	if len(retained) < len(r.params.SourceIDs) {
		return nil, fmt.Errorf("%w: %d of %d structures reach %d injection voxels",
			ErrInsufficientStructures, len(retained), len(r.params.SourceIDs), r.params.MinVoxelsPerInjection)
	}

	var rows []int
	for i := range r.experiments {
		row := mat.Row(nil, i, src.m)
		picked := make([]float64, len(retained))
		for k, j := range retained {
			picked[k] = row[j]
		}
		if floats.Sum(picked) > 0 {
			rows = append(rows, i)
		}
	}

	source, err := newMatrix(len(rows), len(retained))
	if err != nil {
		return nil, err
	}
	kept := make([]*models.Experiment, len(rows))
	for a, i := range rows {
		kept[a] = r.experiments[i]
		for b, j := range retained {
			source.Set(a, b, src.m.At(i, j))
		}
	}
	r.experiments = kept

	sourceColumns := make([]models.StructureID, len(retained))
	for b, j := range retained {
		sourceColumns[b] = r.params.SourceIDs[j]
	}

	r.progress("Getting target densities")
	ipsi, err := r.regionTarget(models.Ipsi, targetLayout)
	if err != nil {
		return nil, err
	}
	contra, err := r.regionTarget(models.Contra, targetLayout)
	if err != nil {
		return nil, err
	}
	if r.params.Verbose {
		tlog.Infof("Built region matrices for %d experiments", len(r.experiments))
	}

	targets := targetLayout.Labels()
	return &ResultMatrixSet{
		Resolution:          RegionResolution,
		Source:              source,
		TargetIpsi:          ipsi,
		TargetContra:        contra,
		Rows:                r.experimentIDs(),
		SourceColumns:       sourceColumns,
		TargetIpsiColumns:   targets,
		TargetContraColumns: targets,
		QualifiedSources:    sourceColumns,
		Warnings:            r.log.Warnings(),
	}, nil
}
