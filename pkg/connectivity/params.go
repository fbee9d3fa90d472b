package connectivity

import (
	"errors"
	"fmt"
	"runtime"

	"voxelconnect/internal/models"
)

var (
	// ErrInvalidParams reports unusable parameters.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrInsufficientStructures is returned in region mode when fewer source
	// structures reach the injection threshold than were requested.
	ErrInsufficientStructures = errors.New("fewer source structures above injection threshold than requested")

	// ErrNoExperiments is returned when no experiment survives filtering.
	ErrNoExperiments = errors.New("no experiments left after filtering")

	// ErrEmptyColumnSpace is returned when the source and both target
	// spaces are all without columns.
	ErrEmptyColumnSpace = errors.New("matrix space has no columns")
)

// Params holds the matrix generation parameters.
type Params struct {
	// SourceIDs are the source structures, in column order.
	SourceIDs []models.StructureID

	// TargetIDs are the target structures, in column order.
	TargetIDs []models.StructureID

	// MinVoxelsPerInjection is the number of injection voxels an experiment
	// must place inside a source structure for that structure to qualify.
	MinVoxelsPerInjection int

	// SourceCoverage is the fraction of an experiment's injection density
	// that must fall inside the union of source structures. Voxel
	// resolution only.
	SourceCoverage float64

	// ExperimentIDs restricts the run to these experiments. Nil means every
	// experiment the backend lists.
	ExperimentIDs []models.ExperimentID

	// SourceShell carves the dilated injection footprint, rather than the
	// plain one, out of target regions.
	SourceShell bool

	// Laplacian requests the source and target Laplacians. Voxel resolution
	// only.
	Laplacian bool

	// Verbose enables progress output.
	Verbose bool

	// NumCores bounds how many structures are processed at once. Values
	// below 2 run sequentially.
	NumCores int
}

// DefaultParams returns parameters with the standard thresholds and no
// structures selected.
func DefaultParams() *Params {
	return &Params{
		MinVoxelsPerInjection: 50,
		SourceCoverage:        0.8,
		NumCores:              runtime.NumCPU(),
	}
}

// Validate checks the parameters before any backend access.
func (p *Params) Validate() error {
	if len(p.SourceIDs) == 0 {
		return fmt.Errorf("%w: no source structures", ErrInvalidParams)
	}
	if len(p.TargetIDs) == 0 {
		return fmt.Errorf("%w: no target structures", ErrInvalidParams)
	}
	if err := unique("source structure", p.SourceIDs); err != nil {
		return err
	}
	if err := unique("target structure", p.TargetIDs); err != nil {
		return err
	}
	if err := unique("experiment", p.ExperimentIDs); err != nil {
		return err
	}
	if p.MinVoxelsPerInjection < 0 {
		return fmt.Errorf("%w: negative min voxels per injection %d", ErrInvalidParams, p.MinVoxelsPerInjection)
	}
	if p.SourceCoverage < 0 || p.SourceCoverage > 1 {
		return fmt.Errorf("%w: source coverage %g outside [0,1]", ErrInvalidParams, p.SourceCoverage)
	}
	return nil
}

func unique[T comparable](what string, ids []T) error {
	seen := make(map[T]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: %s %v listed twice", ErrInvalidParams, what, id)
		}
		seen[id] = true
	}
	return nil
}
