// Package backend defines the data source consumed by the matrix builders
// and provides an in-memory implementation of it.
package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/mask"
)

// ErrNotFound is returned, wrapped with the offending id, for unknown
// structures and experiments.
var ErrNotFound = errors.New("not found")

// Backend supplies structure masks, experiments and injection footprints.
// Implementations return only the nonzero voxels of each mask.
type Backend interface {
	// StructureMask returns the mask of a structure in hemisphere h.
	StructureMask(id models.StructureID, h models.Hemisphere) (mask.VoxelMask, error)

	// ListExperiments returns the ids of every available experiment.
	ListExperiments() ([]models.ExperimentID, error)

	// Experiment returns the experiment with its density and injection mask.
	// The Shell field is left empty.
	Experiment(id models.ExperimentID) (*models.Experiment, error)

	// InjectionMask returns the injection footprint, dilated when shell is
	// set.
	InjectionMask(id models.ExperimentID, shell bool) (mask.VoxelMask, error)
}

// Structure loads the three masks of a structure.
func Structure(b Backend, id models.StructureID) (*models.Structure, error) {
	s := &models.Structure{ID: id}
	var err error
	if s.Full, err = b.StructureMask(id, models.AllHemispheres); err != nil {
		return nil, err
	}
	if s.Ipsi, err = b.StructureMask(id, models.Ipsi); err != nil {
		return nil, err
	}
	if s.Contra, err = b.StructureMask(id, models.Contra); err != nil {
		return nil, err
	}
	return s, nil
}

// Memory is a Backend held entirely in memory. It is safe for concurrent
// use.
type Memory struct {
	mu          sync.RWMutex
	structures  map[models.StructureID]*models.Structure
	experiments map[models.ExperimentID]*models.Experiment
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		structures:  make(map[models.StructureID]*models.Structure),
		experiments: make(map[models.ExperimentID]*models.Experiment),
	}
}

// AddStructure registers a structure, replacing any previous one with the
// same id.
func (m *Memory) AddStructure(s *models.Structure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structures[s.ID] = s
}

// AddExperiment registers an experiment. Its Shell mask, if any, is served
// by InjectionMask(id, true).
func (m *Memory) AddExperiment(e *models.Experiment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiments[e.ID] = e
}

// StructureMask implements Backend.
func (m *Memory) StructureMask(id models.StructureID, h models.Hemisphere) (mask.VoxelMask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, found := m.structures[id]
	if !found {
		return mask.VoxelMask{}, fmt.Errorf("structure %d: %w", id, ErrNotFound)
	}
	return s.Mask(h), nil
}

// ListExperiments implements Backend. Ids are returned in ascending order.
func (m *Memory) ListExperiments() ([]models.ExperimentID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]models.ExperimentID, 0, len(m.experiments))
	for id := range m.experiments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Experiment implements Backend.
func (m *Memory) Experiment(id models.ExperimentID) (*models.Experiment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, found := m.experiments[id]
	if !found {
		return nil, fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	return &models.Experiment{
		ID:          e.ID,
		StructureID: e.StructureID,
		Density:     e.Density,
		Injection:   e.Injection,
	}, nil
}

// InjectionMask implements Backend.
func (m *Memory) InjectionMask(id models.ExperimentID, shell bool) (mask.VoxelMask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, found := m.experiments[id]
	if !found {
		return mask.VoxelMask{}, fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	if !shell {
		return e.Injection, nil
	}
	if e.Shell.Empty() {
		return mask.VoxelMask{}, fmt.Errorf("injection shell of experiment %d: %w", id, ErrNotFound)
	}
	return e.Shell, nil
}
