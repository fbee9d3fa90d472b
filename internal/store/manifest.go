package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/logging"
	"voxelconnect/pkg/mask"
)

// Manifest describes structures and experiments to load into a data
// directory. Voxels are written as [x, y, z] triples.
type Manifest struct {
	Structures  []StructureEntry  `yaml:"structures"`
	Experiments []ExperimentEntry `yaml:"experiments"`
}

// StructureEntry lists the voxels of one structure by hemisphere. The full
// mask is their union.
type StructureEntry struct {
	ID     int       `yaml:"id"`
	Ipsi   [][]int32 `yaml:"ipsi"`
	Contra [][]int32 `yaml:"contra"`
}

// DensityEntry sets the density of one voxel. Unlisted voxels are zero.
type DensityEntry struct {
	Voxel []int32 `yaml:"voxel"`
	Value float64 `yaml:"value"`
}

// ExperimentEntry is one experiment with a sparse density listing.
type ExperimentEntry struct {
	ID        int            `yaml:"id"`
	Structure int            `yaml:"structure"`
	Width     int            `yaml:"width"`
	Height    int            `yaml:"height"`
	Depth     int            `yaml:"depth"`
	Density   []DensityEntry `yaml:"density"`
	Injection [][]int32      `yaml:"injection"`
	Shell     [][]int32      `yaml:"shell"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func toVoxel(t []int32) (mask.Voxel, error) {
	if len(t) != 3 {
		return mask.Voxel{}, fmt.Errorf("voxel %v needs 3 coordinates", t)
	}
	return mask.Voxel{t[0], t[1], t[2]}, nil
}

func toMask(triples [][]int32) (mask.VoxelMask, error) {
	voxels := make([]mask.Voxel, 0, len(triples))
	for _, t := range triples {
		v, err := toVoxel(t)
		if err != nil {
			return mask.VoxelMask{}, err
		}
		voxels = append(voxels, v)
	}
	return mask.New(voxels...), nil
}

// Structure converts the entry into a models.Structure.
func (e *StructureEntry) Structure() (*models.Structure, error) {
	ipsi, err := toMask(e.Ipsi)
	if err != nil {
		return nil, fmt.Errorf("structure %d ipsi: %w", e.ID, err)
	}
	contra, err := toMask(e.Contra)
	if err != nil {
		return nil, fmt.Errorf("structure %d contra: %w", e.ID, err)
	}
	return &models.Structure{
		ID:     models.StructureID(e.ID),
		Full:   mask.Union(ipsi, contra),
		Ipsi:   ipsi,
		Contra: contra,
	}, nil
}

// Experiment converts the entry into a models.Experiment backed by a dense
// volume. Density voxels outside the grid are rejected.
func (e *ExperimentEntry) Experiment() (*models.Experiment, error) {
	if e.Width <= 0 || e.Height <= 0 || e.Depth <= 0 {
		return nil, fmt.Errorf("experiment %d: bad grid %dx%dx%d", e.ID, e.Width, e.Height, e.Depth)
	}
	vol := models.NewDensityVolume(e.Width, e.Height, e.Depth)
	for _, d := range e.Density {
		v, err := toVoxel(d.Voxel)
		if err != nil {
			return nil, fmt.Errorf("experiment %d density: %w", e.ID, err)
		}
		if int(v.X()) >= e.Width || int(v.Y()) >= e.Height || int(v.Z()) >= e.Depth || v.X() < 0 || v.Y() < 0 || v.Z() < 0 {
			return nil, fmt.Errorf("experiment %d density: voxel %s outside grid", e.ID, v)
		}
		vol.Set(v, d.Value)
	}
	injection, err := toMask(e.Injection)
	if err != nil {
		return nil, fmt.Errorf("experiment %d injection: %w", e.ID, err)
	}
	shell, err := toMask(e.Shell)
	if err != nil {
		return nil, fmt.Errorf("experiment %d shell: %w", e.ID, err)
	}
	return &models.Experiment{
		ID:          models.ExperimentID(e.ID),
		StructureID: models.StructureID(e.Structure),
		Density:     vol,
		Injection:   injection,
		Shell:       shell,
	}, nil
}

// Import stores every structure and experiment of m. Entries already present
// are replaced.
func (s *Store) Import(m *Manifest) error {
	for i := range m.Structures {
		st, err := m.Structures[i].Structure()
		if err != nil {
			return err
		}
		if err := s.PutStructure(st); err != nil {
			return err
		}
	}
	for i := range m.Experiments {
		e, err := m.Experiments[i].Experiment()
		if err != nil {
			return err
		}
		if err := s.PutExperiment(e); err != nil {
			return err
		}
	}
	logging.Infof("Imported %d structures and %d experiments", len(m.Structures), len(m.Experiments))
	return nil
}
