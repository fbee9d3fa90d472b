// Package store keeps structure masks, experiments and saved result groups
// in a SQLite database inside a data directory.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	_ "github.com/mattn/go-sqlite3"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/backend"
	"voxelconnect/pkg/logging"
	"voxelconnect/pkg/mask"
)

// DBName is the database file inside a data directory.
const DBName = "connectivity.db"

// Store is the SQLite data access layer. It implements backend.Backend.
type Store struct {
	db *sql.DB
}

var _ backend.Backend = (*Store)(nil)

// Open opens the database of an existing data directory.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, DBName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open data directory %s: %w", dataDir, err)
	}
	return open(path)
}

// Create opens the database of dataDir, creating the directory and the
// schema when needed.
func Create(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dataDir, err)
	}
	s, err := open(filepath.Join(dataDir, DBName))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS structure_masks (
  structure_id  INTEGER NOT NULL,
  hemisphere    INTEGER NOT NULL,
  voxels        BLOB NOT NULL,
  PRIMARY KEY (structure_id, hemisphere)
);

CREATE TABLE IF NOT EXISTS experiments (
  id            INTEGER PRIMARY KEY,
  structure_id  INTEGER NOT NULL,
  width         INTEGER NOT NULL,
  height        INTEGER NOT NULL,
  depth         INTEGER NOT NULL,
  density       BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS injection_masks (
  experiment_id INTEGER NOT NULL REFERENCES experiments(id),
  shell         INTEGER NOT NULL,
  voxels        BLOB NOT NULL,
  PRIMARY KEY (experiment_id, shell)
);

CREATE TABLE IF NOT EXISTS groups (
  name          TEXT NOT NULL,
  key           TEXT NOT NULL,
  value         BLOB NOT NULL,
  PRIMARY KEY (name, key)
);
`

// PutStructure stores the three masks of a structure.
func (s *Store) PutStructure(st *models.Structure) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, h := range []models.Hemisphere{models.AllHemispheres, models.Ipsi, models.Contra} {
		_, err := tx.Exec(`INSERT OR REPLACE INTO structure_masks (structure_id, hemisphere, voxels) VALUES (?, ?, ?)`,
			int(st.ID), int(h), encodeMask(st.Mask(h)))
		if err != nil {
			return fmt.Errorf("insert structure %d %s mask: %w", st.ID, h, err)
		}
	}
	return tx.Commit()
}

// PutExperiment stores an experiment, its injection mask and, when set, its
// shell mask. The density must be a *models.DensityVolume.
func (s *Store) PutExperiment(e *models.Experiment) error {
	vol, ok := e.Density.(*models.DensityVolume)
	if !ok {
		return fmt.Errorf("experiment %d: density of type %T cannot be stored", e.ID, e.Density)
	}
	if err := vol.Validate(); err != nil {
		return fmt.Errorf("experiment %d: %w", e.ID, err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO experiments (id, structure_id, width, height, depth, density) VALUES (?, ?, ?, ?, ?, ?)`,
		int(e.ID), int(e.StructureID), vol.Width, vol.Height, vol.Depth, encodeFloats(vol.Data))
	if err != nil {
		return fmt.Errorf("insert experiment %d: %w", e.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM injection_masks WHERE experiment_id = ?`, int(e.ID)); err != nil {
		return fmt.Errorf("clear injection masks of %d: %w", e.ID, err)
	}
	masks := map[bool]mask.VoxelMask{false: e.Injection}
	if !e.Shell.Empty() {
		masks[true] = e.Shell
	}
	for shell, m := range masks {
		_, err := tx.Exec(`INSERT INTO injection_masks (experiment_id, shell, voxels) VALUES (?, ?, ?)`,
			int(e.ID), shell, encodeMask(m))
		if err != nil {
			return fmt.Errorf("insert injection mask of %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// StructureMask implements backend.Backend.
func (s *Store) StructureMask(id models.StructureID, h models.Hemisphere) (mask.VoxelMask, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT voxels FROM structure_masks WHERE structure_id = ? AND hemisphere = ?`,
		int(id), int(h)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return mask.VoxelMask{}, fmt.Errorf("structure %d %s mask: %w", id, h, backend.ErrNotFound)
	}
	if err != nil {
		return mask.VoxelMask{}, fmt.Errorf("query structure %d: %w", id, err)
	}
	return decodeMask(blob)
}

// ListExperiments implements backend.Backend. Ids are ascending.
func (s *Store) ListExperiments() ([]models.ExperimentID, error) {
	rows, err := s.db.Query(`SELECT id FROM experiments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()
	var ids []models.ExperimentID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan experiment id: %w", err)
		}
		ids = append(ids, models.ExperimentID(id))
	}
	return ids, rows.Err()
}

// Experiment implements backend.Backend.
func (s *Store) Experiment(id models.ExperimentID) (*models.Experiment, error) {
	var (
		structureID int
		blob        []byte
		vol         models.DensityVolume
	)
	err := s.db.QueryRow(`SELECT structure_id, width, height, depth, density FROM experiments WHERE id = ?`, int(id)).
		Scan(&structureID, &vol.Width, &vol.Height, &vol.Depth, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("experiment %d: %w", id, backend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query experiment %d: %w", id, err)
	}
	logging.Debugf("experiment %d: %s of compressed density", id, humanize.Bytes(uint64(len(blob))))
	if vol.Data, err = decodeFloats(blob); err != nil {
		return nil, fmt.Errorf("experiment %d: %w", id, err)
	}
	if err := vol.Validate(); err != nil {
		return nil, fmt.Errorf("experiment %d: %w", id, err)
	}
	injection, err := s.InjectionMask(id, false)
	if err != nil {
		return nil, err
	}
	return &models.Experiment{
		ID:          id,
		StructureID: models.StructureID(structureID),
		Density:     &vol,
		Injection:   injection,
	}, nil
}

// InjectionMask implements backend.Backend.
func (s *Store) InjectionMask(id models.ExperimentID, shell bool) (mask.VoxelMask, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT voxels FROM injection_masks WHERE experiment_id = ? AND shell = ?`, int(id), shell).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return mask.VoxelMask{}, fmt.Errorf("injection mask of experiment %d (shell=%t): %w", id, shell, backend.ErrNotFound)
	}
	if err != nil {
		return mask.VoxelMask{}, fmt.Errorf("query injection mask of %d: %w", id, err)
	}
	return decodeMask(blob)
}
