package store

import (
	"fmt"
)

// WriteGroup stores every entry of fields under the group name, replacing
// entries with the same key.
func (s *Store) WriteGroup(name string, fields map[string][]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for key, values := range fields {
		_, err := tx.Exec(`INSERT OR REPLACE INTO groups (name, key, value) VALUES (?, ?, ?)`,
			name, key, encodeFloats(values))
		if err != nil {
			return fmt.Errorf("write %s/%s: %w", name, key, err)
		}
	}
	return tx.Commit()
}

// ReadGroup returns every entry stored under the group name. An unknown
// group reads as an empty map.
func (s *Store) ReadGroup(name string) (map[string][]float64, error) {
	rows, err := s.db.Query(`SELECT key, value FROM groups WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("query group %s: %w", name, err)
	}
	defer rows.Close()
	fields := make(map[string][]float64)
	for rows.Next() {
		var (
			key  string
			blob []byte
		)
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("scan group %s: %w", name, err)
		}
		if fields[key], err = decodeFloats(blob); err != nil {
			return nil, fmt.Errorf("group %s/%s: %w", name, key, err)
		}
	}
	return fields, rows.Err()
}

// Groups lists the stored group names.
func (s *Store) Groups() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT name FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
