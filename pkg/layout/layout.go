// Package layout assigns matrix columns to structures.
//
// Each matrix space (source, target-ipsi, target-contra) gets its own
// ColumnLayout. Structures occupy contiguous half-open ranges in the order
// they were listed, without gaps or overlaps.
package layout

import (
	"fmt"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/mask"
)

// Range is the half-open column interval [Start, End).
type Range struct {
	Start, End int
}

// Len is the number of columns in the range.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// ColumnLayout maps structure ids to column ranges.
type ColumnLayout struct {
	ids    []models.StructureID
	ranges map[models.StructureID]Range
	total  int
}

func build(ids []models.StructureID, width func(models.StructureID) int) (*ColumnLayout, error) {
	l := &ColumnLayout{
		ids:    make([]models.StructureID, 0, len(ids)),
		ranges: make(map[models.StructureID]Range, len(ids)),
	}
	for _, id := range ids {
		if _, found := l.ranges[id]; found {
			return nil, fmt.Errorf("structure %d listed twice", id)
		}
		w := width(id)
		l.ranges[id] = Range{Start: l.total, End: l.total + w}
		l.ids = append(l.ids, id)
		l.total += w
	}
	return l, nil
}

// Region gives every structure exactly one column.
func Region(ids []models.StructureID) (*ColumnLayout, error) {
	return build(ids, func(models.StructureID) int { return 1 })
}

// Voxel gives every structure one column per voxel of its mask.
func Voxel(ids []models.StructureID, masks map[models.StructureID]mask.VoxelMask) (*ColumnLayout, error) {
	for _, id := range ids {
		if _, found := masks[id]; !found {
			return nil, fmt.Errorf("no mask for structure %d", id)
		}
	}
	return build(ids, func(id models.StructureID) int { return masks[id].Len() })
}

// RangeFor returns the columns owned by id.
func (l *ColumnLayout) RangeFor(id models.StructureID) (Range, bool) {
	r, found := l.ranges[id]
	return r, found
}

// Total is the column count of the whole space.
func (l *ColumnLayout) Total() int { return l.total }

// IDs returns the structures in column order.
func (l *ColumnLayout) IDs() []models.StructureID {
	out := make([]models.StructureID, len(l.ids))
	copy(out, l.ids)
	return out
}

// Labels returns the owning structure of every column.
func (l *ColumnLayout) Labels() []models.StructureID {
	labels := make([]models.StructureID, l.total)
	for _, id := range l.ids {
		r := l.ranges[id]
		for c := r.Start; c < r.End; c++ {
			labels[c] = id
		}
	}
	return labels
}
