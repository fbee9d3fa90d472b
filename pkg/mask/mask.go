// Package mask implements voxel-coordinate masks and the set algebra used to
// restrict density measurements to regions and injection footprints.
//
// A VoxelMask is an immutable set of distinct grid coordinates that also
// remembers the order in which its voxels were supplied. That order is what
// matrix columns and per-voxel vectors are indexed by, so every operation
// documents how it orders its result.
package mask

import "fmt"

// Voxel is a single integer grid coordinate (x, y, z).
type Voxel [3]int32

// X returns the first coordinate.
func (v Voxel) X() int32 { return v[0] }

// Y returns the second coordinate.
func (v Voxel) Y() int32 { return v[1] }

// Z returns the third coordinate.
func (v Voxel) Z() int32 { return v[2] }

// Add returns the voxel offset by d.
func (v Voxel) Add(d Voxel) Voxel {
	return Voxel{v[0] + d[0], v[1] + d[1], v[2] + d[2]}
}

func (v Voxel) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v[0], v[1], v[2])
}

// VoxelMask is an ordered set of distinct voxels. The zero value is the
// empty mask. Masks are never modified after construction.
type VoxelMask struct {
	voxels []Voxel
	index  map[Voxel]int
}

// New returns a mask holding the given voxels in order of first appearance.
// Repeated voxels are dropped.
func New(voxels ...Voxel) VoxelMask {
	m := VoxelMask{
		voxels: make([]Voxel, 0, len(voxels)),
		index:  make(map[Voxel]int, len(voxels)),
	}
	for _, v := range voxels {
		m.add(v)
	}
	return m
}

func (m *VoxelMask) add(v Voxel) {
	if _, found := m.index[v]; found {
		return
	}
	m.index[v] = len(m.voxels)
	m.voxels = append(m.voxels, v)
}

// Len is the number of voxels in the mask.
func (m VoxelMask) Len() int { return len(m.voxels) }

// Empty reports whether the mask holds no voxels.
func (m VoxelMask) Empty() bool { return len(m.voxels) == 0 }

// Contains reports whether v belongs to the mask.
func (m VoxelMask) Contains(v Voxel) bool {
	_, found := m.index[v]
	return found
}

// IndexOf returns the position of v in the mask ordering.
func (m VoxelMask) IndexOf(v Voxel) (int, bool) {
	i, found := m.index[v]
	return i, found
}

// At returns the i-th voxel of the mask ordering.
func (m VoxelMask) At(i int) Voxel { return m.voxels[i] }

// Voxels returns a copy of the voxels in mask order.
func (m VoxelMask) Voxels() []Voxel {
	out := make([]Voxel, len(m.voxels))
	copy(out, m.voxels)
	return out
}

// Each calls fn for every voxel in mask order.
func (m VoxelMask) Each(fn func(i int, v Voxel)) {
	for i, v := range m.voxels {
		fn(i, v)
	}
}

// Cardinality returns the voxel count of m.
func Cardinality(m VoxelMask) int { return m.Len() }

// Intersection returns the voxels of a that are also in b, in a's order.
func Intersection(a, b VoxelMask) VoxelMask {
	if a.Empty() || b.Empty() {
		return VoxelMask{}
	}
	out := New()
	for _, v := range a.voxels {
		if b.Contains(v) {
			out.add(v)
		}
	}
	return out
}

// Union returns every voxel present in any of the masks, ordered by first
// appearance across the arguments.
func Union(masks ...VoxelMask) VoxelMask {
	n := 0
	for _, m := range masks {
		n += m.Len()
	}
	out := VoxelMask{voxels: make([]Voxel, 0, n), index: make(map[Voxel]int, n)}
	for _, m := range masks {
		for _, v := range m.voxels {
			out.add(v)
		}
	}
	return out
}

// Difference returns the voxels of a that are not in b, in a's order.
func Difference(a, b VoxelMask) VoxelMask {
	if b.Empty() {
		return a
	}
	out := New()
	for _, v := range a.voxels {
		if !b.Contains(v) {
			out.add(v)
		}
	}
	return out
}

// Equal reports whether a and b hold the same voxels, ignoring order.
func Equal(a, b VoxelMask) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, v := range a.voxels {
		if !b.Contains(v) {
			return false
		}
	}
	return true
}
