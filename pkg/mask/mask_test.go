package mask

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomMask draws n voxels from a small cube so that masks overlap often.
func randomMask(r *rand.Rand, n int) VoxelMask {
	voxels := make([]Voxel, n)
	for i := range voxels {
		voxels[i] = Voxel{int32(r.Intn(5)), int32(r.Intn(5)), int32(r.Intn(5))}
	}
	return New(voxels...)
}

func TestNewDropsDuplicates(t *testing.T) {
	m := New(Voxel{1, 0, 0}, Voxel{0, 0, 0}, Voxel{1, 0, 0})
	require.Equal(t, 2, m.Len())
	assert.Equal(t, []Voxel{{1, 0, 0}, {0, 0, 0}}, m.Voxels())

	i, found := m.IndexOf(Voxel{0, 0, 0})
	require.True(t, found)
	assert.Equal(t, 1, i)
}

func TestZeroMask(t *testing.T) {
	var m VoxelMask
	assert.True(t, m.Empty())
	assert.Equal(t, 0, Cardinality(m))
	assert.False(t, m.Contains(Voxel{}))
	assert.True(t, Union(m, m).Empty())
	assert.True(t, Intersection(m, New(Voxel{})).Empty())
}

func TestOrdering(t *testing.T) {
	a := New(Voxel{3, 0, 0}, Voxel{1, 0, 0}, Voxel{2, 0, 0})
	b := New(Voxel{2, 0, 0}, Voxel{3, 0, 0}, Voxel{9, 0, 0})

	assert.Equal(t, []Voxel{{3, 0, 0}, {2, 0, 0}}, Intersection(a, b).Voxels())
	assert.Equal(t, []Voxel{{1, 0, 0}}, Difference(a, b).Voxels())
	assert.Equal(t, []Voxel{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}, {9, 0, 0}}, Union(a, b).Voxels())
}

func TestDifferenceWithSelfIsEmpty(t *testing.T) {
	a := New(Voxel{0, 0, 0}, Voxel{0, 1, 0})
	assert.True(t, Difference(a, a).Empty())
}

func TestAlgebraProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		a := randomMask(r, r.Intn(40))
		b := randomMask(r, r.Intn(40))
		c := randomMask(r, r.Intn(40))

		inter := Intersection(a, b)
		diff := Difference(a, b)

		assert.LessOrEqual(t, Cardinality(inter), min(Cardinality(a), Cardinality(b)))

		// difference and intersection partition a
		assert.Equal(t, Cardinality(a), Cardinality(inter)+Cardinality(diff))
		assert.True(t, Intersection(inter, diff).Empty())
		assert.True(t, Equal(a, Union(inter, diff)))

		assert.True(t, Equal(Intersection(a, b), Intersection(b, a)))
		assert.True(t, Equal(Union(a, b), Union(b, a)))
		assert.True(t, Equal(Intersection(Intersection(a, b), c), Intersection(a, Intersection(b, c))))
		assert.True(t, Equal(Union(Union(a, b), c), Union(a, Union(b, c))))

		if !a.Empty() {
			assert.Positive(t, Cardinality(a))
		}
	}
}
