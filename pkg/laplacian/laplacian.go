// Package laplacian builds combinatorial graph Laplacians over the
// 6-connectivity voxel grid of a region.
//
// For a mask with voxels v_0..v_n-1 (in mask order) the Laplacian L has
// L[i][j] = 1 when v_i and v_j are axis neighbors and L[i][i] = -deg(v_i).
// There is no weighting or normalization.
package laplacian

import "voxelconnect/pkg/mask"

// neighborOffsets are the six axis-aligned neighbor directions.
var neighborOffsets = [6]mask.Voxel{
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
}

// BlockDiagonal returns the block-diagonal concatenation of the Laplacians
// of each region, in argument order. Row and column i correspond to the
// i-th voxel when the regions' voxels are laid end to end.
func BlockDiagonal(regions ...mask.VoxelMask) *CSC {
	n := 0
	for _, m := range regions {
		n += m.Len()
	}
	b := NewBuilder(n, n)
	offset := 0
	for _, m := range regions {
		addRegion(b, m, offset)
		offset += m.Len()
	}
	return b.Compress()
}

func addRegion(b *Builder, m mask.VoxelMask, offset int) {
	m.Each(func(i int, v mask.Voxel) {
		deg := 0
		for _, d := range neighborOffsets {
			j, found := m.IndexOf(v.Add(d))
			if !found {
				continue
			}
			deg++
			b.Add(offset+i, offset+j, 1)
		}
		b.Add(offset+i, offset+i, -float64(deg))
	})
}
