package models

import (
	"fmt"

	"voxelconnect/pkg/mask"
)

// Sentinel codes stored in projection density volumes in place of a real
// measurement.
const (
	// NoSignal marks a voxel without signal.
	NoSignal = -1.0

	// MissingTile marks a voxel whose imaging tile is missing.
	MissingTile = -2.0

	// NoData marks a voxel with no data at all. Reads outside a volume's
	// grid also return this code.
	NoData = -3.0
)

// DensityArray is a per-experiment array of projection density values
// addressable by voxel coordinate.
type DensityArray interface {
	At(v mask.Voxel) float64
}

// DensityVolume is a dense projection density grid.
type DensityVolume struct {
	// Data is the 3D volume data as a 1D array in row-major order,
	// x varying fastest.
	Data []float64

	// Width, Height, Depth are the grid extents along x, y, z.
	Width, Height, Depth int
}

// NewDensityVolume returns a zero-filled volume of the given size.
func NewDensityVolume(width, height, depth int) *DensityVolume {
	return &DensityVolume{
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// Validate checks that the data length matches the grid extents.
func (d *DensityVolume) Validate() error {
	if d.Width < 0 || d.Height < 0 || d.Depth < 0 {
		return fmt.Errorf("negative volume extent %dx%dx%d", d.Width, d.Height, d.Depth)
	}
	if want := d.Width * d.Height * d.Depth; len(d.Data) != want {
		return fmt.Errorf("volume %dx%dx%d needs %d values, has %d", d.Width, d.Height, d.Depth, want, len(d.Data))
	}
	return nil
}

func (d *DensityVolume) offset(v mask.Voxel) (int, bool) {
	x, y, z := int(v[0]), int(v[1]), int(v[2])
	if x < 0 || y < 0 || z < 0 || x >= d.Width || y >= d.Height || z >= d.Depth {
		return 0, false
	}
	return z*d.Width*d.Height + y*d.Width + x, true
}

// At returns the stored value at v, or NoData when v lies outside the grid.
func (d *DensityVolume) At(v mask.Voxel) float64 {
	i, ok := d.offset(v)
	if !ok {
		return NoData
	}
	return d.Data[i]
}

// Set stores value at v. Voxels outside the grid are ignored.
func (d *DensityVolume) Set(v mask.Voxel, value float64) {
	if i, ok := d.offset(v); ok {
		d.Data[i] = value
	}
}

// SparseDensity is a density array backed by a map. Voxels that were never
// set read as zero.
type SparseDensity map[mask.Voxel]float64

// At implements DensityArray.
func (s SparseDensity) At(v mask.Voxel) float64 { return s[v] }
