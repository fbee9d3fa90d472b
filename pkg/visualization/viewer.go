package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"voxelconnect/pkg/mask"
)

// Viewer renders per-voxel values, such as one row of a voxel resolution
// matrix, as grayscale slices. The values are placed in the bounding box of
// their voxels and scaled so that the largest value is white.
type Viewer struct {
	// volumeData holds the scaled values as a dense volume, x fastest
	volumeData []float64

	// dimensions of the bounding box
	width  int
	height int
	depth  int

	// origin is the voxel at index 0 of the volume
	origin mask.Voxel
}

// NewViewer places values[i] at voxels[i]. Voxels outside the list stay black.
func NewViewer(values []float64, voxels []mask.Voxel) (*Viewer, error) {
	if len(values) != len(voxels) {
		return nil, fmt.Errorf("%d values for %d voxels", len(values), len(voxels))
	}
	if len(voxels) == 0 {
		return nil, fmt.Errorf("no voxels to view")
	}

	lo, hi := voxels[0], voxels[0]
	for _, v := range voxels[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	viewer := &Viewer{
		width:  int(hi[0]-lo[0]) + 1,
		height: int(hi[1]-lo[1]) + 1,
		depth:  int(hi[2]-lo[2]) + 1,
		origin: lo,
	}
	viewer.volumeData = make([]float64, viewer.width*viewer.height*viewer.depth)

	scale := 1.0
	if peak := floats.Max(values); peak > 0 {
		scale = 1 / peak
	}
	for i, v := range voxels {
		viewer.volumeData[viewer.index(v)] = values[i] * scale
	}
	return viewer, nil
}

func (v *Viewer) index(vox mask.Voxel) int {
	d := vox.Add(mask.Voxel{-v.origin[0], -v.origin[1], -v.origin[2]})
	return int(d[2])*v.width*v.height + int(d[1])*v.width + int(d[0])
}

// Dims returns the bounding box extents along x, y and z.
func (v *Viewer) Dims() (width, height, depth int) {
	return v.width, v.height, v.depth
}

// Origin returns the smallest corner of the bounding box.
func (v *Viewer) Origin() mask.Voxel { return v.origin }

func gray(value float64) color.Gray16 {
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, value*65535)))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
// position is relative to the bounding box origin.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetGray16(z, y, gray(v.volumeData[z*v.width*v.height+y*v.width+position]))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, z, gray(v.volumeData[z*v.width*v.height+position*v.width+x]))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, y, gray(v.volumeData[position*v.width*v.height+y*v.width+x]))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
// and returns how many were written.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) (int, error) {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, err
		}
	}

	return maxPos, nil
}
