package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/snappy"

	"voxelconnect/pkg/mask"
)

// Blobs are little-endian arrays compressed with snappy.

func encodeFloats(values []float64) []byte {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	return snappy.Encode(nil, raw)
}

func decodeFloats(blob []byte) ([]float64, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("decompressing float blob: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("float blob of %d bytes is not a multiple of 8", len(raw))
	}
	values := make([]float64, len(raw)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return values, nil
}

func encodeMask(m mask.VoxelMask) []byte {
	raw := make([]byte, 0, 12*m.Len())
	m.Each(func(_ int, v mask.Voxel) {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(v[0]))
		raw = binary.LittleEndian.AppendUint32(raw, uint32(v[1]))
		raw = binary.LittleEndian.AppendUint32(raw, uint32(v[2]))
	})
	return snappy.Encode(nil, raw)
}

func decodeMask(blob []byte) (mask.VoxelMask, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return mask.VoxelMask{}, fmt.Errorf("decompressing mask blob: %w", err)
	}
	if len(raw)%12 != 0 {
		return mask.VoxelMask{}, fmt.Errorf("mask blob of %d bytes is not a multiple of 12", len(raw))
	}
	voxels := make([]mask.Voxel, len(raw)/12)
	for i := range voxels {
		off := 12 * i
		voxels[i] = mask.Voxel{
			int32(binary.LittleEndian.Uint32(raw[off:])),
			int32(binary.LittleEndian.Uint32(raw[off+4:])),
			int32(binary.LittleEndian.Uint32(raw[off+8:])),
		}
	}
	return mask.New(voxels...), nil
}
