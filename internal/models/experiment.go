// Package models holds the plain data types shared by the backends and the
// matrix builders.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"voxelconnect/pkg/mask"
)

// StructureID identifies a brain structure in the ontology.
type StructureID int

// ExperimentID is the LIMS identifier of a tracer experiment.
type ExperimentID int

// Hemisphere selects which part of a structure a mask covers.
type Hemisphere int

const (
	// AllHemispheres is the full structure.
	AllHemispheres Hemisphere = iota

	// Ipsi is the hemisphere ipsilateral to the injections (right).
	Ipsi

	// Contra is the contralateral hemisphere (left).
	Contra
)

func (h Hemisphere) String() string {
	switch h {
	case AllHemispheres:
		return "all"
	case Ipsi:
		return "ipsi"
	case Contra:
		return "contra"
	}
	return "hemisphere(" + strconv.Itoa(int(h)) + ")"
}

// ParseHemisphere is the inverse of Hemisphere.String.
func ParseHemisphere(s string) (Hemisphere, error) {
	switch strings.ToLower(s) {
	case "all":
		return AllHemispheres, nil
	case "ipsi":
		return Ipsi, nil
	case "contra":
		return Contra, nil
	}
	return 0, fmt.Errorf("unknown hemisphere %q", s)
}

// Experiment is one tracer injection with its projection density.
type Experiment struct {
	// ID is the LIMS id.
	ID ExperimentID

	// StructureID is the structure the injection was placed in.
	StructureID StructureID

	// Density holds the per-voxel projection density, possibly containing
	// sentinel codes.
	Density DensityArray

	// Injection is the voxel footprint of the injection.
	Injection mask.VoxelMask

	// Shell is the dilated injection footprint. It is only populated when
	// shell masks were requested.
	Shell mask.VoxelMask
}

// ExclusionMask returns the footprint to carve out of target regions: the
// shell when shell is set, the plain injection otherwise.
func (e *Experiment) ExclusionMask(shell bool) mask.VoxelMask {
	if shell {
		return e.Shell
	}
	return e.Injection
}

// Structure carries the nonzero-voxel masks of one structure.
type Structure struct {
	ID     StructureID
	Full   mask.VoxelMask
	Ipsi   mask.VoxelMask
	Contra mask.VoxelMask
}

// Mask returns the mask for hemisphere h.
func (s *Structure) Mask(h Hemisphere) mask.VoxelMask {
	switch h {
	case Ipsi:
		return s.Ipsi
	case Contra:
		return s.Contra
	}
	return s.Full
}

// ParseStructureIDs parses a comma-separated list of structure ids.
func ParseStructureIDs(s string) ([]StructureID, error) {
	ints, err := parseInts(s)
	if err != nil {
		return nil, err
	}
	ids := make([]StructureID, len(ints))
	for i, v := range ints {
		ids[i] = StructureID(v)
	}
	return ids, nil
}

// ParseExperimentIDs parses a comma-separated list of experiment ids.
func ParseExperimentIDs(s string) ([]ExperimentID, error) {
	ints, err := parseInts(s)
	if err != nil {
		return nil, err
	}
	ids := make([]ExperimentID, len(ints))
	for i, v := range ints {
		ids[i] = ExperimentID(v)
	}
	return ids, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}
