package density

import (
	"fmt"
	"sort"
	"sync"

	"voxelconnect/internal/models"
	"voxelconnect/pkg/logging"
)

// Warning reports sentinel codes met while aggregating one experiment.
type Warning struct {
	Experiment models.ExperimentID
	Code       float64
	Count      int
}

func (w Warning) String() string {
	reason := "unknown code"
	switch w.Code {
	case models.MissingTile:
		reason = "missing tile"
	case models.NoData:
		reason = "no data"
	}
	return fmt.Sprintf("projection density error %g, %s in LIMS experiment %d (%d voxels)",
		w.Code, reason, w.Experiment, w.Count)
}

// Log collects warnings. It is safe for concurrent use and a nil *Log
// discards everything.
type Log struct {
	mu       sync.Mutex
	warnings []Warning
}

func (l *Log) record(w Warning) {
	if l == nil {
		return
	}
	logging.Warningf("%s", w)
	l.mu.Lock()
	l.warnings = append(l.warnings, w)
	l.mu.Unlock()
}

// Warnings returns a copy of the recorded warnings ordered by experiment,
// code and count, independent of the order they were recorded in.
func (l *Log) Warnings() []Warning {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Experiment != b.Experiment {
			return a.Experiment < b.Experiment
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Count < b.Count
	})
	return out
}

// Len is the number of recorded warnings.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}
