// Package progress computes phase-weighted completion percentages for
// collection tasks. It is pure: no I/O, no clocks, no shared state.
package progress

import (
	"fmt"
	"math"
)

// Phase is one of the three sequential stages of a collection task.
type Phase string

const (
	PhaseGroups   Phase = "groups"
	PhasePosts    Phase = "posts"
	PhaseComments Phase = "comments"
)

// Phase weights. They must sum to exactly 1.0.
const (
	GroupsWeight   = 0.10
	PostsWeight    = 0.30
	CommentsWeight = 0.60
)

// phaseOrder fixes the order phases complete in.
var phaseOrder = []Phase{PhaseGroups, PhasePosts, PhaseComments}

// Metrics holds the raw per-phase counters a snapshot is computed from.
// Totals may be estimates while a run is still in flight.
type Metrics struct {
	GroupsTotal       int
	GroupsProcessed   int
	PostsTotal        int
	PostsProcessed    int
	CommentsTotal     int
	CommentsProcessed int
}

// PhaseSnapshot describes one phase's contribution to overall progress.
type PhaseSnapshot struct {
	Weight    float64 `json:"weight"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

// Snapshot is the externally visible progress of one task.
type Snapshot struct {
	Percentage int                     `json:"percentage"`
	Phase      Phase                   `json:"phase"`
	Phases     map[Phase]PhaseSnapshot `json:"phases"`
}

// Calculate maps raw counters to a 0-100 percentage plus a per-phase
// breakdown. Each phase is clamped to 1.0 so estimation bugs upstream
// can never report more than 100%.
func Calculate(m Metrics) Snapshot {
	phases := map[Phase]PhaseSnapshot{
		PhaseGroups:   phaseSnapshot(GroupsWeight, m.GroupsProcessed, m.GroupsTotal),
		PhasePosts:    phaseSnapshot(PostsWeight, m.PostsProcessed, m.PostsTotal),
		PhaseComments: phaseSnapshot(CommentsWeight, m.CommentsProcessed, m.CommentsTotal),
	}

	weighted := 0.0
	for _, p := range phases {
		weighted += p.Weight * p.Progress
	}

	current := PhaseComments
	for _, name := range phaseOrder {
		if !phases[name].Completed {
			current = name
			break
		}
	}

	return Snapshot{
		Percentage: int(math.Round(100 * weighted)),
		Phase:      current,
		Phases:     phases,
	}
}

// ValidateMetrics returns human-readable warnings for counter states
// that indicate an upstream estimation bug. Warnings never abort a run.
func ValidateMetrics(m Metrics) []string {
	var warnings []string

	checks := []struct {
		phase     Phase
		processed int
		total     int
	}{
		{PhaseGroups, m.GroupsProcessed, m.GroupsTotal},
		{PhasePosts, m.PostsProcessed, m.PostsTotal},
		{PhaseComments, m.CommentsProcessed, m.CommentsTotal},
	}

	for _, c := range checks {
		if c.total > 0 && c.processed > c.total {
			warnings = append(warnings, fmt.Sprintf(
				"phase %s: processed count %d exceeds total %d", c.phase, c.processed, c.total))
		}
		if c.processed < 0 || c.total < 0 {
			warnings = append(warnings, fmt.Sprintf(
				"phase %s: negative counter (processed=%d total=%d)", c.phase, c.processed, c.total))
		}
	}

	return warnings
}

func phaseSnapshot(weight float64, processed, total int) PhaseSnapshot {
	var p float64
	switch {
	case total > 0:
		p = math.Min(float64(processed)/float64(total), 1.0)
	case processed > 0:
		p = 1.0
	}

	return PhaseSnapshot{
		Weight:    weight,
		Progress:  p,
		Completed: p >= 1.0,
	}
}
