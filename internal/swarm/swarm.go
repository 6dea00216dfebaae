// SPDX-License-Identifier: Apache-2.0

// Package swarm ties the engine together: parse a plan document, derive and
// validate its dependency graph, and compute execution groups against the
// current status store. Commands call this package rather than wiring the
// subpackages themselves.
package swarm

import (
	"sort"
	"strconv"

	"github.com/swarm-oss/swarm/internal/core/models"
	"github.com/swarm-oss/swarm/internal/swarm/graph"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/schedule"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

// Validate parses the plan document and checks the derived dependency graph
// for cycles. Any failure here is fatal for the whole scheduling pass.
func Validate(planPath string) (*models.Plan, graph.Graph, error) {
	parsed, err := plan.ParseFile(planPath)
	if err != nil {
		return nil, nil, err
	}
	g := graph.Build(parsed)
	if err := graph.DetectCycle(g); err != nil {
		return nil, nil, err
	}
	return parsed, g, nil
}

// PhaseSummary is one phase in the parse output. Depends reflects the
// effective dependencies, implicit file-overlap edges included.
type PhaseSummary struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Branch  string   `json:"branch"`
	Depends []int    `json:"depends"`
	Files   []string `json:"files"`
	Group   *string  `json:"group"`
}

// ParseResult is the JSON document printed by `swarm parse`.
type ParseResult struct {
	PlanFile        string                         `json:"plan_file"`
	Phases          []PhaseSummary                 `json:"phases"`
	ExecutionGroups [][]int                        `json:"execution_groups"`
	Status          map[string]models.StatusRecord `json:"status"`
}

// BuildParseResult assembles the parse output for a validated plan, its
// graph, the computed schedule, and the current store contents.
func BuildParseResult(p *models.Plan, g graph.Graph, sched *models.Schedule, store *status.Store) *ParseResult {
	result := &ParseResult{
		PlanFile:        p.Path,
		ExecutionGroups: sched.Groups,
		Status:          make(map[string]models.StatusRecord),
	}

	for i := range p.Phases {
		phase := &p.Phases[i]
		depends := make([]int, 0, len(g[phase.ID]))
		for dep := range g[phase.ID] {
			depends = append(depends, dep)
		}
		sort.Ints(depends)

		summary := PhaseSummary{
			ID:      phase.ID,
			Name:    phase.Name,
			Branch:  phase.Branch,
			Depends: depends,
			Files:   phase.Files,
		}
		if label, ok := sched.Labels[phase.ID]; ok {
			summary.Group = &label
		}
		result.Phases = append(result.Phases, summary)

		if record, err := store.Record(phase.ID); err == nil {
			result.Status[key(phase.ID)] = record
		}
	}
	return result
}

// ComputeSchedule runs a scheduling pass over the graph, excluding phases the
// store already marks DONE. Recomputing from live store contents on every
// call is what makes the ordering guarantee hold across resumes.
func ComputeSchedule(g graph.Graph, store *status.Store) (*models.Schedule, error) {
	return schedule.Compute(g, store.Done())
}

// ReadyPhases returns the plan's phases eligible to start now: PENDING with
// every dependency DONE.
func ReadyPhases(p *models.Plan, g graph.Graph, store *status.Store) []models.Phase {
	var ready []models.Phase
	for _, id := range schedule.Ready(g, store.Statuses()) {
		if phase := p.PhaseByID(id); phase != nil {
			ready = append(ready, *phase)
		}
	}
	return ready
}

func key(id int) string {
	return strconv.Itoa(id)
}
