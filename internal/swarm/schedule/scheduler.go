// SPDX-License-Identifier: Apache-2.0

// Package schedule computes ordered execution groups from a validated
// dependency graph via Kahn's layering. Phases already DONE are treated as
// satisfied dependencies and excluded entirely, which is what makes a
// scheduling pass resumable after an interruption.
package schedule

import (
	"fmt"
	"sort"

	"github.com/swarm-oss/swarm/internal/core/models"
	"github.com/swarm-oss/swarm/internal/swarm/graph"
)

// MaxParallelGroups is the number of label letters available (A-Z).
const MaxParallelGroups = 26

// Compute builds the ordered execution groups for the graph, skipping phases
// in the done set. Within a group, ids are emitted in ascending order for
// reproducible output. The graph must already have passed cycle detection; a
// stuck iteration here means that invariant was violated.
func Compute(g graph.Graph, done map[int]bool) (*models.Schedule, error) {
	inDegree := make(map[int]int)
	for _, id := range g.IDs() {
		if done[id] {
			continue
		}
		degree := 0
		for dep := range g[id] {
			if !done[dep] {
				degree++
			}
		}
		inDegree[id] = degree
	}

	dependents := g.Dependents()

	var groups [][]int
	remaining := len(inDegree)
	for remaining > 0 {
		var group []int
		for id, degree := range inDegree {
			if degree == 0 {
				group = append(group, id)
			}
		}
		if len(group) == 0 {
			return nil, fmt.Errorf("internal error: %d phases remain but none are schedulable (undetected cycle?)", remaining)
		}
		sort.Ints(group)
		groups = append(groups, group)

		for _, id := range group {
			delete(inDegree, id)
			remaining--
			for _, dependent := range dependents[id] {
				if _, ok := inDegree[dependent]; ok {
					inDegree[dependent]--
				}
			}
		}
	}

	labels, err := assignLabels(groups)
	if err != nil {
		return nil, err
	}
	return &models.Schedule{Groups: groups, Labels: labels}, nil
}

// assignLabels gives each parallel group (size > 1) a letter in order of
// appearance. Solo phases carry no label.
func assignLabels(groups [][]int) (map[int]string, error) {
	labels := make(map[int]string)
	next := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		if next >= MaxParallelGroups {
			return nil, fmt.Errorf("too many parallel execution groups (max %d, A-Z)", MaxParallelGroups)
		}
		label := string(rune('A' + next))
		next++
		for _, id := range group {
			labels[id] = label
		}
	}
	return labels, nil
}

// Ready returns the phases in the plan that may start now: status PENDING and
// every dependency DONE. Used by the external orchestration loop between full
// scheduling passes.
func Ready(g graph.Graph, statuses map[int]models.Status) []int {
	var ready []int
	for _, id := range g.IDs() {
		if status, ok := statuses[id]; ok && status != models.StatusPending {
			continue
		}
		eligible := true
		for dep := range g[id] {
			if statuses[dep] != models.StatusDone {
				eligible = false
				break
			}
		}
		if eligible {
			ready = append(ready, id)
		}
	}
	return ready
}
