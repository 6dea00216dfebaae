// SPDX-License-Identifier: Apache-2.0

// Package graph derives the phase dependency graph from a plan and validates
// it is acyclic. The graph is rebuilt from the plan every time it is needed;
// it is never mutated in place.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/swarm-oss/swarm/internal/core/models"
)

// Graph maps each phase id to the set of phase ids it depends on.
type Graph map[int]map[int]bool

// Dependents returns the inverted adjacency: phase id to the ids that depend
// on it.
func (g Graph) Dependents() map[int][]int {
	out := make(map[int][]int, len(g))
	for id, deps := range g {
		for dep := range deps {
			out[dep] = append(out[dep], id)
		}
	}
	for dep := range out {
		sort.Ints(out[dep])
	}
	return out
}

// DependsOn reports whether phase id depends (directly) on dep.
func (g Graph) DependsOn(id, dep int) bool {
	return g[id][dep]
}

// IDs returns all node ids in ascending order.
func (g Graph) IDs() []int {
	ids := make([]int, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Build constructs the dependency graph for a plan: explicit DEPENDS edges
// seeded first, then an implicit edge for every pair of phases sharing a file
// path, with the lower id treated as earlier. A pre-existing explicit edge in
// the same direction is not duplicated; an explicit edge in the opposite
// direction is left in place and surfaces as a cycle during detection.
func Build(plan *models.Plan) Graph {
	g := make(Graph, len(plan.Phases))
	for i := range plan.Phases {
		phase := &plan.Phases[i]
		g[phase.ID] = make(map[int]bool, len(phase.DependsOn))
		for _, dep := range phase.DependsOn {
			g[phase.ID][dep] = true
		}
	}

	for i := range plan.Phases {
		for j := i + 1; j < len(plan.Phases); j++ {
			a, b := &plan.Phases[i], &plan.Phases[j]
			if a.ID > b.ID {
				a, b = b, a
			}
			if sharesFile(a, b) {
				g[b.ID][a.ID] = true
			}
		}
	}
	return g
}

func sharesFile(a, b *models.Phase) bool {
	for _, f := range a.Files {
		if b.TouchesFile(f) {
			return true
		}
	}
	return false
}

// CycleError reports one concrete dependency cycle. Phases lists the ids in
// traversal order; the first id is also where the cycle closes.
type CycleError struct {
	Phases []int
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Phases)+1)
	for _, id := range e.Phases {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	parts = append(parts, fmt.Sprintf("%d", e.Phases[0]))
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> "))
}

// DetectCycle checks the graph for cycles via depth-first traversal with an
// on-stack marker set. Roots and neighbors are visited in ascending id order
// so the reported cycle is deterministic across runs. Returns nil for an
// acyclic graph.
func DetectCycle(g Graph) error {
	visited := make(map[int]bool, len(g))
	onStack := make(map[int]bool, len(g))
	var stack []int

	var visit func(id int) *CycleError
	visit = func(id int) *CycleError {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		deps := make([]int, 0, len(g[id]))
		for dep := range g[id] {
			deps = append(deps, dep)
		}
		sort.Ints(deps)

		for _, dep := range deps {
			if onStack[dep] {
				// Cycle closes at dep: report from its first occurrence on
				// the stack through the current node.
				for i, n := range stack {
					if n == dep {
						cycle := make([]int, len(stack)-i)
						copy(cycle, stack[i:])
						return &CycleError{Phases: cycle}
					}
				}
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
		return nil
	}

	for _, id := range g.IDs() {
		if !visited[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
