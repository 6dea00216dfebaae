// SPDX-License-Identifier: Apache-2.0

package models

import (
	"sort"
	"time"
)

// Phase represents a single unit of work parsed from a plan document.
type Phase struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Branch             string   `json:"branch"`
	Files              []string `json:"files"`
	DependsOn          []int    `json:"depends"`
	Scope              string   `json:"-"`
	AcceptanceCriteria string   `json:"-"`
	TestsRequired      string   `json:"-"`
}

// HasDependency reports whether the phase explicitly depends on the given id.
func (p *Phase) HasDependency(id int) bool {
	for _, dep := range p.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// TouchesFile reports whether the phase lists the given normalized path.
func (p *Phase) TouchesFile(path string) bool {
	for _, f := range p.Files {
		if f == path {
			return true
		}
	}
	return false
}

// Plan is an ordered collection of phases parsed from one plan document.
type Plan struct {
	Path   string  `json:"plan_file"`
	Phases []Phase `json:"phases"`
}

// PhaseByID returns the phase with the given id, or nil if the plan has no such phase.
func (p *Plan) PhaseByID(id int) *Phase {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return &p.Phases[i]
		}
	}
	return nil
}

// PhaseIDs returns all phase ids in ascending order.
func (p *Plan) PhaseIDs() []int {
	ids := make([]int, 0, len(p.Phases))
	for i := range p.Phases {
		ids = append(ids, p.Phases[i].ID)
	}
	sort.Ints(ids)
	return ids
}

// HasPhase reports whether the plan defines the given phase id.
func (p *Plan) HasPhase(id int) bool {
	return p.PhaseByID(id) != nil
}

// StatusRecord is the durable per-phase lifecycle state. It is owned by the
// status store; created on first write for a phase id, never deleted, only
// transitioned.
type StatusRecord struct {
	Status      Status    `json:"status"`
	PR          *string   `json:"pr"`
	Attempts    int       `json:"attempts"`
	Group       *string   `json:"group"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`

	// Synthetic phases exist only in the status file (integration fixes added
	// after planning). They carry their own branch and dependency list since
	// the plan document knows nothing about them.
	Synthetic bool   `json:"synthetic,omitempty"`
	Branch    string `json:"branch,omitempty"`
	DependsOn []int  `json:"depends,omitempty" yaml:"depends,omitempty"`
}

// Schedule is the result of one scheduling pass: ordered execution groups of
// phase ids. All phases within a group are mutually independent; a group may
// start only once every earlier group has completed.
type Schedule struct {
	Groups [][]int `json:"execution_groups"`
	// Labels assigns a letter (A..Z) to each phase that belongs to a parallel
	// group of size > 1. Solo phases have no label.
	Labels map[int]string `json:"-"`
}
