// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"errors"
	"fmt"
)

// ErrNoPhases is returned when a plan document contains no phase markers at all.
var ErrNoPhases = errors.New("no phases found in plan file")

// ErrorKind classifies a plan parsing failure.
type ErrorKind string

const (
	// ErrUnmatchedMarker covers an opening marker without a matching close (or
	// vice versa), malformed marker ids, and overlapping phase blocks.
	ErrUnmatchedMarker ErrorKind = "unmatched_marker"
	// ErrDuplicatePhaseID covers repeated opening or closing markers for the
	// same phase id.
	ErrDuplicatePhaseID ErrorKind = "duplicate_phase_id"
	// ErrMissingRequiredSection covers a phase block lacking one of the five
	// required sections.
	ErrMissingRequiredSection ErrorKind = "missing_required_section"
	// ErrDanglingDependency covers a DEPENDS reference to a phase id that does
	// not exist in the plan.
	ErrDanglingDependency ErrorKind = "dangling_dependency"
	// ErrInvalidBranchName covers a Branch section value that breaks the
	// static branch-name rules.
	ErrInvalidBranchName ErrorKind = "invalid_branch_name"
)

// ParseError describes why a plan document could not be parsed. It always
// names the offending phase id (when one is known) so callers can report a
// precise location.
type ParseError struct {
	Kind    ErrorKind
	PhaseID int
	Detail  string
}

func (e *ParseError) Error() string {
	if e.PhaseID > 0 {
		return fmt.Sprintf("phase %d: %s", e.PhaseID, e.Detail)
	}
	return e.Detail
}
