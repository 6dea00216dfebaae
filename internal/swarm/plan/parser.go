// SPDX-License-Identifier: Apache-2.0

// Package plan parses swarm plan documents into phase records.
//
// A plan document is markdown with phase blocks delimited by HTML-comment
// markers:
//
//	<!-- PHASE:3 DEPENDS:1,2 -->
//	## Phase 3: Wire the scheduler
//	### Branch
//	`phase-3-scheduler`
//	### Scope
//	...
//	<!-- /PHASE:3 -->
//
// Parsing is a pure function of the document text; no filesystem or git
// state is consulted.
package plan

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/swarm-oss/swarm/internal/core/models"
)

var (
	openPattern   = regexp.MustCompile(`<!--\s*PHASE:(\d+)(?:\s+DEPENDS:([\d,\s]*\d))?\s*-->`)
	closePattern  = regexp.MustCompile(`<!--\s*/PHASE:(\d+)\s*-->`)
	namePattern   = regexp.MustCompile(`##\s*Phase\s*\d+:\s*(.+)`)
	branchPattern = regexp.MustCompile("###\\s*Branch\\s*\\n\\s*`([^`]+)`")
)

// requiredSections are the section headings every phase block must contain.
var requiredSections = []string{
	"Branch",
	"Scope",
	"Files to Create/Modify",
	"Acceptance Criteria",
	"Tests Required",
}

// ParseFile reads and parses the plan document at the given path.
func ParseFile(planPath string) (*models.Plan, error) {
	data, err := os.ReadFile(planPath)
	if err != nil {
		return nil, fmt.Errorf("error reading plan file: %w", err)
	}
	plan, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	plan.Path = planPath
	return plan, nil
}

// Parse parses plan document text into a Plan ordered by first appearance.
func Parse(content string) (*models.Plan, error) {
	opens := openPattern.FindAllStringSubmatchIndex(content, -1)
	closes := closePattern.FindAllStringSubmatchIndex(content, -1)

	if len(opens) == 0 && len(closes) == 0 {
		return nil, ErrNoPhases
	}

	closeByID := make(map[int][]int, len(closes))
	for _, m := range closes {
		id, err := markerID(content[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		if _, dup := closeByID[id]; dup {
			return nil, &ParseError{Kind: ErrDuplicatePhaseID, PhaseID: id, Detail: fmt.Sprintf("duplicate closing marker for phase %d", id)}
		}
		closeByID[id] = m
	}

	var (
		phases []models.Phase
		blocks []block
		seen   = make(map[int]bool)
	)

	for _, m := range opens {
		id, err := markerID(content[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, &ParseError{Kind: ErrDuplicatePhaseID, PhaseID: id, Detail: fmt.Sprintf("duplicate opening marker for phase %d", id)}
		}
		seen[id] = true

		closeMatch, ok := closeByID[id]
		if !ok {
			return nil, &ParseError{Kind: ErrUnmatchedMarker, PhaseID: id, Detail: fmt.Sprintf("no closing marker for phase %d", id)}
		}
		if closeMatch[0] < m[1] {
			return nil, &ParseError{Kind: ErrUnmatchedMarker, PhaseID: id, Detail: fmt.Sprintf("closing marker for phase %d appears before its opening marker", id)}
		}
		delete(closeByID, id)

		body := content[m[1]:closeMatch[0]]
		blocks = append(blocks, block{id: id, start: m[0], end: closeMatch[1]})

		depends, err := parseDepends(content, m)
		if err != nil {
			return nil, err
		}

		phase, err := parsePhaseBlock(id, body)
		if err != nil {
			return nil, err
		}
		phase.DependsOn = depends
		phases = append(phases, *phase)
	}

	for id := range closeByID {
		return nil, &ParseError{Kind: ErrUnmatchedMarker, PhaseID: id, Detail: fmt.Sprintf("closing marker for phase %d has no opening marker", id)}
	}

	if len(phases) == 0 {
		return nil, ErrNoPhases
	}

	if err := checkDisjoint(blocks); err != nil {
		return nil, err
	}

	plan := &models.Plan{Phases: phases}
	if err := checkDependencyRefs(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// block is the document span covered by one phase, markers included.
type block struct {
	id         int
	start, end int
}

// checkDisjoint rejects phase blocks that overlap or nest.
func checkDisjoint(blocks []block) error {
	sorted := make([]block, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].start < sorted[i-1].end {
			return &ParseError{
				Kind:    ErrUnmatchedMarker,
				PhaseID: sorted[i].id,
				Detail:  fmt.Sprintf("phase %d block overlaps phase %d block", sorted[i].id, sorted[i-1].id),
			}
		}
	}
	return nil
}

// checkDependencyRefs verifies every DEPENDS id names a phase in the plan.
func checkDependencyRefs(plan *models.Plan) error {
	for i := range plan.Phases {
		phase := &plan.Phases[i]
		for _, dep := range phase.DependsOn {
			if !plan.HasPhase(dep) {
				return &ParseError{
					Kind:    ErrDanglingDependency,
					PhaseID: phase.ID,
					Detail:  fmt.Sprintf("phase %d depends on phase %d which does not exist", phase.ID, dep),
				}
			}
		}
	}
	return nil
}

func markerID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, &ParseError{Kind: ErrUnmatchedMarker, Detail: fmt.Sprintf("invalid phase id %q in marker (ids are positive integers)", raw)}
	}
	return id, nil
}

// parseDepends extracts the optional DEPENDS list from an opening marker match.
func parseDepends(content string, m []int) ([]int, error) {
	if m[4] == -1 {
		return nil, nil
	}
	raw := content[m[4]:m[5]]
	var depends []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dep, err := strconv.Atoi(part)
		if err != nil || dep < 1 {
			return nil, &ParseError{Kind: ErrUnmatchedMarker, Detail: fmt.Sprintf("invalid dependency id %q in marker", part)}
		}
		if !seen[dep] {
			seen[dep] = true
			depends = append(depends, dep)
		}
	}
	return depends, nil
}

// parsePhaseBlock parses the content between a phase's markers.
func parsePhaseBlock(id int, body string) (*models.Phase, error) {
	var missing []string
	for _, section := range requiredSections {
		if !sectionHeadingPattern(section).MatchString(body) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Kind:    ErrMissingRequiredSection,
			PhaseID: id,
			Detail:  fmt.Sprintf("phase %d missing required sections: %s", id, strings.Join(missing, ", ")),
		}
	}

	name := fmt.Sprintf("Phase %d", id)
	if m := namePattern.FindStringSubmatch(body); m != nil {
		name = strings.TrimSpace(m[1])
	}

	branch := fmt.Sprintf("phase-%d", id)
	if m := branchPattern.FindStringSubmatch(body); m != nil {
		branch = strings.TrimSpace(m[1])
		if err := ValidateBranchName(branch); err != nil {
			return nil, &ParseError{Kind: ErrInvalidBranchName, PhaseID: id, Detail: err.Error()}
		}
	}

	return &models.Phase{
		ID:                 id,
		Name:               name,
		Branch:             branch,
		Files:              parseFileList(sectionBody(body, "Files to Create/Modify")),
		Scope:              sectionBody(body, "Scope"),
		AcceptanceCriteria: sectionBody(body, "Acceptance Criteria"),
		TestsRequired:      sectionBody(body, "Tests Required"),
	}, nil
}

func sectionHeadingPattern(section string) *regexp.Regexp {
	return regexp.MustCompile(`###\s*` + regexp.QuoteMeta(section))
}

// sectionBody returns the raw text of a named section, up to the next ###
// heading or end of block. Scope, acceptance criteria, and test lists are
// passed through unmodified.
func sectionBody(body, section string) string {
	pattern := regexp.MustCompile(`(?s)###\s*` + regexp.QuoteMeta(section) + `\s*\n(.*?)(?:\n###|\z)`)
	m := pattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseFileList extracts normalized file paths from the files section. Lines
// are list items; paths may be backticked and may carry an em-dash description.
func parseFileList(section string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "`") {
			parts := strings.Split(line, "`")
			if len(parts) > 1 {
				line = parts[1]
			}
		} else if strings.Contains(line, "—") {
			line = strings.Trim(strings.TrimSpace(strings.Split(line, "—")[0]), "`")
		} else {
			line = strings.Trim(line, "`")
		}
		if line == "" {
			continue
		}
		normalized := NormalizePath(line)
		if !seen[normalized] {
			seen[normalized] = true
			files = append(files, normalized)
		}
	}
	return files
}

// NormalizePath converts a file path to a canonical, comparable form so
// overlap detection works on set semantics.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	return path.Clean(p)
}

// ValidateBranchName applies the static subset of git ref-name rules that
// matters for the flat worktree layout: no whitespace, no path separators,
// no ".." sequences.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("empty branch name")
	}
	if strings.ContainsAny(branch, " \t\n/\\") {
		return fmt.Errorf("branch name %q contains whitespace or slashes; use hyphens instead", branch)
	}
	if strings.Contains(branch, "..") || strings.HasPrefix(branch, "-") {
		return fmt.Errorf("invalid branch name %q", branch)
	}
	return nil
}
