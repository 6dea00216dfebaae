// SPDX-License-Identifier: Apache-2.0

// Package status implements the durable per-phase status store. The store is
// a JSON file living next to the plan document; absence of the file (or of a
// record) means PENDING. Every update is a read-modify-write with an atomic
// replace, so restarts and parallel workers on distinct phases never observe
// a torn file.
package status

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/swarm-oss/swarm/internal/core/format"
	"github.com/swarm-oss/swarm/internal/core/models"
	"github.com/swarm-oss/swarm/internal/core/schema"
)

// FileSuffix is appended to the plan file name to form the status file path.
const FileSuffix = ".swarm_status.json"

// fileSchema is the JSON Schema every status file must satisfy before the
// store trusts its contents.
const fileSchema = `{
  "type": "object",
  "required": ["plan_file", "phases"],
  "properties": {
    "plan_file": {"type": "string"},
    "base_branch": {"type": ["string", "null"]},
    "phases": {
      "type": "object",
      "patternProperties": {
        "^[0-9]+$": {
          "type": "object",
          "required": ["status", "attempts"],
          "properties": {
            "status": {
              "type": "string",
              "enum": ["PENDING", "DEVELOPING", "FOR_REVIEW", "APPROVED", "REJECTED", "FIXING", "DONE", "ESCALATED"]
            },
            "pr": {"type": ["string", "null"]},
            "attempts": {"type": "integer", "minimum": 0},
            "group": {"type": ["string", "null"]},
            "last_updated": {"type": "string"},
            "synthetic": {"type": "boolean"},
            "branch": {"type": "string"},
            "depends": {"type": "array", "items": {"type": "integer"}}
          }
        }
      },
      "additionalProperties": false
    }
  }
}`

// UnknownPhaseError is returned for a status write naming a phase id the plan
// does not define (and that was never added as a synthetic phase).
type UnknownPhaseError struct {
	PhaseID int
	Plan    string
}

func (e *UnknownPhaseError) Error() string {
	return fmt.Sprintf("phase %d not found in plan %s", e.PhaseID, e.Plan)
}

// document is the on-disk shape of the status file.
type document struct {
	PlanFile   string                          `json:"plan_file" yaml:"plan_file"`
	BaseBranch *string                         `json:"base_branch" yaml:"base_branch"`
	Phases     map[string]*models.StatusRecord `json:"phases"`
}

// Store is the durable mapping from phase id to status record for one plan.
type Store struct {
	plan *models.Plan
	path string
	doc  *document
	now  func() time.Time
}

// FilePath returns the status file path for a plan path.
func FilePath(planPath string) string {
	return planPath + FileSuffix
}

// Open loads the status store for a plan, validating the file against its
// schema when it exists. A missing file yields an empty store (all phases
// PENDING).
func Open(plan *models.Plan) (*Store, error) {
	s := &Store{
		plan: plan,
		path: FilePath(plan.Path),
		doc: &document{
			PlanFile: plan.Path,
			Phases:   make(map[string]*models.StatusRecord),
		},
		now: time.Now,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload re-reads the status file from disk, replacing in-memory state. No-op
// when the file does not exist.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading status file %s: %w", s.path, err)
	}

	if err := schema.ValidateDocument(fileSchema, data); err != nil {
		return fmt.Errorf("corrupt status file %s: %w", s.path, err)
	}

	doc := &document{}
	if err := format.ParseData(data, doc); err != nil {
		return fmt.Errorf("corrupt status file %s: %w", s.path, err)
	}
	if doc.Phases == nil {
		doc.Phases = make(map[string]*models.StatusRecord)
	}
	s.doc = doc
	return nil
}

func (s *Store) save() error {
	return format.AtomicWriteJSON(s.path, s.doc)
}

// Init creates PENDING records for every phase in the plan, attaching group
// labels from the schedule. An existing status file is preserved untouched so
// a resumed run keeps its progress.
func (s *Store) Init(labels map[int]string) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	for _, id := range s.plan.PhaseIDs() {
		record := &models.StatusRecord{
			Status:      models.StatusPending,
			LastUpdated: s.now().UTC(),
		}
		if label, ok := labels[id]; ok {
			record.Group = &label
		}
		s.doc.Phases[key(id)] = record
	}
	return s.save()
}

// Exists reports whether the status file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// BaseBranch returns the recorded base branch, if any.
func (s *Store) BaseBranch() *string {
	return s.doc.BaseBranch
}

// SetBaseBranch records the base branch once; later calls with a branch
// already recorded are ignored.
func (s *Store) SetBaseBranch(branch string) error {
	if s.doc.BaseBranch != nil {
		return nil
	}
	s.doc.BaseBranch = &branch
	return s.save()
}

// Set transitions one phase's status. The write is idempotent: repeating the
// same status does not change the record beyond its timestamp. Attempts
// increment only when a REJECTED phase re-enters FIXING. The store does not
// validate transition legality; that is the orchestration loop's job.
func (s *Store) Set(phaseID int, newStatus models.Status, pr *string) error {
	if err := s.reload(); err != nil {
		return err
	}

	record, err := s.record(phaseID)
	if err != nil {
		return err
	}

	if newStatus == models.StatusFixing && record.Status == models.StatusRejected {
		record.Attempts++
	}
	record.Status = newStatus
	if pr != nil {
		record.PR = pr
	}
	record.LastUpdated = s.now().UTC()

	return s.save()
}

// SetAttempts overrides the attempt counter for one phase.
func (s *Store) SetAttempts(phaseID, attempts int) error {
	if err := s.reload(); err != nil {
		return err
	}
	record, err := s.record(phaseID)
	if err != nil {
		return err
	}
	record.Attempts = attempts
	record.LastUpdated = s.now().UTC()
	return s.save()
}

// record returns the status record for a phase, creating a PENDING record on
// first write for an id the plan defines. Ids defined neither by the plan nor
// as synthetic phases are rejected.
func (s *Store) record(phaseID int) (*models.StatusRecord, error) {
	if record, ok := s.doc.Phases[key(phaseID)]; ok {
		return record, nil
	}
	if !s.plan.HasPhase(phaseID) {
		return nil, &UnknownPhaseError{PhaseID: phaseID, Plan: s.plan.Path}
	}
	record := &models.StatusRecord{Status: models.StatusPending}
	s.doc.Phases[key(phaseID)] = record
	return record, nil
}

// AddSynthetic registers a phase that exists only in the status file, used
// for integration-fix work discovered after planning. Dependencies must name
// phases already present in the store.
func (s *Store) AddSynthetic(phaseID int, branch string, depends []int) error {
	if err := s.reload(); err != nil {
		return err
	}
	if _, exists := s.doc.Phases[key(phaseID)]; exists {
		return fmt.Errorf("phase %d already exists in status file", phaseID)
	}
	for _, dep := range depends {
		if _, ok := s.doc.Phases[key(dep)]; !ok {
			return &UnknownPhaseError{PhaseID: dep, Plan: s.plan.Path}
		}
	}
	s.doc.Phases[key(phaseID)] = &models.StatusRecord{
		Status:      models.StatusPending,
		Synthetic:   true,
		Branch:      branch,
		DependsOn:   depends,
		LastUpdated: s.now().UTC(),
	}
	return s.save()
}

// Record returns a copy of one phase's record. Phases without a record are
// reported as PENDING.
func (s *Store) Record(phaseID int) (models.StatusRecord, error) {
	if record, ok := s.doc.Phases[key(phaseID)]; ok {
		return *record, nil
	}
	if !s.plan.HasPhase(phaseID) {
		return models.StatusRecord{}, &UnknownPhaseError{PhaseID: phaseID, Plan: s.plan.Path}
	}
	return models.StatusRecord{Status: models.StatusPending}, nil
}

// Statuses returns the current status of every phase with a record.
func (s *Store) Statuses() map[int]models.Status {
	out := make(map[int]models.Status, len(s.doc.Phases))
	for k, record := range s.doc.Phases {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = record.Status
		}
	}
	return out
}

// Done returns the set of phase ids in terminal-success state, for exclusion
// from scheduling.
func (s *Store) Done() map[int]bool {
	done := make(map[int]bool)
	for id, st := range s.Statuses() {
		if st == models.StatusDone {
			done[id] = true
		}
	}
	return done
}

// PhaseIDs returns all recorded phase ids in ascending order.
func (s *Store) PhaseIDs() []int {
	ids := make([]int, 0, len(s.doc.Phases))
	for k := range s.doc.Phases {
		if id, err := strconv.Atoi(k); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// ApprovedGroups returns the labels of parallel groups whose members have all
// reached APPROVED, with the member records, in label order. These groups are
// ready for integration review.
func (s *Store) ApprovedGroups() []GroupReadiness {
	byLabel := make(map[string][]GroupMember)
	for _, id := range s.PhaseIDs() {
		record := s.doc.Phases[key(id)]
		if record.Group == nil {
			continue
		}
		byLabel[*record.Group] = append(byLabel[*record.Group], GroupMember{ID: id, Status: record.Status, PR: record.PR})
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var ready []GroupReadiness
	for _, label := range labels {
		members := byLabel[label]
		allApproved := true
		for _, m := range members {
			if m.Status != models.StatusApproved {
				allApproved = false
				break
			}
		}
		if allApproved {
			ready = append(ready, GroupReadiness{Label: label, Members: members})
		}
	}
	return ready
}

// GroupReadiness is one parallel group whose phases are all APPROVED.
type GroupReadiness struct {
	Label   string        `json:"group"`
	Members []GroupMember `json:"phases"`
}

// GroupMember is one phase inside a parallel group.
type GroupMember struct {
	ID     int           `json:"id"`
	Status models.Status `json:"-"`
	PR     *string       `json:"pr"`
}

func key(phaseID int) string {
	return strconv.Itoa(phaseID)
}
