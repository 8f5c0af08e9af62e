package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/jansetu/backend/internal/logger"
	"github.com/jansetu/backend/internal/models"
)

// Engine is the single mutation path for cases. Every status change, every
// assignment and every verification sign-off flows through here so the
// audit trail and the lifecycle invariants hold for all eight case types.
//
// The engine is stateless between calls; the persisted case record is the
// only state, and per-case serialization is enforced by the store's
// optimistic version check. Operations on different case ids never contend.
type Engine struct {
	store CaseStore
	sla   *SLAPolicy
	now   func() time.Time
}

// New wires an engine over a case store with the given SLA policy.
func New(store CaseStore, sla *SLAPolicy) *Engine {
	if sla == nil {
		sla = NewSLAPolicy()
	}
	return &Engine{store: store, sla: sla, now: time.Now}
}

// WithClock fixes the engine's notion of now. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SLA exposes the policy for read-side callers (dashboard, sweeper).
func (e *Engine) SLA() *SLAPolicy {
	return e.sla
}

// CreateCaseInput carries the caller-supplied fields of a new case.
type CreateCaseInput struct {
	CaseType    models.CaseType
	Title       string
	Description string
	Region      string
	Priority    models.CasePriority
	SubmittedBy string
	ActorRole   models.UserRole
}

// CreateCase opens a case at its type's initial status, computes the SLA
// due date and writes the first history entry. History length is >= 1 from
// the moment a case exists.
func (e *Engine) CreateCase(in CreateCaseInput) (*models.Case, error) {
	spec, err := Spec(in.CaseType)
	if err != nil {
		return nil, err
	}
	if !ValidPriority(in.Priority) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}

	now := e.now().UTC()
	seq, err := e.store.NextSequence(in.CaseType, now.Year())
	if err != nil {
		return nil, err
	}

	initial := spec.InitialStatus
	c := &models.Case{
		ID:          newCaseID(spec.Prefix, in.Region, now.Year(), seq),
		CaseType:    in.CaseType,
		Title:       in.Title,
		Description: in.Description,
		Region:      in.Region,
		Status:      initial,
		Priority:    in.Priority,
		SlaDueAt:    e.sla.ComputeDueDate(in.CaseType, in.Priority, now),
		Gate:        models.GateNone,
		SubmittedBy: in.SubmittedBy,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	event := &models.CaseEvent{
		CaseID:    c.ID,
		EventType: models.EventStatusChange,
		ToStatus:  &initial,
		ActorRole: in.ActorRole,
		ActorID:   in.SubmittedBy,
		Notes:     "case created",
		CreatedAt: now,
	}
	if err := e.store.Create(c, event); err != nil {
		return nil, err
	}

	logger.WithCase(c.ID, string(c.CaseType)).Info("case created")
	return c, nil
}

// GetCase fetches one case by id.
func (e *Engine) GetCase(id string) (*models.Case, error) {
	return e.store.Get(id)
}

// History returns the full append-only event trail of a case.
func (e *Engine) History(id string) ([]models.CaseEvent, error) {
	if _, err := e.store.Get(id); err != nil {
		return nil, err
	}
	return e.store.Events(id)
}

// ListCases lists cases matching the filter; when bucket is non-nil the
// result is additionally narrowed to that SLA bucket.
func (e *Engine) ListCases(f CaseFilter, bucket *SLABucket) ([]models.Case, error) {
	cases, err := e.store.List(f)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return cases, nil
	}
	now := e.now().UTC()
	filtered := cases[:0]
	for _, c := range cases {
		if e.sla.Evaluate(&c, now) == *bucket {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// CountCases returns the total matching the filter, for pagination.
func (e *Engine) CountCases(f CaseFilter) (int64, error) {
	return e.store.Count(f)
}

// Transition validates and applies a status change. It is the only path by
// which Case.Status may move. The loser of a concurrent write receives
// ErrConcurrentModification and must retry against the refreshed record.
func (e *Engine) Transition(id string, to models.CaseStatus, role models.UserRole, actorID, notes string) (*models.Case, error) {
	return e.mutateCase(id, func(c *models.Case) ([]*models.CaseEvent, error) {
		return e.applyTransition(c, to, role, actorID, notes)
	})
}

// applyTransition mutates the in-memory case after running the full
// validation chain; persistence happens in the caller.
func (e *Engine) applyTransition(c *models.Case, to models.CaseStatus, role models.UserRole, actorID, notes string) ([]*models.CaseEvent, error) {
	spec, err := Spec(c.CaseType)
	if err != nil {
		return nil, err
	}
	if !spec.IsValidStatus(to) {
		return nil, fmt.Errorf("%w: %s for %s", ErrInvalidStatus, to, c.CaseType)
	}
	if spec.IsTerminal(c.Status) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, c.Status)
	}
	edge, ok := spec.FindEdge(c.Status, to)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.Status, to)
	}
	if err := e.authorizeEdge(c, spec, edge, role, actorID); err != nil {
		return nil, err
	}
	if spec.IsGated(to) && c.Gate != models.GateStage2Approved {
		return nil, fmt.Errorf("%w: %s requires stage-2 approval", ErrVerificationRequired, to)
	}

	now := e.now().UTC()
	from := c.Status
	c.Status = to
	c.UpdatedAt = now
	if spec.IsTerminal(to) {
		c.ClosedAt = &now
	}
	// A two-stage case entering review is awaiting its executive sign-off.
	if spec.RequiresTwoStageVerification && c.Gate == models.GateNone && from == spec.InitialStatus && !spec.IsTerminal(to) {
		c.Gate = models.GateStage1Pending
	}

	logger.WithCase(c.ID, string(c.CaseType)).WithField("from", from).WithField("to", to).Info("status transition")
	return []*models.CaseEvent{{
		CaseID:     c.ID,
		EventType:  models.EventStatusChange,
		FromStatus: &from,
		ToStatus:   &to,
		ActorRole:  role,
		ActorID:    actorID,
		Notes:      notes,
		CreatedAt:  now,
	}}, nil
}

// authorizeEdge enforces the edge's role list plus two cross-cutting rules:
// an executive may move a case out of its initial status only as its
// assignee, and a citizen may only cancel their own submission.
func (e *Engine) authorizeEdge(c *models.Case, spec *TypeSpec, edge Edge, role models.UserRole, actorID string) error {
	allowed := false
	for _, r := range edge.Roles {
		if r == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: role %s cannot apply %s -> %s", ErrForbidden, role, c.Status, edge.To)
	}
	if role == models.RoleCitizen && c.SubmittedBy != actorID {
		return fmt.Errorf("%w: citizens may only act on their own cases", ErrForbidden)
	}
	if role == models.RoleExecutive && c.Status == spec.InitialStatus {
		if c.AssignedTo == nil || *c.AssignedTo != actorID {
			return fmt.Errorf("%w: only the assigned officer may move a case out of %s", ErrForbidden, spec.InitialStatus)
		}
	}
	return nil
}

// Assign sets the case's officer and records an assignment event. It does
// not change status, except that a case still at its initial status
// auto-advances when assignment is the type's entry transition.
func (e *Engine) Assign(id, officerID string, role models.UserRole, actorID string) (*models.Case, error) {
	if role != models.RoleExecutive && role != models.RoleMasterAdmin {
		return nil, fmt.Errorf("%w: role %s cannot assign cases", ErrForbidden, role)
	}
	if officerID == "" {
		return nil, ErrNoEligibleOfficers
	}
	return e.mutateCase(id, func(c *models.Case) ([]*models.CaseEvent, error) {
		spec, err := Spec(c.CaseType)
		if err != nil {
			return nil, err
		}
		if spec.IsTerminal(c.Status) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, c.Status)
		}

		now := e.now().UTC()
		previous := ""
		if c.AssignedTo != nil {
			previous = *c.AssignedTo
		}
		c.AssignedTo = &officerID
		c.UpdatedAt = now

		notes := fmt.Sprintf("assigned to %s", officerID)
		if previous != "" {
			notes = fmt.Sprintf("reassigned from %s to %s", previous, officerID)
		}
		events := []*models.CaseEvent{{
			CaseID:    c.ID,
			EventType: models.EventAssignment,
			ActorRole: role,
			ActorID:   actorID,
			Notes:     notes,
			CreatedAt: now,
		}}

		if c.Status == spec.InitialStatus && spec.AssignEntryStatus != "" {
			from := c.Status
			to := spec.AssignEntryStatus
			c.Status = to
			events = append(events, &models.CaseEvent{
				CaseID:     c.ID,
				EventType:  models.EventStatusChange,
				FromStatus: &from,
				ToStatus:   &to,
				ActorRole:  role,
				ActorID:    actorID,
				Notes:      "entered on assignment",
				CreatedAt:  now,
			})
		}

		logger.WithCase(c.ID, string(c.CaseType)).WithField("officer", officerID).Info("case assigned")
		return events, nil
	})
}

// AutoAssign picks an officer with the balancer and assigns them. The
// candidate set (officer codes with open-case workloads) is supplied by the
// caller; the engine never reads the officer directory itself.
func (e *Engine) AutoAssign(id string, candidates []Candidate, strategy AssignStrategy, role models.UserRole, actorID string) (*models.Case, error) {
	officerID, err := SelectAssignee(candidates, strategy)
	if err != nil {
		return nil, err
	}
	return e.Assign(id, officerID, role, actorID)
}

// ChangePriority updates the SLA-governing priority and recomputes the due
// date from now, per policy.
func (e *Engine) ChangePriority(id string, priority models.CasePriority, role models.UserRole, actorID string) (*models.Case, error) {
	if role != models.RoleExecutive && role != models.RoleMasterAdmin {
		return nil, fmt.Errorf("%w: role %s cannot change priority", ErrForbidden, role)
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	return e.mutateCase(id, func(c *models.Case) ([]*models.CaseEvent, error) {
		spec, err := Spec(c.CaseType)
		if err != nil {
			return nil, err
		}
		if spec.IsTerminal(c.Status) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, c.Status)
		}
		if c.Priority == priority {
			return nil, nil
		}

		now := e.now().UTC()
		notes := fmt.Sprintf("priority %s -> %s", c.Priority, priority)
		c.Priority = priority
		c.SlaDueAt = e.sla.ComputeDueDate(c.CaseType, priority, now)
		c.UpdatedAt = now

		return []*models.CaseEvent{{
			CaseID:    c.ID,
			EventType: models.EventPriorityChange,
			ActorRole: role,
			ActorID:   actorID,
			Notes:     notes,
			CreatedAt: now,
		}}, nil
	})
}

// AddComment appends an annotation to the audit trail without touching the
// lifecycle. Allowed on terminal cases; history stays queryable forever.
func (e *Engine) AddComment(id string, role models.UserRole, actorID, notes string) (*models.CaseEvent, error) {
	c, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleCitizen && c.SubmittedBy != actorID {
		return nil, fmt.Errorf("%w: citizens may only comment on their own cases", ErrForbidden)
	}
	event := &models.CaseEvent{
		CaseID:    c.ID,
		EventType: models.EventComment,
		ActorRole: role,
		ActorID:   actorID,
		Notes:     notes,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.AppendEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// mutateCase reads the freshest copy of the case, applies the mutation and
// persists it under the store's optimistic version check. The loser of a
// concurrent race gets ErrConcurrentModification and must re-validate
// against the refreshed record; the engine never re-applies a stale intent
// on the caller's behalf. A nil event slice with nil error means nothing
// changed.
func (e *Engine) mutateCase(id string, mutate func(*models.Case) ([]*models.CaseEvent, error)) (*models.Case, error) {
	c, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	events, err := mutate(c)
	if err != nil {
		return nil, err
	}
	if events == nil {
		return c, nil
	}
	if err := e.store.Update(c, events...); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			logger.WithCase(c.ID, string(c.CaseType)).Warn("concurrent case modification lost the race")
		}
		return nil, err
	}
	return c, nil
}
