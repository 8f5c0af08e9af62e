package engine

import (
	"fmt"
	"time"

	"github.com/jansetu/backend/internal/logger"
	"github.com/jansetu/backend/internal/models"
)

// The verification gate is a per-case overlay on the status machine:
// NONE -> STAGE1_PENDING -> STAGE1_APPROVED -> STAGE2_APPROVED, with
// STAGE1_REJECTED / STAGE2_REJECTED as terminal failures. Only case types
// that disburse funds or issue official letters carry the gate; for the
// rest it stays at NONE and is never consulted.

// SubmitStage1 records the executive sign-off. On rejection the case itself
// transitions to REJECTED in the same persisted write.
func (e *Engine) SubmitStage1(id, actorID string, role models.UserRole, outcome models.VerificationOutcome, notes string) (*models.Case, error) {
	if role != models.RoleExecutive && role != models.RoleMasterAdmin {
		return nil, fmt.Errorf("%w: role %s cannot submit stage-1 verification", ErrForbidden, role)
	}
	if outcome != models.OutcomeApproved && outcome != models.OutcomeRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	return e.mutateCase(id, func(c *models.Case) ([]*models.CaseEvent, error) {
		spec, err := Spec(c.CaseType)
		if err != nil {
			return nil, err
		}
		if !spec.RequiresTwoStageVerification {
			return nil, fmt.Errorf("%w: %s cases are not verification-gated", ErrIllegalTransition, c.CaseType)
		}
		if spec.IsTerminal(c.Status) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, c.Status)
		}
		if c.Gate != models.GateNone && c.Gate != models.GateStage1Pending {
			return nil, fmt.Errorf("%w: stage-1 already decided (gate %s)", ErrIllegalTransition, c.Gate)
		}

		now := e.now().UTC()
		c.Stage1 = models.VerificationRecord{By: actorID, At: &now, Notes: notes, Outcome: outcome}
		c.UpdatedAt = now

		events := []*models.CaseEvent{{
			CaseID:    c.ID,
			EventType: models.EventVerification,
			ActorRole: role,
			ActorID:   actorID,
			Notes:     fmt.Sprintf("stage-1 %s: %s", outcome, notes),
			CreatedAt: now,
		}}

		if outcome == models.OutcomeApproved {
			c.Gate = models.GateStage1Approved
		} else {
			c.Gate = models.GateStage1Rejected
			events = append(events, e.rejectCase(c, role, actorID, "rejected at stage-1 verification", now))
		}

		logger.WithCase(c.ID, string(c.CaseType)).WithField("outcome", outcome).Info("stage-1 verification submitted")
		return events, nil
	})
}

// SubmitStage2 records the master-admin sign-off; legal only once stage-1
// has been approved. Approval satisfies the gate the transition validator
// checks before any verification-gated status.
func (e *Engine) SubmitStage2(id, actorID string, role models.UserRole, outcome models.VerificationOutcome, notes string) (*models.Case, error) {
	if role != models.RoleMasterAdmin {
		return nil, fmt.Errorf("%w: only master admins may submit stage-2 verification", ErrForbidden)
	}
	if outcome != models.OutcomeApproved && outcome != models.OutcomeRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	return e.mutateCase(id, func(c *models.Case) ([]*models.CaseEvent, error) {
		spec, err := Spec(c.CaseType)
		if err != nil {
			return nil, err
		}
		if !spec.RequiresTwoStageVerification {
			return nil, fmt.Errorf("%w: %s cases are not verification-gated", ErrIllegalTransition, c.CaseType)
		}
		if spec.IsTerminal(c.Status) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, c.Status)
		}
		if c.Gate != models.GateStage1Approved {
			return nil, fmt.Errorf("%w: gate is %s", ErrStage1NotComplete, c.Gate)
		}

		now := e.now().UTC()
		c.Stage2 = models.VerificationRecord{By: actorID, At: &now, Notes: notes, Outcome: outcome}
		c.UpdatedAt = now

		events := []*models.CaseEvent{{
			CaseID:    c.ID,
			EventType: models.EventVerification,
			ActorRole: role,
			ActorID:   actorID,
			Notes:     fmt.Sprintf("stage-2 %s: %s", outcome, notes),
			CreatedAt: now,
		}}

		if outcome == models.OutcomeApproved {
			c.Gate = models.GateStage2Approved
		} else {
			c.Gate = models.GateStage2Rejected
			events = append(events, e.rejectCase(c, role, actorID, "rejected at stage-2 verification", now))
		}

		logger.WithCase(c.ID, string(c.CaseType)).WithField("outcome", outcome).Info("stage-2 verification submitted")
		return events, nil
	})
}

// rejectCase moves the case to REJECTED as part of a verification failure,
// in the same write as the gate change. REJECTED is reachable from every
// non-terminal status, so this cannot fail edge validation.
func (e *Engine) rejectCase(c *models.Case, role models.UserRole, actorID, reason string, now time.Time) *models.CaseEvent {
	from := c.Status
	to := models.StatusRejected
	c.Status = to
	c.ClosedAt = &now
	return &models.CaseEvent{
		CaseID:     c.ID,
		EventType:  models.EventStatusChange,
		FromStatus: &from,
		ToStatus:   &to,
		ActorRole:  role,
		ActorID:    actorID,
		Notes:      reason,
		CreatedAt:  now,
	}
}
