package engine

import (
	"time"

	"github.com/jansetu/backend/internal/models"
)

// SLABucket classifies where a case stands against its due date.
type SLABucket string

const (
	SLAWithin SLABucket = "WITHIN_SLA"
	SLAAtRisk SLABucket = "AT_RISK"
	SLABreach SLABucket = "BREACHED"
)

// DefaultWarningFraction is the tail of the SLA window flagged AT_RISK.
const DefaultWarningFraction = 0.25

var defaultDurations = map[models.CasePriority]time.Duration{
	models.PriorityP1: 48 * time.Hour,
	models.PriorityP2: 120 * time.Hour,
	models.PriorityP3: 240 * time.Hour,
	models.PriorityP4: 480 * time.Hour,
}

// SLAPolicy maps priority to a resolution window and evaluates cases against
// it. It is pure: it never mutates a case and is safe for concurrent use.
type SLAPolicy struct {
	durations       map[models.CasePriority]time.Duration
	typeOverrides   map[models.CaseType]map[models.CasePriority]time.Duration
	warningFraction float64
}

// NewSLAPolicy returns the default policy: P1 48h, P2 120h, P3 240h,
// P4 480h, with the last quarter of the window treated as at-risk.
func NewSLAPolicy() *SLAPolicy {
	return &SLAPolicy{
		durations:       defaultDurations,
		typeOverrides:   map[models.CaseType]map[models.CasePriority]time.Duration{},
		warningFraction: DefaultWarningFraction,
	}
}

// NewSLAPolicyWithWarning overrides the at-risk fraction (0 < f < 1).
func NewSLAPolicyWithWarning(f float64) *SLAPolicy {
	p := NewSLAPolicy()
	if f > 0 && f < 1 {
		p.warningFraction = f
	}
	return p
}

// Duration returns the resolution window for a priority. The case type is
// consulted for per-type overrides; none are configured by default.
func (p *SLAPolicy) Duration(ct models.CaseType, pr models.CasePriority) time.Duration {
	if byType, ok := p.typeOverrides[ct]; ok {
		if d, ok := byType[pr]; ok {
			return d
		}
	}
	if d, ok := p.durations[pr]; ok {
		return d
	}
	// Unknown priority strings get the widest window rather than a zero
	// deadline; callers validate priority before persisting.
	return p.durations[models.PriorityP4]
}

// ComputeDueDate returns from + the priority's window.
func (p *SLAPolicy) ComputeDueDate(ct models.CaseType, pr models.CasePriority, from time.Time) time.Time {
	return from.Add(p.Duration(ct, pr))
}

// Evaluate classifies a case at the given instant. Terminal cases are never
// breached; callers decide what to do with the result.
func (p *SLAPolicy) Evaluate(c *models.Case, now time.Time) SLABucket {
	spec, err := Spec(c.CaseType)
	if err == nil && spec.IsTerminal(c.Status) {
		return SLAWithin
	}
	if now.After(c.SlaDueAt) {
		return SLABreach
	}
	window := p.Duration(c.CaseType, c.Priority)
	warningStart := c.SlaDueAt.Add(-time.Duration(float64(window) * p.warningFraction))
	if !now.Before(warningStart) {
		return SLAAtRisk
	}
	return SLAWithin
}

// ValidPriority reports whether pr is one of the canonical P1..P4 values.
func ValidPriority(pr models.CasePriority) bool {
	_, ok := defaultDurations[pr]
	return ok
}
