package engine

import (
	"fmt"

	"github.com/jansetu/backend/internal/models"
)

// Edge is one legal status transition. Roles lists who may apply it; an
// empty list means any officer (executive or master admin).
type Edge struct {
	To    models.CaseStatus
	Roles []models.UserRole
}

// TypeSpec is the static lifecycle definition of one case type. Adding a
// case type is a change to the tables below, not new control flow.
type TypeSpec struct {
	Prefix        string
	InitialStatus models.CaseStatus

	// AssignEntryStatus, when set, is the status a case auto-advances to
	// when assignment is the type's entry transition (NEW -> ASSIGNED).
	AssignEntryStatus models.CaseStatus

	RequiresTwoStageVerification bool

	terminal    map[models.CaseStatus]bool
	transitions map[models.CaseStatus][]Edge
	valid       map[models.CaseStatus]bool
}

var (
	officerRoles = []models.UserRole{models.RoleExecutive, models.RoleMasterAdmin}
	masterOnly   = []models.UserRole{models.RoleMasterAdmin}
)

// gatedStatuses may only be entered on a two-stage case once stage-2 has
// been approved.
var gatedStatuses = map[models.CaseStatus]bool{
	models.StatusApproved:        true,
	models.StatusLetterIssued:    true,
	models.StatusAmountDisbursed: true,
	models.StatusMOUSigned:       true,
	models.StatusCompleted:       true,
}

var registry = map[models.CaseType]*TypeSpec{
	models.CaseTypeGrievance: newTypeSpec(typeDef{
		prefix:      "GRV",
		initial:     models.StatusNew,
		assignEntry: models.StatusAssigned,
		terminal:    []models.CaseStatus{models.StatusClosed, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusNew, models.StatusAssigned, officerRoles},
			{models.StatusAssigned, models.StatusInProgress, officerRoles},
			{models.StatusInProgress, models.StatusResolved, officerRoles},
			{models.StatusResolved, models.StatusClosed, officerRoles},
		},
	}),
	models.CaseTypeDispute: newTypeSpec(typeDef{
		prefix:      "DSP",
		initial:     models.StatusNew,
		assignEntry: models.StatusAssigned,
		terminal:    []models.CaseStatus{models.StatusClosed, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusNew, models.StatusAssigned, officerRoles},
			{models.StatusAssigned, models.StatusMediationSchedule, officerRoles},
			{models.StatusMediationSchedule, models.StatusInMediation, officerRoles},
			{models.StatusInMediation, models.StatusSettled, officerRoles},
			{models.StatusSettled, models.StatusClosed, officerRoles},
		},
	}),
	models.CaseTypeTempleLetter: newTypeSpec(typeDef{
		prefix:   "TPL",
		initial:  models.StatusRequested,
		twoStage: true,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusRequested, models.StatusUnderReview, officerRoles},
			{models.StatusUnderReview, models.StatusApproved, masterOnly},
			{models.StatusApproved, models.StatusLetterIssued, masterOnly},
			{models.StatusLetterIssued, models.StatusCompleted, masterOnly},
		},
	}),
	models.CaseTypeCMRelief: newTypeSpec(typeDef{
		prefix:   "CMR",
		initial:  models.StatusSubmitted,
		twoStage: true,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusSubmitted, models.StatusUnderReview, officerRoles},
			{models.StatusUnderReview, models.StatusFieldVerification, officerRoles},
			{models.StatusFieldVerification, models.StatusApproved, masterOnly},
			{models.StatusApproved, models.StatusAmountDisbursed, masterOnly},
			{models.StatusAmountDisbursed, models.StatusCompleted, masterOnly},
		},
	}),
	models.CaseTypeEducation: newTypeSpec(typeDef{
		prefix:   "EDU",
		initial:  models.StatusSubmitted,
		twoStage: true,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusSubmitted, models.StatusUnderReview, officerRoles},
			{models.StatusUnderReview, models.StatusApproved, masterOnly},
			{models.StatusApproved, models.StatusAmountDisbursed, masterOnly},
			{models.StatusAmountDisbursed, models.StatusCompleted, masterOnly},
		},
	}),
	models.CaseTypeAppointment: newTypeSpec(typeDef{
		prefix:   "APT",
		initial:  models.StatusRequested,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusRequested, models.StatusScheduled, officerRoles},
			{models.StatusScheduled, models.StatusConfirmed, officerRoles},
			{models.StatusConfirmed, models.StatusCompleted, officerRoles},
		},
	}),
	models.CaseTypeCSRIndustrial: newTypeSpec(typeDef{
		prefix:   "CSR",
		initial:  models.StatusSubmitted,
		twoStage: true,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusSubmitted, models.StatusUnderReview, officerRoles},
			{models.StatusUnderReview, models.StatusEvaluation, officerRoles},
			{models.StatusEvaluation, models.StatusApproved, masterOnly},
			{models.StatusApproved, models.StatusMOUSigned, masterOnly},
			{models.StatusMOUSigned, models.StatusCompleted, masterOnly},
		},
	}),
	models.CaseTypeProgram: newTypeSpec(typeDef{
		prefix:   "PRG",
		initial:  models.StatusDraft,
		terminal: []models.CaseStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled},
		chain: []chainEdge{
			{models.StatusDraft, models.StatusScheduled, officerRoles},
			{models.StatusScheduled, models.StatusOngoing, officerRoles},
			{models.StatusOngoing, models.StatusCompleted, officerRoles},
		},
	}),
}

type chainEdge struct {
	from  models.CaseStatus
	to    models.CaseStatus
	roles []models.UserRole
}

type typeDef struct {
	prefix      string
	initial     models.CaseStatus
	assignEntry models.CaseStatus
	twoStage    bool
	terminal    []models.CaseStatus
	chain       []chainEdge
}

// newTypeSpec expands a type definition: beyond the declared chain, REJECTED
// and CANCELLED are reachable from every non-terminal status. Citizens may
// cancel only from the initial status.
func newTypeSpec(def typeDef) *TypeSpec {
	spec := &TypeSpec{
		Prefix:                       def.prefix,
		InitialStatus:                def.initial,
		AssignEntryStatus:            def.assignEntry,
		RequiresTwoStageVerification: def.twoStage,
		terminal:                     make(map[models.CaseStatus]bool),
		transitions:                  make(map[models.CaseStatus][]Edge),
		valid:                        map[models.CaseStatus]bool{def.initial: true},
	}
	for _, st := range def.terminal {
		spec.terminal[st] = true
		spec.valid[st] = true
	}
	for _, e := range def.chain {
		spec.valid[e.from] = true
		spec.valid[e.to] = true
		spec.transitions[e.from] = append(spec.transitions[e.from], Edge{To: e.to, Roles: e.roles})
	}
	for st := range spec.valid {
		if spec.terminal[st] {
			continue
		}
		spec.transitions[st] = append(spec.transitions[st], Edge{To: models.StatusRejected, Roles: officerRoles})
		cancelRoles := officerRoles
		if st == def.initial {
			cancelRoles = []models.UserRole{models.RoleCitizen, models.RoleExecutive, models.RoleMasterAdmin}
		}
		spec.transitions[st] = append(spec.transitions[st], Edge{To: models.StatusCancelled, Roles: cancelRoles})
	}
	return spec
}

// Spec looks up the lifecycle definition for a case type.
func Spec(ct models.CaseType) (*TypeSpec, error) {
	spec, ok := registry[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCaseType, ct)
	}
	return spec, nil
}

// Types lists every registered case type.
func Types() []models.CaseType {
	return []models.CaseType{
		models.CaseTypeGrievance,
		models.CaseTypeDispute,
		models.CaseTypeTempleLetter,
		models.CaseTypeCMRelief,
		models.CaseTypeEducation,
		models.CaseTypeAppointment,
		models.CaseTypeCSRIndustrial,
		models.CaseTypeProgram,
	}
}

// IsValidStatus reports whether st belongs to this type's status set.
func (s *TypeSpec) IsValidStatus(st models.CaseStatus) bool {
	return s.valid[st]
}

// IsTerminal reports whether st permits no further transitions.
func (s *TypeSpec) IsTerminal(st models.CaseStatus) bool {
	return s.terminal[st]
}

// TerminalStatuses returns the terminal set.
func (s *TypeSpec) TerminalStatuses() []models.CaseStatus {
	out := make([]models.CaseStatus, 0, len(s.terminal))
	for st := range s.terminal {
		out = append(out, st)
	}
	return out
}

// EdgesFrom returns the declared edges out of a status.
func (s *TypeSpec) EdgesFrom(st models.CaseStatus) []Edge {
	return s.transitions[st]
}

// FindEdge returns the edge from -> to, if declared.
func (s *TypeSpec) FindEdge(from, to models.CaseStatus) (Edge, bool) {
	for _, e := range s.transitions[from] {
		if e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// IsGated reports whether entering st requires a completed two-stage
// verification for this type.
func (s *TypeSpec) IsGated(st models.CaseStatus) bool {
	return s.RequiresTwoStageVerification && gatedStatuses[st]
}
