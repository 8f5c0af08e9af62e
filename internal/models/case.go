package models

import (
	"time"

	"gorm.io/gorm"
)

type CaseType string

const (
	CaseTypeGrievance     CaseType = "GRIEVANCE"
	CaseTypeDispute       CaseType = "DISPUTE"
	CaseTypeTempleLetter  CaseType = "TEMPLE_LETTER"
	CaseTypeCMRelief      CaseType = "CM_RELIEF"
	CaseTypeEducation     CaseType = "EDUCATION"
	CaseTypeAppointment   CaseType = "APPOINTMENT"
	CaseTypeCSRIndustrial CaseType = "CSR_INDUSTRIAL"
	CaseTypeProgram       CaseType = "PROGRAM"
)

type CaseStatus string

const (
	StatusNew               CaseStatus = "NEW"
	StatusRequested         CaseStatus = "REQUESTED"
	StatusSubmitted         CaseStatus = "SUBMITTED"
	StatusDraft             CaseStatus = "DRAFT"
	StatusAssigned          CaseStatus = "ASSIGNED"
	StatusInProgress        CaseStatus = "IN_PROGRESS"
	StatusResolved          CaseStatus = "RESOLVED"
	StatusMediationSchedule CaseStatus = "MEDIATION_SCHEDULED"
	StatusInMediation       CaseStatus = "IN_MEDIATION"
	StatusSettled           CaseStatus = "SETTLED"
	StatusUnderReview       CaseStatus = "UNDER_REVIEW"
	StatusFieldVerification CaseStatus = "FIELD_VERIFICATION"
	StatusEvaluation        CaseStatus = "EVALUATION"
	StatusApproved          CaseStatus = "APPROVED"
	StatusLetterIssued      CaseStatus = "LETTER_ISSUED"
	StatusAmountDisbursed   CaseStatus = "AMOUNT_DISBURSED"
	StatusMOUSigned         CaseStatus = "MOU_SIGNED"
	StatusScheduled         CaseStatus = "SCHEDULED"
	StatusConfirmed         CaseStatus = "CONFIRMED"
	StatusOngoing           CaseStatus = "ONGOING"
	StatusCompleted         CaseStatus = "COMPLETED"
	StatusClosed            CaseStatus = "CLOSED"
	StatusRejected          CaseStatus = "REJECTED"
	StatusCancelled         CaseStatus = "CANCELLED"
)

// CasePriority governs the SLA window. P1 is the most urgent.
type CasePriority string

const (
	PriorityP1 CasePriority = "P1"
	PriorityP2 CasePriority = "P2"
	PriorityP3 CasePriority = "P3"
	PriorityP4 CasePriority = "P4"
)

// VerificationStage is the two-stage sign-off gate state, persisted on the
// case. STAGE2_APPROVED is the precondition for verification-gated statuses.
type VerificationStage string

const (
	GateNone           VerificationStage = "NONE"
	GateStage1Pending  VerificationStage = "STAGE1_PENDING"
	GateStage1Approved VerificationStage = "STAGE1_APPROVED"
	GateStage1Rejected VerificationStage = "STAGE1_REJECTED"
	GateStage2Approved VerificationStage = "STAGE2_APPROVED"
	GateStage2Rejected VerificationStage = "STAGE2_REJECTED"
)

type VerificationOutcome string

const (
	OutcomeApproved VerificationOutcome = "APPROVED"
	OutcomeRejected VerificationOutcome = "REJECTED"
)

// VerificationRecord captures a single sign-off. A zero Outcome means the
// stage has not been submitted.
type VerificationRecord struct {
	By      string              `json:"by"`
	At      *time.Time          `json:"at"`
	Notes   string              `json:"notes"`
	Outcome VerificationOutcome `json:"outcome"`
}

// Present reports whether this stage has been submitted.
func (v VerificationRecord) Present() bool {
	return v.Outcome != ""
}

// Case is the central entity: one citizen-service request of any type,
// tracked through status, assignment and optional two-stage verification.
// Status only ever changes through the lifecycle engine.
type Case struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	CaseType    CaseType     `json:"caseType" gorm:"not null;index"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description" gorm:"type:text"`
	Region      string       `json:"region" gorm:"not null"`
	Status      CaseStatus   `json:"status" gorm:"not null;index"`
	Priority    CasePriority `json:"priority" gorm:"not null;index"`
	SlaDueAt    time.Time    `json:"slaDueAt" gorm:"not null"`

	// AssignedTo is a weak reference to an officer code; the directory
	// owning officer records is external to the engine.
	AssignedTo *string `json:"assignedTo" gorm:"index"`

	Gate   VerificationStage  `json:"verificationStage" gorm:"not null;default:'NONE'"`
	Stage1 VerificationRecord `json:"stage1" gorm:"embedded;embeddedPrefix:stage1_"`
	Stage2 VerificationRecord `json:"stage2" gorm:"embedded;embeddedPrefix:stage2_"`

	SubmittedBy string `json:"submittedBy" gorm:"not null"`

	// Version is the optimistic concurrency token; every persisted update
	// must match and increment it.
	Version uint `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	ClosedAt  *time.Time     `json:"closedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Events []CaseEvent `json:"events,omitempty" gorm:"foreignKey:CaseID"`
}

func (Case) TableName() string {
	return "cases"
}

// CaseSequence backs human-readable id generation: one monotonically
// increasing counter per (case type, year).
type CaseSequence struct {
	CaseType CaseType `gorm:"primaryKey"`
	Year     int      `gorm:"primaryKey"`
	Value    int64    `gorm:"not null;default:0"`
}

func (CaseSequence) TableName() string {
	return "case_sequences"
}
