package models

import (
	"time"

	"gorm.io/gorm"
)

type CaseEventType string

const (
	EventStatusChange   CaseEventType = "STATUS_CHANGE"
	EventAssignment     CaseEventType = "ASSIGNMENT"
	EventPriorityChange CaseEventType = "PRIORITY_CHANGE"
	EventVerification   CaseEventType = "VERIFICATION"
	EventComment        CaseEventType = "COMMENT"
)

// CaseEvent is one row of a case's append-only audit trail. Rows are never
// updated or deleted; the STATUS_CHANGE subset is the status history the
// lifecycle invariants are checked against.
type CaseEvent struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	CaseID     string        `json:"caseId" gorm:"not null;index"`
	EventType  CaseEventType `json:"eventType" gorm:"not null"`
	FromStatus *CaseStatus   `json:"fromStatus"`
	ToStatus   *CaseStatus   `json:"toStatus"`
	ActorRole  UserRole      `json:"actorRole" gorm:"not null"`
	ActorID    string        `json:"actorId" gorm:"not null"`
	Notes      string        `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time     `json:"createdAt"`

	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (CaseEvent) TableName() string {
	return "case_events"
}
