package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCitizen     UserRole = "CITIZEN"
	RoleExecutive   UserRole = "EXECUTIVE"
	RoleMasterAdmin UserRole = "MASTER_ADMIN"
)

// User is a portal account. Officers additionally carry an OfficerCode, the
// identifier cases store in AssignedTo. Cases never join against this table;
// officer details are resolved at presentation time.
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"not null"`
	FirstName   string         `json:"firstName" gorm:"not null"`
	LastName    string         `json:"lastName" gorm:"not null"`
	Role        UserRole       `json:"role" gorm:"not null;default:'CITIZEN'"`
	OfficerCode *string        `json:"officerCode" gorm:"uniqueIndex"`
	Department  *string        `json:"department"`
	Region      *string        `json:"region"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsOfficer reports whether this account may action cases.
func (u *User) IsOfficer() bool {
	return u.Role == RoleExecutive || u.Role == RoleMasterAdmin
}
