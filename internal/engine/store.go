package engine

import "github.com/jansetu/backend/internal/models"

// CaseFilter narrows List and Count. Nil fields are ignored.
type CaseFilter struct {
	CaseType   *models.CaseType
	Status     *models.CaseStatus
	AssignedTo *string
	Region     *string
	Limit      int
	Offset     int
}

// CaseStore is the persistence collaborator the engine drives. The engine
// never owns storage; implementations live outside this package (gorm in
// production, in-memory in tests).
//
// Update must match the case's Version optimistically: if the stored row has
// a different version the implementation returns ErrConcurrentModification
// and persists nothing, events included. Infrastructure failures are wrapped
// in ErrStorageUnavailable, never reported as success.
type CaseStore interface {
	Get(id string) (*models.Case, error)
	Create(c *models.Case, initial *models.CaseEvent) error
	Update(c *models.Case, events ...*models.CaseEvent) error
	List(f CaseFilter) ([]models.Case, error)
	Count(f CaseFilter) (int64, error)

	Events(caseID string) ([]models.CaseEvent, error)
	AppendEvent(e *models.CaseEvent) error

	// CountOpenByOfficer returns non-terminal case counts keyed by officer
	// code; officers with no open cases map to zero.
	CountOpenByOfficer(officerIDs []string) (map[string]int, error)

	// NextSequence atomically increments and returns the id counter for a
	// (case type, year) pair.
	NextSequence(ct models.CaseType, year int) (int64, error)
}

// AllTerminalStatuses is the union of every type's terminal set; stores use
// it to separate open from finished cases without knowing the registry.
func AllTerminalStatuses() []models.CaseStatus {
	return []models.CaseStatus{
		models.StatusClosed,
		models.StatusCompleted,
		models.StatusRejected,
		models.StatusCancelled,
	}
}
