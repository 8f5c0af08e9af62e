package storage

import (
	"errors"
	"fmt"

	"github.com/jansetu/backend/internal/engine"
	"github.com/jansetu/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaseStore is the gorm/postgres implementation of engine.CaseStore. All
// mutations to one case are serialized through the version column: an
// UPDATE guarded by the version read earlier either bumps it or matches
// nothing, in which case the caller lost a race.
type CaseStore struct {
	db *gorm.DB
}

var _ engine.CaseStore = (*CaseStore)(nil)

func NewCaseStore(db *gorm.DB) *CaseStore {
	return &CaseStore{db: db}
}

func (s *CaseStore) Get(id string) (*models.Case, error) {
	var c models.Case
	if err := s.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", engine.ErrNotFound, id)
		}
		return nil, wrapStorage(err)
	}
	return &c, nil
}

func (s *CaseStore) Create(c *models.Case, initial *models.CaseEvent) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(initial).Error
	})
	return wrapStorage(err)
}

func (s *CaseStore) Update(c *models.Case, events ...*models.CaseEvent) error {
	readVersion := c.Version
	c.Version = readVersion + 1
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Case{}).
			Where("id = ? AND version = ?", c.ID, readVersion).
			Select("*").Omit("created_at").Updates(c)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return engine.ErrConcurrentModification
		}
		for _, e := range events {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.Version = readVersion
		if errors.Is(err, engine.ErrConcurrentModification) {
			return err
		}
		return wrapStorage(err)
	}
	return nil
}

func (s *CaseStore) List(f engine.CaseFilter) ([]models.Case, error) {
	var cases []models.Case
	q := applyFilter(s.db.Model(&models.Case{}), f).Order("created_at DESC, id")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&cases).Error; err != nil {
		return nil, wrapStorage(err)
	}
	return cases, nil
}

func (s *CaseStore) Count(f engine.CaseFilter) (int64, error) {
	var total int64
	if err := applyFilter(s.db.Model(&models.Case{}), f).Count(&total).Error; err != nil {
		return 0, wrapStorage(err)
	}
	return total, nil
}

func (s *CaseStore) Events(caseID string) ([]models.CaseEvent, error) {
	var events []models.CaseEvent
	if err := s.db.Where("case_id = ?", caseID).Order("created_at, id").Find(&events).Error; err != nil {
		return nil, wrapStorage(err)
	}
	return events, nil
}

func (s *CaseStore) AppendEvent(e *models.CaseEvent) error {
	return wrapStorage(s.db.Create(e).Error)
}

func (s *CaseStore) CountOpenByOfficer(officerIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(officerIDs))
	for _, id := range officerIDs {
		counts[id] = 0
	}
	if len(officerIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AssignedTo string
		Total      int
	}
	err := s.db.Model(&models.Case{}).
		Select("assigned_to, COUNT(*) AS total").
		Where("assigned_to IN ?", officerIDs).
		Where("status NOT IN ?", engine.AllTerminalStatuses()).
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStorage(err)
	}
	for _, r := range rows {
		counts[r.AssignedTo] = r.Total
	}
	return counts, nil
}

func (s *CaseStore) NextSequence(ct models.CaseType, year int) (int64, error) {
	var seq models.CaseSequence
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CaseSequence{CaseType: ct, Year: year}).Error; err != nil {
			return err
		}
		return tx.Raw(
			"UPDATE case_sequences SET value = value + 1 WHERE case_type = ? AND year = ? RETURNING value",
			ct, year,
		).Scan(&seq.Value).Error
	})
	if err != nil {
		return 0, wrapStorage(err)
	}
	return seq.Value, nil
}

func applyFilter(q *gorm.DB, f engine.CaseFilter) *gorm.DB {
	if f.CaseType != nil {
		q = q.Where("case_type = ?", *f.CaseType)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.Region != nil {
		q = q.Where("region = ?", *f.Region)
	}
	return q
}

// wrapStorage turns infrastructure failures into the retryable sentinel so
// callers never mistake a timeout for success or a permanent error.
func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", engine.ErrStorageUnavailable, err)
}
