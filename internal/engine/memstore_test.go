package engine

import (
	"fmt"
	"sync"

	"github.com/jansetu/backend/internal/models"
)

// memStore is an in-memory CaseStore honoring the same optimistic-version
// contract as the production gorm store.
type memStore struct {
	mu     sync.Mutex
	cases  map[string]models.Case
	events map[string][]models.CaseEvent
	seqs   map[string]int64

	// test hooks, both optional
	afterGet     func()
	beforeUpdate func()
}

func newMemStore() *memStore {
	return &memStore{
		cases:  make(map[string]models.Case),
		events: make(map[string][]models.CaseEvent),
		seqs:   make(map[string]int64),
	}
}

func (s *memStore) Get(id string) (*models.Case, error) {
	s.mu.Lock()
	c, ok := s.cases[id]
	s.mu.Unlock()
	if s.afterGet != nil {
		s.afterGet()
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := c
	return &copied, nil
}

func (s *memStore) Create(c *models.Case, initial *models.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = *c
	s.events[c.ID] = append(s.events[c.ID], *initial)
	return nil
}

func (s *memStore) Update(c *models.Case, events ...*models.CaseEvent) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[c.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
	}
	if stored.Version != c.Version {
		return ErrConcurrentModification
	}
	c.Version++
	s.cases[c.ID] = *c
	for _, e := range events {
		s.events[c.ID] = append(s.events[c.ID], *e)
	}
	return nil
}

func (s *memStore) List(f CaseFilter) ([]models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Case
	for _, c := range s.cases {
		if f.CaseType != nil && c.CaseType != *f.CaseType {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.Region != nil && c.Region != *f.Region {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *memStore) Count(f CaseFilter) (int64, error) {
	cases, err := s.List(f)
	if err != nil {
		return 0, err
	}
	return int64(len(cases)), nil
}

func (s *memStore) Events(caseID string) ([]models.CaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CaseEvent(nil), s.events[caseID]...), nil
}

func (s *memStore) AppendEvent(e *models.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.CaseID] = append(s.events[e.CaseID], *e)
	return nil
}

func (s *memStore) CountOpenByOfficer(officerIDs []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	terminal := make(map[models.CaseStatus]bool)
	for _, st := range AllTerminalStatuses() {
		terminal[st] = true
	}
	counts := make(map[string]int, len(officerIDs))
	for _, id := range officerIDs {
		counts[id] = 0
	}
	for _, c := range s.cases {
		if c.AssignedTo == nil || terminal[c.Status] {
			continue
		}
		if _, ok := counts[*c.AssignedTo]; ok {
			counts[*c.AssignedTo]++
		}
	}
	return counts, nil
}

func (s *memStore) NextSequence(ct models.CaseType, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s-%d", ct, year)
	s.seqs[key]++
	return s.seqs[key], nil
}

// statusChanges extracts the status history subset of a case's trail.
func (s *memStore) statusChanges(caseID string) []models.CaseEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CaseEvent
	for _, e := range s.events[caseID] {
		if e.EventType == models.EventStatusChange {
			out = append(out, e)
		}
	}
	return out
}
