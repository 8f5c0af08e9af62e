package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jansetu/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	eng := New(store, nil).WithClock(func() time.Time { return fixedNow })
	return eng, store
}

func createCase(t *testing.T, eng *Engine, ct models.CaseType) *models.Case {
	t.Helper()
	c, err := eng.CreateCase(CreateCaseInput{
		CaseType:    ct,
		Title:       "test case",
		Description: "created by test",
		Region:      "AP-NLR",
		Priority:    models.PriorityP3,
		SubmittedBy: "CIT-000007",
		ActorRole:   models.RoleCitizen,
	})
	require.NoError(t, err)
	return c
}

func TestCreateCase(t *testing.T) {
	eng, store := newTestEngine(t)

	c := createCase(t, eng, models.CaseTypeGrievance)

	assert.True(t, strings.HasPrefix(c.ID, "GRV-AP-NLR-2025-"), c.ID)
	assert.Equal(t, models.StatusNew, c.Status)
	assert.Equal(t, models.GateNone, c.Gate)
	assert.Equal(t, uint(1), c.Version)
	assert.Equal(t, fixedNow.Add(240*time.Hour), c.SlaDueAt)
	assert.Nil(t, c.AssignedTo)

	history := store.statusChanges(c.ID)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, models.StatusNew, *history[0].ToStatus)
}

func TestCreateCaseIDsAreUnique(t *testing.T) {
	eng, _ := newTestEngine(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		c := createCase(t, eng, models.CaseTypeGrievance)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestCreateCaseRejectsUnknownTypeAndPriority(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.CreateCase(CreateCaseInput{CaseType: "PASSPORT", Priority: models.PriorityP1})
	require.ErrorIs(t, err, ErrUnknownCaseType)

	_, err = eng.CreateCase(CreateCaseInput{CaseType: models.CaseTypeGrievance, Priority: "URGENT"})
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func TestGrievanceHappyPath(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	// Assignment auto-advances NEW -> ASSIGNED.
	c2, err := eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, c2.Status)
	require.NotNil(t, c2.AssignedTo)
	assert.Equal(t, "EX-101", *c2.AssignedTo)

	for _, to := range []models.CaseStatus{models.StatusInProgress, models.StatusResolved, models.StatusClosed} {
		c2, err = eng.Transition(c.ID, to, models.RoleExecutive, "EX-101", "")
		require.NoError(t, err)
		assert.Equal(t, to, c2.Status)
	}
	require.NotNil(t, c2.ClosedAt)

	// create + assign-entry + 3 transitions
	assert.Len(t, store.statusChanges(c.ID), 5)
}

func TestTransitionIllegalEdge(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusResolved, models.RoleMasterAdmin, "MA-001", "")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionInvalidStatusForType(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusMOUSigned, models.RoleMasterAdmin, "MA-001", "")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionUnknownCase(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Transition("GRV-XX-2025-000001-AA", models.StatusAssigned, models.RoleMasterAdmin, "MA-001", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTerminalCaseIsImmutable(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusCancelled, models.RoleCitizen, "CIT-000007", "no longer needed")
	require.NoError(t, err)

	before, err := eng.GetCase(c.ID)
	require.NoError(t, err)
	historyBefore := len(store.statusChanges(c.ID))

	_, err = eng.Transition(c.ID, models.StatusAssigned, models.RoleMasterAdmin, "MA-001", "")
	require.ErrorIs(t, err, ErrAlreadyTerminal)
	_, err = eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.ErrorIs(t, err, ErrAlreadyTerminal)
	_, err = eng.ChangePriority(c.ID, models.PriorityP1, models.RoleMasterAdmin, "MA-001")
	require.ErrorIs(t, err, ErrAlreadyTerminal)

	after, err := eng.GetCase(c.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.SlaDueAt, after.SlaDueAt)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, historyBefore, len(store.statusChanges(c.ID)))
}

func TestCitizenMayOnlyCancelOwnCase(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusCancelled, models.RoleCitizen, "CIT-000099", "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = eng.Transition(c.ID, models.StatusCancelled, models.RoleCitizen, "CIT-000007", "")
	require.NoError(t, err)
}

func TestCitizenCannotCancelAfterInitialStatus(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)

	_, err = eng.Transition(c.ID, models.StatusCancelled, models.RoleCitizen, "CIT-000007", "")
	require.ErrorIs(t, err, ErrForbidden)

	// Officers may still cancel.
	_, err = eng.Transition(c.ID, models.StatusCancelled, models.RoleExecutive, "EX-101", "withdrawn in person")
	require.NoError(t, err)
}

func TestCitizenCannotAdvanceCase(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusAssigned, models.RoleCitizen, "CIT-000007", "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestExecutiveMustBeAssigneeToLeaveInitialStatus(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeAppointment)

	_, err := eng.Transition(c.ID, models.StatusScheduled, models.RoleExecutive, "EX-101", "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = eng.Assign(c.ID, "EX-102", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)

	_, err = eng.Transition(c.ID, models.StatusScheduled, models.RoleExecutive, "EX-101", "")
	require.ErrorIs(t, err, ErrForbidden, "non-assignee executive")

	c2, err := eng.Transition(c.ID, models.StatusScheduled, models.RoleExecutive, "EX-102", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, c2.Status)
}

func TestMasterAdminBypassesAssigneeRule(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeAppointment)

	c2, err := eng.Transition(c.ID, models.StatusScheduled, models.RoleMasterAdmin, "MA-001", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, c2.Status)
}

func TestAssignWithoutEntryStatusKeepsStatus(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeTempleLetter)

	c2, err := eng.Assign(c.ID, "EX-102", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, c2.Status, "temple letters have no assignment entry status")
	require.NotNil(t, c2.AssignedTo)
	assert.Equal(t, "EX-102", *c2.AssignedTo)
}

func TestReassignRecordsPreviousOfficer(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	_, err = eng.Assign(c.ID, "EX-103", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)

	events, err := store.Events(c.ID)
	require.NoError(t, err)
	var assignments []models.CaseEvent
	for _, e := range events {
		if e.EventType == models.EventAssignment {
			assignments = append(assignments, e)
		}
	}
	require.Len(t, assignments, 2)
	assert.Equal(t, "assigned to EX-101", assignments[0].Notes)
	assert.Equal(t, "reassigned from EX-101 to EX-103", assignments[1].Notes)
}

func TestAssignRejectsCitizens(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Assign(c.ID, "EX-101", models.RoleCitizen, "CIT-000007")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	candidates := []Candidate{
		{OfficerID: "EX-A", Workload: 5},
		{OfficerID: "EX-B", Workload: 2},
		{OfficerID: "EX-C", Workload: 2},
	}
	c2, err := eng.AutoAssign(c.ID, candidates, nil, models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	require.NotNil(t, c2.AssignedTo)
	assert.Equal(t, "EX-B", *c2.AssignedTo)
}

func TestAutoAssignNoCandidates(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.AutoAssign(c.ID, nil, nil, models.RoleMasterAdmin, "MA-001")
	require.ErrorIs(t, err, ErrNoEligibleOfficers)
}

func TestChangePrioritySameValueIsNoOp(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)
	eventsBefore, _ := store.Events(c.ID)

	c2, err := eng.ChangePriority(c.ID, models.PriorityP3, models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	assert.Equal(t, c.SlaDueAt, c2.SlaDueAt)
	assert.Equal(t, c.Version, c2.Version)

	eventsAfter, _ := store.Events(c.ID)
	assert.Equal(t, len(eventsBefore), len(eventsAfter))
}

func TestAddCommentAllowedOnTerminalCase(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Transition(c.ID, models.StatusCancelled, models.RoleCitizen, "CIT-000007", "")
	require.NoError(t, err)

	ev, err := eng.AddComment(c.ID, models.RoleExecutive, "EX-101", "closing note for the record")
	require.NoError(t, err)
	assert.Equal(t, models.EventComment, ev.EventType)

	events, _ := store.Events(c.ID)
	assert.Equal(t, models.EventComment, events[len(events)-1].EventType)
}

func TestAddCommentCitizenOwnCaseOnly(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.AddComment(c.ID, models.RoleCitizen, "CIT-000099", "hello")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = eng.AddComment(c.ID, models.RoleCitizen, "CIT-000007", "any update?")
	require.NoError(t, err)
}

func TestHistoryIsAppendOnlyAndOrdered(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)

	_, err := eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	_, err = eng.Transition(c.ID, models.StatusInProgress, models.RoleExecutive, "EX-101", "working it")
	require.NoError(t, err)

	history, err := eng.History(c.ID)
	require.NoError(t, err)
	require.Len(t, history, 4) // create, assignment, entry transition, transition
	assert.Equal(t, models.EventStatusChange, history[0].EventType)
	assert.Equal(t, models.EventAssignment, history[1].EventType)
}

func TestListCasesBySLABucket(t *testing.T) {
	store := newMemStore()
	clock := fixedNow
	eng := New(store, nil).WithClock(func() time.Time { return clock })

	mk := func(pr models.CasePriority) *models.Case {
		c, err := eng.CreateCase(CreateCaseInput{
			CaseType:    models.CaseTypeGrievance,
			Title:       "t",
			Region:      "AP-NLR",
			Priority:    pr,
			SubmittedBy: "CIT-000007",
			ActorRole:   models.RoleCitizen,
		})
		require.NoError(t, err)
		return c
	}
	mk(models.PriorityP1) // due in 48h
	mk(models.PriorityP4) // due in 480h

	clock = fixedNow.Add(50 * time.Hour) // P1 breached, P4 comfortably within

	breach := SLABreach
	breached, err := eng.ListCases(CaseFilter{}, &breach)
	require.NoError(t, err)
	require.Len(t, breached, 1)
	assert.Equal(t, models.PriorityP1, breached[0].Priority)

	within := SLAWithin
	ok, err := eng.ListCases(CaseFilter{}, &within)
	require.NoError(t, err)
	require.Len(t, ok, 1)
	assert.Equal(t, models.PriorityP4, ok[0].Priority)
}

func TestConcurrentTransitionExactlyOneWins(t *testing.T) {
	eng, store := newTestEngine(t)
	c := createCase(t, eng, models.CaseTypeGrievance)
	_, err := eng.Assign(c.ID, "EX-101", models.RoleMasterAdmin, "MA-001")
	require.NoError(t, err)
	historyBefore := len(store.statusChanges(c.ID))

	// Both goroutines read the same version before either writes.
	var reads sync.WaitGroup
	reads.Add(2)
	store.afterGet = func() { reads.Done() }
	store.beforeUpdate = func() { reads.Wait() }

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := eng.Transition(c.ID, models.StatusInProgress, models.RoleExecutive, "EX-101", "")
			errs <- err
		}()
	}

	var wins, losses int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrConcurrentModification)
			losses++
		}
	}
	store.afterGet, store.beforeUpdate = nil, nil

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, historyBefore+1, len(store.statusChanges(c.ID)), "exactly one new history entry")

	got, err := eng.GetCase(c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
}
