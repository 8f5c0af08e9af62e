package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAssigneeLeastLoaded(t *testing.T) {
	candidates := []Candidate{
		{OfficerID: "EX-A", Workload: 5},
		{OfficerID: "EX-B", Workload: 2},
		{OfficerID: "EX-C", Workload: 2},
	}

	got, err := SelectAssignee(candidates, nil)
	require.NoError(t, err)
	assert.Equal(t, "EX-B", got, "ties break toward the lowest officer id")
}

func TestSelectAssigneeDeterministic(t *testing.T) {
	candidates := []Candidate{
		{OfficerID: "EX-C", Workload: 2},
		{OfficerID: "EX-B", Workload: 2},
		{OfficerID: "EX-A", Workload: 5},
	}

	first, err := SelectAssignee(candidates, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectAssignee(candidates, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "EX-B", first, "candidate order must not matter")
}

func TestSelectAssigneeEmpty(t *testing.T) {
	_, err := SelectAssignee(nil, nil)
	require.ErrorIs(t, err, ErrNoEligibleOfficers)

	_, err = SelectAssignee([]Candidate{}, LeastLoaded)
	require.ErrorIs(t, err, ErrNoEligibleOfficers)
}

func TestSelectAssigneeSingleCandidate(t *testing.T) {
	got, err := SelectAssignee([]Candidate{{OfficerID: "EX-Z", Workload: 99}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "EX-Z", got)
}

func TestRoundRobinFrom(t *testing.T) {
	candidates := []Candidate{
		{OfficerID: "EX-A", Workload: 0},
		{OfficerID: "EX-B", Workload: 0},
		{OfficerID: "EX-C", Workload: 0},
	}

	got, err := SelectAssignee(candidates, RoundRobinFrom("EX-A"))
	require.NoError(t, err)
	assert.Equal(t, "EX-B", got)

	got, err = SelectAssignee(candidates, RoundRobinFrom("EX-C"))
	require.NoError(t, err)
	assert.Equal(t, "EX-A", got, "rotation wraps past the last id")
}
