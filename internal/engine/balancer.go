package engine

import "sort"

// Candidate is an officer eligible for assignment together with their
// current open-case count.
type Candidate struct {
	OfficerID string `json:"officerId"`
	Workload  int    `json:"workload"`
}

// AssignStrategy selects one officer from a non-empty candidate set.
type AssignStrategy func(candidates []Candidate) string

// LeastLoaded picks the candidate with the smallest workload, breaking ties
// by officer id so the choice is deterministic.
func LeastLoaded(candidates []Candidate) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Workload < best.Workload || (c.Workload == best.Workload && c.OfficerID < best.OfficerID) {
			best = c
		}
	}
	return best.OfficerID
}

// RoundRobinFrom returns a strategy that walks candidates in id order,
// starting after the given officer. Used when a region wants rotation
// instead of load balancing.
func RoundRobinFrom(lastAssigned string) AssignStrategy {
	return func(candidates []Candidate) string {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.OfficerID
		}
		sort.Strings(ids)
		for _, id := range ids {
			if id > lastAssigned {
				return id
			}
		}
		return ids[0]
	}
}

// SelectAssignee applies the strategy (LeastLoaded when nil) to the
// candidate set. It is a pure read-path function.
func SelectAssignee(candidates []Candidate, strategy AssignStrategy) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoEligibleOfficers
	}
	if strategy == nil {
		strategy = LeastLoaded
	}
	return strategy(candidates), nil
}
