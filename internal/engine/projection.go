package engine

import (
	"fmt"
	"sort"
	"time"
)

// AggregateBucket is one dashboard count.
type AggregateBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DashboardSummary bundles the three standard groupings.
type DashboardSummary struct {
	ByTypeAndStatus []AggregateBucket `json:"byTypeAndStatus"`
	ByPriority      []AggregateBucket `json:"byPriority"`
	BySLA           []AggregateBucket `json:"bySla"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// Projection is the read-side aggregation over the case collection. It owns
// no storage and is never a source of truth: every query recomputes from the
// canonical store (callers may cache the result).
type Projection struct {
	store CaseStore
	sla   *SLAPolicy
	now   func() time.Time
}

// NewProjection builds a projection over the same store the engine writes.
func NewProjection(store CaseStore, sla *SLAPolicy) *Projection {
	if sla == nil {
		sla = NewSLAPolicy()
	}
	return &Projection{store: store, sla: sla, now: time.Now}
}

// WithClock fixes the projection's notion of now. Tests only.
func (p *Projection) WithClock(now func() time.Time) *Projection {
	p.now = now
	return p
}

// ByTypeAndStatus counts cases per (caseType, status) pair, keyed
// "GRIEVANCE/NEW".
func (p *Projection) ByTypeAndStatus() ([]AggregateBucket, error) {
	cases, err := p.store.List(CaseFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, c := range cases {
		counts[fmt.Sprintf("%s/%s", c.CaseType, c.Status)]++
	}
	return sortedBuckets(counts), nil
}

// ByPriority counts cases per priority.
func (p *Projection) ByPriority() ([]AggregateBucket, error) {
	cases, err := p.store.List(CaseFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, c := range cases {
		counts[string(c.Priority)]++
	}
	return sortedBuckets(counts), nil
}

// BySLA counts cases per SLA bucket at the current instant.
func (p *Projection) BySLA() ([]AggregateBucket, error) {
	cases, err := p.store.List(CaseFilter{})
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	counts := map[string]int64{
		string(SLAWithin): 0,
		string(SLAAtRisk): 0,
		string(SLABreach): 0,
	}
	for _, c := range cases {
		counts[string(p.sla.Evaluate(&c, now))]++
	}
	return sortedBuckets(counts), nil
}

// Summary computes all three groupings in one pass over the collection.
func (p *Projection) Summary() (*DashboardSummary, error) {
	cases, err := p.store.List(CaseFilter{})
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	byTypeStatus := make(map[string]int64)
	byPriority := make(map[string]int64)
	bySLA := map[string]int64{
		string(SLAWithin): 0,
		string(SLAAtRisk): 0,
		string(SLABreach): 0,
	}
	for _, c := range cases {
		byTypeStatus[fmt.Sprintf("%s/%s", c.CaseType, c.Status)]++
		byPriority[string(c.Priority)]++
		bySLA[string(p.sla.Evaluate(&c, now))]++
	}
	return &DashboardSummary{
		ByTypeAndStatus: sortedBuckets(byTypeStatus),
		ByPriority:      sortedBuckets(byPriority),
		BySLA:           sortedBuckets(bySLA),
		GeneratedAt:     now,
	}, nil
}

// Aggregate dispatches on the groupBy dimension named in the query API.
func (p *Projection) Aggregate(groupBy string) ([]AggregateBucket, error) {
	switch groupBy {
	case "status":
		return p.ByTypeAndStatus()
	case "priority":
		return p.ByPriority()
	case "sla":
		return p.BySLA()
	default:
		return nil, fmt.Errorf("unknown groupBy %q (want status, priority or sla)", groupBy)
	}
}

func sortedBuckets(counts map[string]int64) []AggregateBucket {
	out := make([]AggregateBucket, 0, len(counts))
	for k, v := range counts {
		out = append(out, AggregateBucket{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
