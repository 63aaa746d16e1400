package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Breakdown is one bucket of a grouped count.
type Breakdown struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary is the tenant rollup shown on the dashboard.
type Summary struct {
	TotalCases          int         `json:"totalCases"`
	OpenCases           int         `json:"openCases"`
	ClosedCases         int         `json:"closedCases"`
	OverdueCases        int         `json:"overdueCases"`
	InReviewCases       int         `json:"inReviewCases"`
	HighRiskCases       int         `json:"highRiskCases"`
	AverageHoursToClose float64     `json:"averageHoursToClose"`
	ByStatus            []Breakdown `json:"byStatus"`
	ByAnalyst           []Breakdown `json:"byAnalyst"`
}

// Compute aggregates cases of a single tenant. Deleted cases are ignored.
func Compute(cases []*amlcase.Case, now time.Time) *Summary {
	s := &Summary{
		ByStatus:  []Breakdown{},
		ByAnalyst: []Breakdown{},
	}

	byStatus := map[string]int{}
	byOwner := map[string]int{}
	var closedHours float64

	for _, c := range cases {
		if c.IsDeleted {
			continue
		}
		s.TotalCases++

		if c.IsOpen() {
			s.OpenCases++
		} else {
			s.ClosedCases++
			closedHours += c.ClosedAt.Sub(c.CreatedAt).Hours()
		}
		if c.IsOverdue(now) {
			s.OverdueCases++
		}
		if c.Status == types.CaseStatusInReview {
			s.InReviewCases++
		}
		if c.RiskLevel == types.RiskLevelHigh {
			s.HighRiskCases++
		}

		byStatus[c.Status.String()]++
		if c.Owner != types.EmptyUserID {
			byOwner[c.Owner.String()]++
		}
	}

	if s.ClosedCases > 0 {
		s.AverageHoursToClose = math.Round(closedHours/float64(s.ClosedCases)*100) / 100
	}
	s.ByStatus = sortedBreakdown(byStatus)
	s.ByAnalyst = sortedBreakdown(byOwner)

	return s
}

// sortedBreakdown orders buckets by count descending, then key for a stable output.
func sortedBreakdown(m map[string]int) []Breakdown {
	out := make([]Breakdown, 0, len(m))
	for k, v := range m {
		out = append(out, Breakdown{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
