package amlcase

import (
	"sort"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// MaxListSize caps every case list query.
const MaxListSize = 500

// Filter narrows a case list. Zero values match everything.
type Filter struct {
	Status      types.CaseStatus
	Owner       types.UserID
	OverdueOnly bool
	// Now is the reference time of OverdueOnly.
	Now   time.Time
	Limit int
}

// Match applies the filter to a single case. Deleted cases never match.
func (f Filter) Match(c *Case) bool {
	if c.IsDeleted {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Owner != "" && c.Owner != f.Owner {
		return false
	}
	if f.OverdueOnly && !c.IsOverdue(f.Now) {
		return false
	}
	return true
}

// EffectiveLimit returns Limit bounded by MaxListSize.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxListSize {
		return MaxListSize
	}
	return f.Limit
}

// SortNewestFirst orders cases by creation time descending.
func SortNewestFirst(cases []*Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.After(cases[j].CreatedAt)
		}
		return cases[i].ID > cases[j].ID
	})
}
