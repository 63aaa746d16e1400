package audit

import (
	"sort"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Event is an immutable audit trail record. Payload holds a snapshot of what
// the operation changed, never a full case diff.
type Event struct {
	ID          types.EventID     `json:"id"`
	TenantID    types.TenantID    `json:"tenantId"`
	CaseID      types.CaseID      `json:"caseId"`
	Type        types.EventType   `json:"type"`
	ActorUserID types.UserID      `json:"actorUserId"`
	At          time.Time         `json:"at"`
	Payload     map[string]string `json:"payload"`
}

func New(tenantID types.TenantID, caseID types.CaseID, eventType types.EventType, actor types.UserID, at time.Time) *Event {
	return &Event{
		ID:          types.NewEventID(),
		TenantID:    tenantID,
		CaseID:      caseID,
		Type:        eventType,
		ActorUserID: actor,
		At:          at,
		Payload:     map[string]string{},
	}
}

// With sets a payload field and returns the event for chaining.
func (x *Event) With(key, value string) *Event {
	if x.Payload == nil {
		x.Payload = map[string]string{}
	}
	x.Payload[key] = value
	return x
}

// SortChronological orders events by time, then by ID. Event IDs are
// UUIDv7 so the ID breaks ties in creation order.
func SortChronological(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		return events[i].ID < events[j].ID
	})
}

// Reverse flips events in place, turning chronological order into display order.
func Reverse(events []*Event) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}
