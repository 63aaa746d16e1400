package types

import "github.com/m-mizutani/goerr/v2"

// EventType is the closed set of audit trail entries.
type EventType string

const (
	EventCaseCreated          EventType = "CaseCreated"
	EventStatusChanged        EventType = "StatusChanged"
	EventAssigned             EventType = "Assigned"
	EventDecisionSet          EventType = "DecisionSet"
	EventCommentAdded         EventType = "CommentAdded"
	EventEvidenceAdded        EventType = "EvidenceAdded"
	EventCaseApproved         EventType = "CaseApproved"
	EventCaseClosed           EventType = "CaseClosed"
	EventEvidencePackExported EventType = "EvidencePackExported"
	EventAlertsImported       EventType = "AlertsImported"
)

func (t EventType) String() string {
	return string(t)
}

func (t EventType) Validate() error {
	switch t {
	case EventCaseCreated, EventStatusChanged, EventAssigned, EventDecisionSet,
		EventCommentAdded, EventEvidenceAdded, EventCaseApproved, EventCaseClosed,
		EventEvidencePackExported, EventAlertsImported:
		return nil
	}
	return goerr.New("invalid event type", goerr.V("type", t))
}
