package types

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}

func validateUUID(kind, value string) error {
	if value == "" {
		return goerr.New("empty " + kind)
	}
	if _, err := uuid.Parse(value); err != nil {
		return goerr.Wrap(err, "invalid "+kind+" format", goerr.V("id", value))
	}
	return nil
}

// TenantID is the isolation boundary. Every stored record carries one.
type TenantID string

// DefaultTenantID is used by login and the demo fixture when no tenant is given.
const DefaultTenantID TenantID = "00000000-0000-0000-0000-000000000001"

func (x TenantID) String() string {
	return string(x)
}

func (x TenantID) Validate() error {
	return validateUUID("tenant ID", string(x))
}

func NewTenantID() TenantID {
	return TenantID(newUUIDv7())
}

type UserID string

const EmptyUserID UserID = ""

func (x UserID) String() string {
	return string(x)
}

func (x UserID) Validate() error {
	return validateUUID("user ID", string(x))
}

// UserIDFromUsername derives a stable user ID from a login name.
func UserIDFromUsername(username string) UserID {
	name := strings.ToLower(strings.TrimSpace(username))
	return UserID(uuid.NewMD5(uuid.Nil, []byte(name)).String())
}

type CaseID string

const EmptyCaseID CaseID = ""

func (x CaseID) String() string {
	return string(x)
}

func NewCaseID() CaseID {
	return CaseID(newUUIDv7())
}

func (x CaseID) Validate() error {
	return validateUUID("case ID", string(x))
}

type CustomerID string

func (x CustomerID) String() string {
	return string(x)
}

func NewCustomerID() CustomerID {
	return CustomerID(newUUIDv7())
}

type EventID string

func (x EventID) String() string {
	return string(x)
}

func NewEventID() EventID {
	return EventID(newUUIDv7())
}

type CommentID string

func (x CommentID) String() string {
	return string(x)
}

func NewCommentID() CommentID {
	return CommentID(newUUIDv7())
}

type AttachmentID string

func (x AttachmentID) String() string {
	return string(x)
}

func NewAttachmentID() AttachmentID {
	return AttachmentID(newUUIDv7())
}

func (x AttachmentID) Validate() error {
	return validateUUID("attachment ID", string(x))
}

type ImportedAlertID string

func (x ImportedAlertID) String() string {
	return string(x)
}

func NewImportedAlertID() ImportedAlertID {
	return ImportedAlertID(newUUIDv7())
}
