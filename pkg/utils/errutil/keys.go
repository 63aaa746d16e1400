package errutil

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

var (
	// IDs
	TenantIDKey     = goerr.NewTypedKey[types.TenantID]("tenant_id")
	CaseIDKey       = goerr.NewTypedKey[types.CaseID]("case_id")
	CustomerIDKey   = goerr.NewTypedKey[types.CustomerID]("customer_id")
	AttachmentIDKey = goerr.NewTypedKey[types.AttachmentID]("attachment_id")
	UserIDKey       = goerr.NewTypedKey[types.UserID]("user_id")

	// Natural keys
	ExternalIDKey      = goerr.NewTypedKey[string]("external_id")
	ExternalAlertIDKey = goerr.NewTypedKey[string]("external_alert_id")

	// Values
	VersionKey    = goerr.NewTypedKey[int]("version")
	OperationKey  = goerr.NewTypedKey[string]("operation")
	RepositoryKey = goerr.NewTypedKey[string]("repository")
	CollectionKey = goerr.NewTypedKey[string]("collection")
	TableKey      = goerr.NewTypedKey[string]("table")
	LineKey       = goerr.NewTypedKey[int]("line")
	AttemptKey    = goerr.NewTypedKey[int]("attempt")

	// External services
	BucketKey  = goerr.NewTypedKey[string]("bucket")
	ObjectKey  = goerr.NewTypedKey[string]("object")
)
