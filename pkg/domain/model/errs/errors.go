package errs

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// ErrStaleVersion is returned when a case has been modified after it was loaded.
var ErrStaleVersion = errors.New("case version is stale")

// IsRetryable reports whether an error comes from a store-level uniqueness or
// version conflict that a fresh read may resolve.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleVersion) ||
		goerr.HasTag(err, TagDuplicateResource) ||
		goerr.HasTag(err, TagConflict)
}
