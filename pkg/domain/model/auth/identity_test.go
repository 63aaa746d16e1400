package auth_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func TestIdentityValidate(t *testing.T) {
	gt.NoError(t, auth.Anonymous().Validate())

	err := auth.Identity{TenantID: "bad", UserID: auth.DemoAnalystID}.Validate()
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagUnauthorized))

	err = auth.Identity{TenantID: types.DefaultTenantID}.Validate()
	gt.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFrom(context.Background())
	gt.False(t, ok)

	id := auth.Anonymous()
	got, ok := auth.IdentityFrom(auth.WithIdentity(context.Background(), id))
	gt.True(t, ok)
	gt.Equal(t, got.UserID, id.UserID)
	gt.True(t, got.HasRole(auth.RoleComplianceAdmin))
	gt.False(t, got.HasRole(auth.RoleAnalyst))
}
