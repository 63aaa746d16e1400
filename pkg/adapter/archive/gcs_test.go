package archive_test

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/adapter/archive"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"github.com/secmon-lab/amlcase/pkg/utils/test"
)

func newEvents(now time.Time) []*audit.Event {
	tenantID := types.NewTenantID()
	caseID := types.NewCaseID()
	actor := types.UserIDFromUsername("alice")
	return []*audit.Event{
		audit.New(tenantID, caseID, types.EventCaseCreated, actor, now).With("status", "New"),
		audit.New(tenantID, caseID, types.EventAlertsImported, actor, now).With("externalAlertId", "A-1"),
	}
}

func TestObjectPath(t *testing.T) {
	events := newEvents(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	gt.Equal(t, archive.ObjectPath("audit/", events),
		fmt.Sprintf("audit/%s/%s/%s.json", events[0].TenantID, events[0].CaseID, events[0].ID))
}

func TestArchive_WriteAndRead(t *testing.T) {
	vars := test.NewEnvVars(t, "TEST_ARCHIVE_BUCKET", "TEST_ARCHIVE_PREFIX")

	ctx := t.Context()
	bucket := vars.Get("TEST_ARCHIVE_BUCKET")
	prefix := fmt.Sprintf("%stest-%d/", vars.Get("TEST_ARCHIVE_PREFIX"), time.Now().UnixNano())

	a := gt.R1(archive.New(ctx, bucket)).NoError(t)
	a.WithPrefix(prefix)
	defer safe.Close(ctx, a)

	events := newEvents(time.Now().UTC().Truncate(time.Millisecond))
	gt.NoError(t, a.ArchiveEvents(ctx, events)).Required()

	client := gt.R1(storage.NewClient(ctx)).NoError(t)
	defer safe.Close(ctx, client)

	objectPath := archive.ObjectPath(prefix, events)
	reader := gt.R1(client.Bucket(bucket).Object(objectPath).NewReader(ctx)).NoError(t)
	defer safe.Close(ctx, reader)

	data := gt.R1(io.ReadAll(reader)).NoError(t)
	var got []*audit.Event
	gt.NoError(t, json.Unmarshal(data, &got)).Required()
	gt.A(t, got).Length(2)
	gt.Equal(t, got[1].Payload["externalAlertId"], "A-1")

	_ = client.Bucket(bucket).Object(objectPath).Delete(ctx)
}
