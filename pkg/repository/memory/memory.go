package memory

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
)

// tenantStore holds the records of one tenant. Keeping tenants in separate
// maps makes cross-tenant reads impossible.
type tenantStore struct {
	cases          map[types.CaseID]*amlcase.Case
	customers      map[types.CustomerID]*customer.Customer
	customerByExt  map[string]types.CustomerID
	events         map[types.CaseID][]*audit.Event
	comments       map[types.CaseID][]*amlcase.Comment
	attachments    map[types.AttachmentID]*amlcase.Attachment
	importedAlerts map[string]*alert.ImportedAlert
	slaSettings    *sla.Settings
}

func newTenantStore() *tenantStore {
	return &tenantStore{
		cases:          make(map[types.CaseID]*amlcase.Case),
		customers:      make(map[types.CustomerID]*customer.Customer),
		customerByExt:  make(map[string]types.CustomerID),
		events:         make(map[types.CaseID][]*audit.Event),
		comments:       make(map[types.CaseID][]*amlcase.Comment),
		attachments:    make(map[types.AttachmentID]*amlcase.Attachment),
		importedAlerts: make(map[string]*alert.ImportedAlert),
	}
}

type Memory struct {
	mu      sync.RWMutex
	tenants map[types.TenantID]*tenantStore

	// Call counter for tracking method invocations
	callCounts map[string]int
	callMu     sync.RWMutex

	eb *goerr.Builder
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		tenants:    make(map[types.TenantID]*tenantStore),
		callCounts: make(map[string]int),
		eb:         goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "memory")),
	}
}

// tenant returns the store of a tenant, or an empty one that is not kept.
// Callers must hold at least the read lock.
func (r *Memory) tenant(tenantID types.TenantID) *tenantStore {
	if s, ok := r.tenants[tenantID]; ok {
		return s
	}
	return newTenantStore()
}

func (r *Memory) incrementCallCount(methodName string) {
	r.callMu.Lock()
	defer r.callMu.Unlock()
	r.callCounts[methodName]++
}

// GetCallCount returns the number of times a method has been called.
func (r *Memory) GetCallCount(methodName string) int {
	r.callMu.RLock()
	defer r.callMu.RUnlock()
	return r.callCounts[methodName]
}

func (r *Memory) Close() error {
	return nil
}
