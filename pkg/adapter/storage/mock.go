package storage

import (
	"context"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
)

// Mock hands out mock:// URLs. It is used when no bucket is configured so
// the attachment flow still works end to end in local runs.
type Mock struct{}

var _ interfaces.Presigner = &Mock{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) UploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "mock://upload/" + key, nil
}

func (m *Mock) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "mock://download/" + key, nil
}

func (m *Mock) Close(_ context.Context) {}
