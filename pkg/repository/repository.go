package repository

import (
	"context"

	"github.com/secmon-lab/amlcase/pkg/repository/firestore"
	"github.com/secmon-lab/amlcase/pkg/repository/memory"
	"github.com/secmon-lab/amlcase/pkg/repository/sqlite"
)

type (
	Memory    = memory.Memory
	Firestore = firestore.Firestore
	SQLite    = sqlite.SQLite
)

// NewMemory creates a process-local case store.
func NewMemory() *Memory {
	return memory.New()
}

// NewFirestore creates a case store on Cloud Firestore.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	return firestore.New(ctx, projectID, databaseID)
}

// NewSQLite opens a sqlite case store and migrates its schema.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	return sqlite.New(ctx, dsn, sqlite.WithAutoMigrate())
}
