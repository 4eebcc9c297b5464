// Package store persists documents, tenants and processing jobs through gorm.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Documents() DocumentStore
	Tenants() TenantStore
	Jobs() JobStore
	AutoMigrate(ctx context.Context) error
	Close() error
}

// DocumentStore defines the document storage interface.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id string) (*model.Document, error)
	GetForTenant(ctx context.Context, tenantID, id string) (*model.Document, error)
	ListRecent(ctx context.Context, limit int) ([]*model.DocumentSummary, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Document, error)
}

// TenantStore defines the tenant storage interface.
type TenantStore interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error)
}

// JobStore defines the processing job storage interface.
type JobStore interface {
	Create(ctx context.Context, job *model.ProcessingJob) error
	Get(ctx context.Context, tenantID, id string) (*model.ProcessingJob, error)
	CountActive(ctx context.Context, tenantID string) (int64, error)
	QueuePosition(ctx context.Context, job *model.ProcessingJob) (int, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, documentID string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
	RecordCallback(ctx context.Context, id string, at time.Time, succeeded bool, errMessage string) error
}

type datastore struct {
	db *gorm.DB
}

var _ Factory = (*datastore)(nil)

// NewFactory returns a Factory backed by db.
func NewFactory(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// Documents returns the document store.
func (ds *datastore) Documents() DocumentStore {
	return newDocuments(ds.db)
}

// Tenants returns the tenant store.
func (ds *datastore) Tenants() TenantStore {
	return newTenants(ds.db)
}

// Jobs returns the job store.
func (ds *datastore) Jobs() JobStore {
	return newJobs(ds.db)
}

// AutoMigrate migrates the database schema.
func (ds *datastore) AutoMigrate(ctx context.Context) error {
	if err := ds.db.WithContext(ctx).AutoMigrate(
		&model.Tenant{},
		&model.Document{},
		&model.ProcessingJob{},
	); err != nil {
		return errno.ErrDatabase.WithCause(err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// wrap maps gorm errors onto errnos. notFound is returned for missing rows.
func wrap(err error, notFound *errno.Errno) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errno.ErrDatabase.WithCause(err)
}
