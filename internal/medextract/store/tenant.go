package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

type tenants struct {
	db *gorm.DB
}

func newTenants(db *gorm.DB) *tenants {
	return &tenants{db}
}

// Create inserts a tenant.
func (t *tenants) Create(ctx context.Context, tenant *model.Tenant) error {
	return wrap(t.db.WithContext(ctx).Create(tenant).Error, nil)
}

// GetByAPIKey looks up a tenant by its API key.
func (t *tenants) GetByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := t.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&tenant).Error; err != nil {
		return nil, wrap(err, errno.ErrTenantNotFound)
	}
	return &tenant, nil
}
