package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nashir/pushgate/fields"
)

// TenantStore resolves a tenant's configuration. Two strategies exist, picked
// at startup: a config-backed single tenant and the gorm-backed multi-tenant
// table. The dispatch path only ever reads.
type TenantStore interface {
	GetTenant(ctx context.Context, id string) (fields.Tenant, error)
}

// SingleTenant serves the implicit default tenant built from config. Any
// other tenant id is unknown.
type SingleTenant struct {
	Tenant fields.Tenant
}

func NewSingleTenant(cfg fields.Config) *SingleTenant {
	return &SingleTenant{Tenant: cfg.DefaultTenant()}
}

func (s *SingleTenant) GetTenant(_ context.Context, id string) (fields.Tenant, error) {
	if id != s.Tenant.ID {
		return fields.Tenant{}, NewNotFound("tenant", id)
	}
	return s.Tenant, nil
}

// Tenants is the multi-tenant store.
type Tenants struct {
	DB *gorm.DB
}

func NewTenants(db *gorm.DB) *Tenants {
	return &Tenants{DB: db}
}

func (s *Tenants) GetTenant(ctx context.Context, id string) (fields.Tenant, error) {
	var t fields.Tenant
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fields.Tenant{}, NewNotFound("tenant", id)
	}
	if err != nil {
		return fields.Tenant{}, err
	}
	return t, nil
}

// PutTenant upserts a tenant row. Tenant management lives outside the
// dispatch core; this exists for provisioning tools and tests.
func (s *Tenants) PutTenant(ctx context.Context, t fields.Tenant) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled_providers", "fcm_credentials",
			"apns_type", "apns_topic", "apns_key_id", "apns_team_id", "apns_key_p8",
			"suspended", "suspended_reason", "updated_at",
		}),
	}).Create(&t).Error
}
