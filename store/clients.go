package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nashir/pushgate/fields"
)

// ClientStore is the registry of device identities per tenant.
type ClientStore interface {
	// Register upserts a client with identity-merge semantics: a new token
	// for a known id, or a new id for a known token, rewrites the existing
	// row in place rather than creating a duplicate.
	Register(ctx context.Context, tenantID, id string, client fields.Client) error
	Get(ctx context.Context, tenantID, id string) (fields.Client, error)
	// Delete removes the client and all of its notification history. Deleting
	// an absent client succeeds; deregistration is idempotent.
	Delete(ctx context.Context, tenantID, id string) error
}

type Clients struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewClients(db *gorm.DB, log *logrus.Logger) *Clients {
	return &Clients{DB: db, Log: log}
}

func (s *Clients) Register(ctx context.Context, tenantID, id string, client fields.Client) error {
	s.Log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"client_id": id,
	}).Debug("registering client")

	// Lookup and write must be one atomic unit so two registrations racing on
	// the same id or token cannot both insert. The transaction takes the
	// write lock up front (see Open); on Postgres the equivalent would be the
	// row lock below.
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing fields.Client
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND (id = ? OR device_token = ?)", tenantID, id, client.DeviceToken).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := fields.Client{
				TenantID:    tenantID,
				ID:          id,
				PushType:    client.PushType,
				DeviceToken: client.DeviceToken,
				AlwaysRaw:   client.AlwaysRaw,
			}
			return tx.Create(&row).Error
		case err != nil:
			return err
		}

		updates := map[string]interface{}{
			"push_type":  client.PushType,
			"always_raw": client.AlwaysRaw,
		}
		switch {
		case existing.ID == id && existing.DeviceToken != client.DeviceToken:
			// Same logical identity re-registered under a new token.
			updates["device_token"] = client.DeviceToken
			return tx.Model(&fields.Client{}).
				Where("tenant_id = ? AND id = ?", tenantID, id).
				Updates(updates).Error
		case existing.DeviceToken == client.DeviceToken && existing.ID != id:
			// Same physical device re-identified under a new client id.
			updates["id"] = id
			return tx.Model(&fields.Client{}).
				Where("tenant_id = ? AND device_token = ?", tenantID, client.DeviceToken).
				Updates(updates).Error
		default:
			// Exact match on both, nothing to rewrite.
			return nil
		}
	})
}

func (s *Clients) Get(ctx context.Context, tenantID, id string) (fields.Client, error) {
	var client fields.Client
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fields.Client{}, NewNotFound("client", id)
	}
	if err != nil {
		return fields.Client{}, err
	}
	return client, nil
}

func (s *Clients) Delete(ctx context.Context, tenantID, id string) error {
	s.Log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"client_id": id,
	}).Debug("deleting client")

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND client_id = ?", tenantID, id).
			Delete(&fields.Notification{}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).
			Delete(&fields.Client{}).Error
	})
}
