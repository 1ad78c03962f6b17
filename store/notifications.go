package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nashir/pushgate/fields"
)

// NotificationStore records in-flight and completed notifications keyed by
// (tenant, notification id). It is the dedup authority for the dispatch
// pipeline: CreateOrUpdate decides, atomically, whether the caller owns the
// dispatch for this receipt.
type NotificationStore interface {
	Get(ctx context.Context, tenantID, id string) (fields.Notification, error)
	// CreateOrUpdate inserts on first sight or appends the payload to the
	// existing history, returning the resulting record and whether the caller
	// claimed the dispatch. Exactly one of any set of concurrent redeliveries
	// of the same id claims it; a notification whose previous dispatch failed
	// is claimed again so redelivery can retry.
	CreateOrUpdate(ctx context.Context, tenantID, id, clientID string, payload fields.MessagePayload) (fields.Notification, bool, error)
	// MarkDelivered records a successful provider send; further redeliveries
	// of this id short-circuit as duplicates.
	MarkDelivered(ctx context.Context, tenantID, id string) error
	// MarkFailed records a failed provider send, leaving the notification
	// eligible for re-dispatch on the next redelivery.
	MarkFailed(ctx context.Context, tenantID, id string) error
}

type Notifications struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewNotifications(db *gorm.DB, log *logrus.Logger) *Notifications {
	return &Notifications{DB: db, Log: log}
}

func (s *Notifications) Get(ctx context.Context, tenantID, id string) (fields.Notification, error) {
	var n fields.Notification
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fields.Notification{}, NewNotFound("notification", id)
	}
	if err != nil {
		return fields.Notification{}, err
	}
	return n, nil
}

func (s *Notifications) CreateOrUpdate(ctx context.Context, tenantID, id, clientID string, payload fields.MessagePayload) (fields.Notification, bool, error) {
	var (
		out     fields.Notification
		claimed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n fields.Notification
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			First(&n).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			n = fields.Notification{
				TenantID: tenantID,
				ID:       id,
				ClientID: clientID,
				Payloads: fields.PayloadHistory{payload},
				Status:   fields.StatusDispatching,
			}
			if err := tx.Create(&n).Error; err != nil {
				return err
			}
			claimed = true
			out = n
			return nil
		case err != nil:
			return err
		}

		n.Payloads = append(n.Payloads, payload)
		if n.Status == fields.StatusFailed {
			n.Status = fields.StatusDispatching
			claimed = true
		}
		if err := tx.Model(&fields.Notification{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Updates(map[string]interface{}{
				"payloads": n.Payloads,
				"status":   n.Status,
			}).Error; err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return fields.Notification{}, false, err
	}

	s.Log.WithFields(logrus.Fields{
		"tenant_id":       tenantID,
		"notification_id": id,
		"receipts":        len(out.Payloads),
		"claimed":         claimed,
	}).Debug("stored notification receipt")
	return out, claimed, nil
}

func (s *Notifications) MarkDelivered(ctx context.Context, tenantID, id string) error {
	return s.setStatus(ctx, tenantID, id, fields.StatusDelivered)
}

func (s *Notifications) MarkFailed(ctx context.Context, tenantID, id string) error {
	return s.setStatus(ctx, tenantID, id, fields.StatusFailed)
}

func (s *Notifications) setStatus(ctx context.Context, tenantID, id string, status fields.NotificationStatus) error {
	res := s.DB.WithContext(ctx).Model(&fields.Notification{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, fields.StatusDispatching).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewNotFound("notification", id)
	}
	return nil
}
