package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/fields"
	"github.com/nashir/pushgate/store"
)

// PushMessageBody is one delivery request. ID is the caller's notification
// id, the dedup key within the tenant.
type PushMessageBody struct {
	ID      string                `json:"id" binding:"required"`
	Payload fields.MessagePayload `json:"payload"`
}

// PushMessage runs the dispatch pipeline: signature (middleware), client
// lookup, notification dedup, tenant/provider resolution, vendor send.
// Duplicates answer 200, fresh dispatches 202; the pipeline is terminal at
// the first short-circuit.
func (s *Service) PushMessage(c *gin.Context) {
	var body PushMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, "id", err)
		return
	}
	s.Metrics.receivedNotification()

	ctx := c.Request.Context()
	tenantID := s.tenantID(c)
	id := fields.NormalizeClientID(c.Param("id"))
	log := s.Logger.WithFields(logrus.Fields{
		"tenant_id":       tenantID,
		"client_id":       id,
		"notification_id": body.ID,
	})

	if verified := gateway.VerifiedClientID(c); verified != "" && verified != id {
		respondFailure(c, http.StatusUnauthorized, "SignatureInvalid", "signed token is not bound to this client id")
		return
	}

	client, err := s.Clients.Get(ctx, tenantID, id)
	if err != nil {
		if store.IsNotFound(err) {
			respondFailure(c, http.StatusNotFound, "ClientNotFound", "no client is registered under this id")
			return
		}
		respondStoreError(c, err, "ClientNotFound")
		return
	}

	// First dedup signal: a known notification that is in flight or already
	// delivered is a redelivery, answered success without touching providers.
	// A failed one falls through so redelivery can retry the dispatch.
	if existing, err := s.Notifications.Get(ctx, tenantID, body.ID); err == nil &&
		existing.Status != fields.StatusFailed {
		log.Info("notification already received, skipping dispatch")
		respondSuccess(c, http.StatusOK)
		return
	}

	// Atomic append-and-inspect: exactly one of any set of racing
	// redeliveries claims the dispatch.
	notification, claimed, err := s.Notifications.CreateOrUpdate(ctx, tenantID, body.ID, id, body.Payload)
	if err != nil {
		respondStoreError(c, err, "NotificationNotFound")
		return
	}
	if !claimed {
		log.WithFields(logrus.Fields{"receipts": len(notification.Payloads)}).
			Info("duplicate notification detected at write time, skipping dispatch")
		respondSuccess(c, http.StatusOK)
		return
	}

	tenant, err := s.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		s.releaseClaim(ctx, log, tenantID, body.ID)
		respondStoreError(c, err, "TenantNotFound")
		return
	}
	if tenant.Suspended {
		log.WithFields(logrus.Fields{"reason": tenant.SuspendedReason}).
			Warn("rejected dispatch for suspended tenant")
		s.releaseClaim(ctx, log, tenantID, body.ID)
		respondFailure(c, http.StatusForbidden, "TenantSuspended", "tenant is suspended")
		return
	}

	provider, err := s.Resolver.Resolve(ctx, tenant, client.PushType)
	if err != nil {
		s.releaseClaim(ctx, log, tenantID, body.ID)
		if errors.Is(err, fields.ErrProviderNotFound) {
			respondFailure(c, http.StatusNotFound, "ProviderNotFound", "push provider not enabled for this tenant")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "ProviderError", err.Error())
		return
	}

	if err := provider.Send(ctx, client, body.Payload); err != nil {
		log.WithFields(logrus.Fields{
			"push_provider": string(client.PushType),
			"error":         err.Error(),
		}).Error("provider send failed")
		// Leave the record marked failed so redelivery with this id retries.
		if err := s.Notifications.MarkFailed(ctx, tenantID, body.ID); err != nil {
			log.WithFields(logrus.Fields{"error": err.Error()}).Error("failed to record send failure")
		}
		respondFailure(c, http.StatusBadGateway, "ProviderSendError", "push provider rejected the delivery")
		return
	}
	if err := s.Notifications.MarkDelivered(ctx, tenantID, body.ID); err != nil {
		log.WithFields(logrus.Fields{"error": err.Error()}).Error("failed to record delivery")
	}

	s.Metrics.sentNotification(client.PushType)
	s.Analytics.Collect(c.ClientIP(), MessageInfo{
		TenantID:     tenantID,
		ClientID:     id,
		Topic:        body.Payload.Topic,
		PushProvider: string(client.PushType),
		Encrypted:    body.Payload.IsEncrypted(),
	})

	log.WithFields(logrus.Fields{"push_provider": string(client.PushType)}).
		Info("dispatched notification")
	respondSuccess(c, http.StatusAccepted)
}

// releaseClaim marks a claimed notification failed when the pipeline aborts
// after the claim but before the provider send. Without it the record would
// sit in dispatching forever and every redelivery of the id would be swallowed
// as a duplicate.
func (s *Service) releaseClaim(ctx context.Context, log *logrus.Entry, tenantID, id string) {
	if err := s.Notifications.MarkFailed(ctx, tenantID, id); err != nil {
		log.WithFields(logrus.Fields{"error": err.Error()}).Error("failed to release dispatch claim")
	}
}
