package providers

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"github.com/nashir/pushgate/fields"
)

// apnsClient is the subset of apns2.Client methods we use.
type apnsClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNS delivers through the Apple Push Notification service using a tenant's
// token (p8) credentials.
type APNS struct {
	client apnsClient
	topic  string
}

// NewAPNS parses the p8 key immediately so bad credentials fail at resolve
// time, not on the first send.
func NewAPNS(cfg fields.ProviderConfig) (*APNS, error) {
	authKey, err := token.AuthKeyFromBytes([]byte(cfg.APNSKeyP8))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs p8 key: %w", err)
	}
	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.APNSKeyID,
		TeamID:  cfg.APNSTeamID,
	}).Production()
	return &APNS{client: client, topic: cfg.APNSTopic}, nil
}

func (p *APNS) Kind() fields.ProviderKind {
	return fields.ProviderAPNS
}

func (p *APNS) Send(ctx context.Context, client fields.Client, msg fields.MessagePayload) error {
	raw := msg.IsEncrypted() || client.AlwaysRaw

	builder := payload.NewPayload().
		Custom("topic", msg.Topic).
		Custom("flags", msg.Flags).
		Custom("blob", msg.Blob)

	n := &apns2.Notification{
		DeviceToken: client.DeviceToken,
		Topic:       p.topic,
	}
	if raw {
		// Opaque delivery: wake the app, let it decrypt and present.
		n.PushType = apns2.PushTypeBackground
		builder.ContentAvailable()
	} else {
		n.PushType = apns2.PushTypeAlert
		builder.AlertTitle(msg.Topic).AlertBody(msg.Blob).MutableContent()
	}
	n.Payload = builder

	res, err := p.client.PushWithContext(ctx, n)
	if err != nil {
		return &SendError{Provider: fields.ProviderAPNS, Err: err}
	}
	if !res.Sent() {
		return &SendError{
			Provider: fields.ProviderAPNS,
			Err:      fmt.Errorf("apns rejected notification: %s (%d)", res.Reason, res.StatusCode),
		}
	}
	return nil
}
