package providers

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/nashir/pushgate/fields"
)

// messagingClient is the subset of the firebase messaging API we use, kept
// narrow so tests can swap in a fake.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM delivers through Firebase Cloud Messaging using a tenant's service
// account credentials.
type FCM struct {
	client messagingClient
}

func NewFCM(ctx context.Context, credentials string) (*FCM, error) {
	opt := option.WithCredentialsJSON([]byte(credentials))
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

func (p *FCM) Kind() fields.ProviderKind {
	return fields.ProviderFCM
}

func (p *FCM) Send(ctx context.Context, client fields.Client, payload fields.MessagePayload) error {
	data := map[string]string{
		"topic": payload.Topic,
		"flags": strconv.FormatUint(uint64(payload.Flags), 10),
		"blob":  payload.Blob,
	}

	message := &messaging.Message{
		Token: client.DeviceToken,
		Data:  data,
	}
	// Cleartext payloads get a visible notification; encrypted and always-raw
	// deliveries stay data-only so the device decrypts and renders locally.
	if !payload.IsEncrypted() && !client.AlwaysRaw {
		message.Notification = &messaging.Notification{
			Title: payload.Topic,
			Body:  payload.Blob,
		}
	}

	if _, err := p.client.Send(ctx, message); err != nil {
		return &SendError{Provider: fields.ProviderFCM, Err: err}
	}
	return nil
}
