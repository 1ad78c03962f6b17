// Package providers contains the closed set of push-vendor clients and the
// per-tenant resolver cache. Vendors are fire-and-forget: a failed send is
// surfaced to the caller and never retried here; redelivery with the same
// notification id is the retry contract.
package providers

import (
	"context"
	"fmt"

	"github.com/nashir/pushgate/fields"
)

// PushProvider is the single send contract every vendor implements. The
// payload's encrypted flag (or the client's always_raw flag) forces the blob
// through as opaque ciphertext; providers never interpret an encrypted blob.
type PushProvider interface {
	Kind() fields.ProviderKind
	Send(ctx context.Context, client fields.Client, payload fields.MessagePayload) error
}

// SendError wraps a vendor delivery failure.
type SendError struct {
	Provider fields.ProviderKind
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s send failed: %v", e.Provider, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Build constructs a live provider from tenant credentials. It is the default
// builder used by the resolver.
func Build(ctx context.Context, cfg fields.ProviderConfig) (PushProvider, error) {
	switch cfg.Kind {
	case fields.ProviderFCM:
		return NewFCM(ctx, cfg.FCMCredentials)
	case fields.ProviderAPNS:
		return NewAPNS(cfg)
	case fields.ProviderNoop:
		return Noop{}, nil
	default:
		return nil, fields.ErrProviderNotFound
	}
}
