package providers

import (
	"context"

	"github.com/nashir/pushgate/fields"
)

// Noop accepts every send without a network call. Used for tenants that want
// registration without delivery, and throughout the tests.
type Noop struct{}

func (Noop) Kind() fields.ProviderKind {
	return fields.ProviderNoop
}

func (Noop) Send(context.Context, fields.Client, fields.MessagePayload) error {
	return nil
}
