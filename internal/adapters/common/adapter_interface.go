package common

import "context"

// Adapter sends a validated request upstream and returns the normalized
// outcome. Failures are classified with WrapTransient or WrapPermanent.
type Adapter interface {
	Send(ctx context.Context, msg *ValidatedMessage) (*ProviderResponse, error)
}
