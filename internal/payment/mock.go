package payment

import (
	"context"

	"github.com/google/uuid"
)

// MockProvider opens fake sessions that redirect straight to the success
// URL. It is used when no Stripe key is configured.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// CreateCheckoutSession always succeeds.
func (p *MockProvider) CreateCheckoutSession(_ context.Context, in CheckoutInput) (*CheckoutSession, error) {
	return &CheckoutSession{
		ID:  "cs_mock_" + uuid.NewString(),
		URL: in.SuccessURL,
	}, nil
}
