package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httpclient"
)

const stripeService = "Stripe"

// StripeProvider talks to the Stripe Checkout API.
type StripeProvider struct {
	baseURL   string
	secretKey string
	client    httpclient.Doer
	logger    *slog.Logger
}

// NewStripeProvider creates a provider that calls baseURL through client.
func NewStripeProvider(baseURL, secretKey string, client httpclient.Doer, logger *slog.Logger) *StripeProvider {
	return &StripeProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    client,
		logger:    logger,
	}
}

// NewStripeClient returns the retrying, breaker-guarded client used for
// Stripe calls.
func NewStripeClient(logger *slog.Logger) *httpclient.BreakerClient {
	return httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig("stripe"),
		logger,
	)
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// CreateCheckoutSession posts a payment-mode session with one line item.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	form := checkoutForm(in)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// Retries reuse the request, so they share one key.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream(stripeService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, stripeService)
	}
	defer func() { _ = resp.Body.Close() }()

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, apperrors.Upstream(stripeService, fmt.Errorf("decode checkout session: %w", err))
	}

	p.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", session.ID),
		slog.String("tour_id", in.TourID),
	)
	return &session, nil
}

func checkoutForm(in CheckoutInput) url.Values {
	const item = "line_items[0]"
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("customer_email", in.CustomerEmail)
	form.Set("client_reference_id", in.TourID)
	form.Set(item+"[quantity]", "1")
	form.Set(item+"[price_data][currency]", "usd")
	form.Set(item+"[price_data][unit_amount]", strconv.FormatInt(in.UnitAmount(), 10))
	form.Set(item+"[price_data][product_data][name]", in.TourName+" Tour")
	if in.Summary != "" {
		form.Set(item+"[price_data][product_data][description]", in.Summary)
	}
	if in.ImageURL != "" {
		form.Set(item+"[price_data][product_data][images][0]", in.ImageURL)
	}
	return form
}
