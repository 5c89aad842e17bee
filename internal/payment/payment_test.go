package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httpclient"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleInput() CheckoutInput {
	return CheckoutInput{
		TourID:        "5c88fa8cf4afda39709c2955",
		TourName:      "The Sea Explorer",
		Summary:       "Exploring the jaw-dropping US east coast by foot and by boat",
		ImageURL:      "https://www.natours.dev/img/tours/tour-2-cover.jpg",
		Price:         497,
		CustomerEmail: "leo@example.com",
		SuccessURL:    "http://localhost:3000/?tour=t&user=u&price=497",
		CancelURL:     "http://localhost:3000/tour/the-sea-explorer",
	}
}

func newStripe(t *testing.T, h http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := httpclient.New(httpclient.Config{Timeout: 2 * time.Second})
	return NewStripeProvider(srv.URL+"/", "sk_test_123", client, quiet())
}

func TestStripe_CreateCheckoutSession(t *testing.T) {
	var form url.Values
	var auth, idem string
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		idem = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1","object":"checkout.session"}`)
	})

	session, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)
	assert.Equal(t, "Bearer sk_test_123", auth)
	assert.NotEmpty(t, idem)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "leo@example.com", form.Get("customer_email"))
	assert.Equal(t, "5c88fa8cf4afda39709c2955", form.Get("client_reference_id"))
	assert.Equal(t, "http://localhost:3000/?tour=t&user=u&price=497", form.Get("success_url"))
	assert.Equal(t, "http://localhost:3000/tour/the-sea-explorer", form.Get("cancel_url"))
	assert.Equal(t, "The Sea Explorer Tour", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "49700", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "https://www.natours.dev/img/tours/tour-2-cover.jpg", form.Get("line_items[0][price_data][product_data][images][0]"))
}

func TestStripe_RejectedRequestKeepsMessage(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"Invalid email address: leo"}}`)
	})

	_, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Stripe: Invalid email address: leo", appErr.Message)
}

func TestStripe_BadKeyIsUpstream(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid API Key provided"}}`)
	})

	_, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestStripe_ServerErrorThroughBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.NewBreakerClient(
		httpclient.New(httpclient.Config{Timeout: time.Second}),
		httpclient.DefaultBreakerConfig("stripe-test"),
		quiet(),
	)
	p := NewStripeProvider(srv.URL, "sk_test_123", client, quiet())

	_, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestStripe_MalformedBody(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestCheckoutForm_OmitsEmptyOptionalFields(t *testing.T) {
	in := sampleInput()
	in.Summary = ""
	in.ImageURL = ""

	form := checkoutForm(in)
	assert.False(t, form.Has("line_items[0][price_data][product_data][description]"))
	assert.False(t, form.Has("line_items[0][price_data][product_data][images][0]"))
}

func TestUnitAmount_RoundsToCents(t *testing.T) {
	in := CheckoutInput{Price: 19.99}
	assert.Equal(t, int64(1999), in.UnitAmount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	session, err := p.CreateCheckoutSession(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Contains(t, session.ID, "cs_mock_")
	assert.Equal(t, sampleInput().SuccessURL, session.URL)
	assert.Equal(t, "mock", p.Name())
}
