package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// CheckoutClient creates hosted checkout sessions with the payment provider.
type CheckoutClient struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// NewCheckoutClient configures the provider SDK key and returns a client.
// Returns nil when billing is not configured, which disables checkout.
func NewCheckoutClient(apiKey, priceID, successURL, cancelURL string) *CheckoutClient {
	if apiKey == "" || priceID == "" {
		return nil
	}
	stripe.Key = apiKey
	return &CheckoutClient{
		PriceID:    priceID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
}

// CreateSession starts a subscription checkout for the user and returns the
// redirect URL. The user id travels as the client reference so the
// activation webhook can attribute the subscription.
func (c *CheckoutClient) CreateSession(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id required")
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(c.SuccessURL),
		CancelURL:         stripe.String(c.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}
