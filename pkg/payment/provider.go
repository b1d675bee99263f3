package payment

import (
	"context"
	"encoding/json"
)

// Customer is the paying party as the gateway wants to see it.
type Customer struct {
	Email string
	Phone string
	Name  string
}

// InitiateRequest is the provider-neutral payment request. Amount is always in
// major currency units; adapters convert to minor units where their provider
// bills in the smallest denomination.
type InitiateRequest struct {
	Reference   string // merchant reference, unique per transaction
	Amount      float64
	Currency    string
	Customer    Customer
	RedirectURL string
	Metadata    map[string]interface{}
}

type InitiateResponse struct {
	CheckoutUrl       string
	ProviderReference string
	RawResponse       map[string]interface{}
}

// VerifyResult reports the provider's authoritative view of a payment.
// Pending means the provider has not settled either way yet; the caller must
// leave local state untouched and re-verify later.
type VerifyResult struct {
	IsSuccessful bool
	Pending      bool
	RawResponse  map[string]interface{}
}

// WebhookEvent is the normalized form of a provider-initiated notification.
// SubscriptionId is filled when the provider echoes our metadata back;
// otherwise the reference alone identifies the transaction.
type WebhookEvent struct {
	Reference      string
	SubscriptionId string
	RawResponse    map[string]interface{}
}

// Gateway is the translation boundary to one payment provider. Adapters never
// touch subscription or ledger state; persistence is the orchestrator's job.
type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	ParseWebhook(body []byte, signature string) (*WebhookEvent, error)
}

// structToMap flattens a provider SDK response into the raw map retained on
// the transaction for audit.
func structToMap(v interface{}) map[string]interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
