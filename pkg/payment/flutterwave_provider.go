package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"takahub-be/internal/pkg/apperrors"

	"github.com/hashicorp/go-retryablehttp"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveGateway is the mobile-money oriented adapter. Flutterwave bills
// KES in major units, so no minor-unit conversion happens here; phone numbers
// are normalized because M-PESA charge requests reject trunk-prefixed MSISDNs.
type FlutterwaveGateway struct {
	secretKey   string
	webhookHash string
	countryCode string
	baseURL     string
	client      *retryablehttp.Client
}

func NewFlutterwaveGateway(secretKey, webhookHash, countryCode string, client *retryablehttp.Client) *FlutterwaveGateway {
	return &FlutterwaveGateway{
		secretKey:   secretKey,
		webhookHash: webhookHash,
		countryCode: countryCode,
		baseURL:     flutterwaveBaseURL,
		client:      client,
	}
}

// WithBaseURL points the adapter at a different API host. Used by tests.
func (g *FlutterwaveGateway) WithBaseURL(baseURL string) *FlutterwaveGateway {
	g.baseURL = baseURL
	return g
}

func (g *FlutterwaveGateway) Name() string {
	return "flutterwave"
}

type flutterwavePaymentRequest struct {
	TxRef       string                 `json:"tx_ref"`
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency"`
	RedirectURL string                 `json:"redirect_url"`
	Customer    flutterwaveCustomer    `json:"customer"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

type flutterwaveCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *FlutterwaveGateway) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	payload := flutterwavePaymentRequest{
		TxRef:       req.Reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer: flutterwaveCustomer{
			Email:       req.Customer.Email,
			PhoneNumber: NormalizePhone(req.Customer.Phone, g.countryCode),
			Name:        req.Customer.Name,
		},
		Meta: req.Metadata,
	}

	raw, env, err := g.do(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Link == "" {
		return nil, apperrors.NewProvider(g.Name(), "missing checkout link in response", 0, err)
	}

	return &InitiateResponse{
		CheckoutUrl:       data.Link,
		ProviderReference: req.Reference,
		RawResponse:       raw,
	}, nil
}

func (g *FlutterwaveGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	path := fmt.Sprintf("/transactions/verify_by_reference?tx_ref=%s", reference)
	raw, env, err := g.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperrors.NewProvider(g.Name(), "unparsable verification body", 0, err)
	}

	switch data.Status {
	case "successful":
		return &VerifyResult{IsSuccessful: true, RawResponse: raw}, nil
	case "failed", "cancelled":
		return &VerifyResult{IsSuccessful: false, RawResponse: raw}, nil
	default:
		// "pending" and anything unrecognized: not settled yet
		return &VerifyResult{Pending: true, RawResponse: raw}, nil
	}
}

func (g *FlutterwaveGateway) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	// Flutterwave sends the configured hash verbatim in the verif-hash header.
	if g.webhookHash == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(g.webhookHash)) != 1 {
		return nil, apperrors.NewProvider(g.Name(), "webhook signature mismatch", 0, nil)
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			TxRef string `json:"tx_ref"`
			Meta  struct {
				SubscriptionId string `json:"subscription_id"`
			} `json:"meta"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewProvider(g.Name(), "unparsable webhook body", 0, err)
	}
	if payload.Data.TxRef == "" {
		return nil, apperrors.NewProvider(g.Name(), "webhook missing tx_ref", 0, nil)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	return &WebhookEvent{
		Reference:      payload.Data.TxRef,
		SubscriptionId: payload.Data.Meta.SubscriptionId,
		RawResponse:    raw,
	}, nil
}

func (g *FlutterwaveGateway) do(ctx context.Context, method, path string, payload interface{}) (map[string]interface{}, *flutterwaveEnvelope, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, apperrors.NewProvider(g.Name(), "request encoding failed", 0, err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, g.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, apperrors.NewProvider(g.Name(), "request build failed", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, apperrors.NewProvider(g.Name(), "request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, apperrors.NewProvider(g.Name(), "response read failed", resp.StatusCode, err)
	}

	var env flutterwaveEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, apperrors.NewProvider(g.Name(), "unparsable response body", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status != "success" {
		return nil, nil, apperrors.NewProvider(g.Name(), env.Message, resp.StatusCode, nil)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)
	return raw, &env, nil
}
