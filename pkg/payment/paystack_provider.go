package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"takahub-be/internal/pkg/apperrors"

	"github.com/hashicorp/go-retryablehttp"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackGateway is the card-network oriented adapter. Paystack bills in the
// smallest currency unit, so the major-unit amount is converted here and
// nowhere else.
type PaystackGateway struct {
	secretKey string
	baseURL   string
	client    *retryablehttp.Client
}

func NewPaystackGateway(secretKey string, client *retryablehttp.Client) *PaystackGateway {
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   paystackBaseURL,
		client:    client,
	}
}

// WithBaseURL points the adapter at a different API host. Used by tests.
func (g *PaystackGateway) WithBaseURL(baseURL string) *PaystackGateway {
	g.baseURL = baseURL
	return g
}

func (g *PaystackGateway) Name() string {
	return "paystack"
}

type paystackInitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"` // minor units
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *PaystackGateway) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	payload := paystackInitializeRequest{
		Email:       req.Customer.Email,
		Amount:      int64(math.Round(req.Amount * 100)),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.RedirectURL,
		Metadata:    req.Metadata,
	}

	raw, env, err := g.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var data struct {
		AuthorizationUrl string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AuthorizationUrl == "" {
		return nil, apperrors.NewProvider(g.Name(), "missing authorization url in response", 0, err)
	}

	return &InitiateResponse{
		CheckoutUrl:       data.AuthorizationUrl,
		ProviderReference: data.Reference,
		RawResponse:       raw,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	raw, env, err := g.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
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
	case "success":
		return &VerifyResult{IsSuccessful: true, RawResponse: raw}, nil
	case "failed", "abandoned", "reversed":
		return &VerifyResult{IsSuccessful: false, RawResponse: raw}, nil
	default:
		return &VerifyResult{Pending: true, RawResponse: raw}, nil
	}
}

func (g *PaystackGateway) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, apperrors.NewProvider(g.Name(), "webhook signature mismatch", 0, nil)
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Metadata  struct {
				SubscriptionId string `json:"subscription_id"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewProvider(g.Name(), "unparsable webhook body", 0, err)
	}
	if payload.Data.Reference == "" {
		return nil, apperrors.NewProvider(g.Name(), "webhook missing reference", 0, nil)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	return &WebhookEvent{
		Reference:      payload.Data.Reference,
		SubscriptionId: payload.Data.Metadata.SubscriptionId,
		RawResponse:    raw,
	}, nil
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, payload interface{}) (map[string]interface{}, *paystackEnvelope, error) {
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

	var env paystackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, apperrors.NewProvider(g.Name(), "unparsable response body", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return nil, nil, apperrors.NewProvider(g.Name(), env.Message, resp.StatusCode, nil)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)
	return raw, &env, nil
}
