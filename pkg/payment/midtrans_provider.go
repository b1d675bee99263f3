package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"takahub-be/internal/pkg/apperrors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransGateway drives Midtrans Snap checkout. GrossAmt is an int64 in major
// units for the currencies Midtrans supports, so the conversion here is a
// rounding truncation rather than a minor-unit multiply.
type MidtransGateway struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

func NewMidtransGateway(serverKey string, sandbox bool) *MidtransGateway {
	env := midtrans.Production
	if sandbox {
		env = midtrans.Sandbox
	}

	g := &MidtransGateway{serverKey: serverKey}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

func (g *MidtransGateway) Name() string {
	return "midtrans"
}

func (g *MidtransGateway) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: int64(req.Amount),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: req.RedirectURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := g.snap.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, apperrors.NewProvider(g.Name(), midErr.GetMessage(), midErr.StatusCode, midErr.RawError)
	}

	return &InitiateResponse{
		CheckoutUrl:       snapResp.RedirectURL,
		ProviderReference: req.Reference,
		RawResponse:       structToMap(snapResp),
	}, nil
}

func (g *MidtransGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	statusResp, midErr := g.core.CheckTransaction(reference)
	if midErr != nil {
		return nil, apperrors.NewProvider(g.Name(), midErr.GetMessage(), midErr.StatusCode, midErr.RawError)
	}

	raw := structToMap(statusResp)
	switch statusResp.TransactionStatus {
	case "capture", "settlement":
		return &VerifyResult{IsSuccessful: true, RawResponse: raw}, nil
	case "deny", "cancel", "expire", "failure":
		return &VerifyResult{IsSuccessful: false, RawResponse: raw}, nil
	default:
		return &VerifyResult{Pending: true, RawResponse: raw}, nil
	}
}

func (g *MidtransGateway) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	var payload struct {
		OrderId           string `json:"order_id"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		SignatureKey      string `json:"signature_key"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewProvider(g.Name(), "unparsable webhook body", 0, err)
	}

	// signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := payload.OrderId + payload.StatusCode + payload.GrossAmount + g.serverKey
	expected := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(payload.SignatureKey)) != 1 {
		return nil, apperrors.NewProvider(g.Name(), "webhook signature mismatch", 0, nil)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	return &WebhookEvent{
		Reference:   payload.OrderId,
		RawResponse: raw,
	}, nil
}
