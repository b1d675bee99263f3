package payment

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Config carries the deployment-supplied credentials for every adapter.
type Config struct {
	SandboxMode        bool
	CountryCallingCode string

	FlutterwaveSecretKey string
	PaystackSecretKey    string
	MidtransServerKey    string
}

// Registry owns one adapter instance per configured provider and resolves the
// right one from the request's provider/method fields. This keeps provider
// branching in one place instead of scattered through callers.
type Registry struct {
	gateways        map[string]Gateway
	defaultProvider string
}

func NewRegistry(cfg Config, defaultProvider string) *Registry {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	gateways := map[string]Gateway{}
	if cfg.FlutterwaveSecretKey != "" {
		gateways["flutterwave"] = NewFlutterwaveGateway(
			cfg.FlutterwaveSecretKey, cfg.FlutterwaveSecretKey, cfg.CountryCallingCode, client)
	}
	if cfg.PaystackSecretKey != "" {
		gateways["paystack"] = NewPaystackGateway(cfg.PaystackSecretKey, client)
	}
	if cfg.MidtransServerKey != "" {
		gateways["midtrans"] = NewMidtransGateway(cfg.MidtransServerKey, cfg.SandboxMode)
	}

	return &Registry{
		gateways:        gateways,
		defaultProvider: defaultProvider,
	}
}

// NewRegistryWith builds a registry from pre-built gateways. Used by tests.
func NewRegistryWith(defaultProvider string, gateways ...Gateway) *Registry {
	m := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Registry{gateways: m, defaultProvider: defaultProvider}
}

// Resolve picks the adapter for a request. An explicit provider wins; else the
// payment method implies one (mobile money rides the mobile-money gateway,
// cards the card gateway); else the configured default applies.
func (r *Registry) Resolve(provider, method string) (Gateway, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		switch strings.ToLower(strings.TrimSpace(method)) {
		case "mpesa", "mobile_money", "mobilemoney":
			name = "flutterwave"
		case "card", "credit_card":
			name = "paystack"
		default:
			name = r.defaultProvider
		}
	}

	gw, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("payment provider %q is not configured", name)
	}
	return gw, nil
}

// Get returns a configured adapter by name.
func (r *Registry) Get(name string) (Gateway, error) {
	gw, ok := r.gateways[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("payment provider %q is not configured", name)
	}
	return gw, nil
}
