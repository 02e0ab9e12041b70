package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/domain"
)

// MethodFlow describes how one payment method prepares its attempt: extra
// validation on top of the session preconditions, and either a prebuilt
// instrument or a suspension for on-screen collection.
type MethodFlow interface {
	Type() domain.PaymentMethodType

	// Validate runs method-specific precondition checks. It must not
	// perform I/O.
	Validate(state application.SessionState) error

	// Instrument returns the tokenization request for flows that need no
	// on-screen input. ok=false means the pipeline suspends for SubmitInput.
	Instrument(state application.SessionState) (*application.TokenizationRequest, bool)
}

// FlowRegistry maps payment method types to their flow. Redirect-style
// methods discovered at runtime register here after configuration load.
type FlowRegistry struct {
	mu    sync.RWMutex
	flows map[domain.PaymentMethodType]MethodFlow
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{flows: make(map[domain.PaymentMethodType]MethodFlow)}
}

func (r *FlowRegistry) Register(flow MethodFlow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flow.Type()] = flow
}

func (r *FlowRegistry) For(t domain.PaymentMethodType) (MethodFlow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if flow, ok := r.flows[t]; ok {
		return flow, nil
	}
	return nil, fmt.Errorf("no flow registered for payment method %s", t)
}

// requireEnabled checks that the backend configuration lists the method.
func requireEnabled(state application.SessionState, t domain.PaymentMethodType) error {
	if _, ok := state.Config.MethodConfig(t); !ok {
		return domain.NewValidationError("payment method %s is not enabled for this session", t)
	}
	return nil
}

// CardDetails is the raw card form input a card attempt collects.
type CardDetails struct {
	Number      string
	CVV         string
	ExpiryMonth int
	ExpiryYear  int
	Cardholder  string
}

// Validate checks every field as final input (not mid-typing), so an
// incomplete field is a validation failure here.
func (d CardDetails) Validate(now time.Time) error {
	if v := domain.ValidateCardNumber(d.Number); !v.Valid {
		return domain.NewValidationError("card number is invalid")
	}
	if v := domain.ValidateCVV(d.CVV, 4); v.Err != nil || len(d.CVV) < 3 {
		return domain.NewValidationError("CVV is invalid")
	}
	if v := domain.ValidateExpiry(d.ExpiryMonth, d.ExpiryYear, now); !v.Valid {
		return domain.NewValidationError("card expiry is invalid")
	}
	if v := domain.ValidateCardholder(d.Cardholder); !v.Valid {
		return domain.NewValidationError("cardholder name is required")
	}
	return nil
}

// Request converts validated card details into a tokenization request.
func (d CardDetails) Request() application.TokenizationRequest {
	return application.TokenizationRequest{
		Instrument: application.InstrumentCard,
		TokenType:  application.TokenSingleUse,
		Card: &application.CardInstrument{
			Number:          d.Number,
			CVV:             d.CVV,
			ExpirationMonth: d.ExpiryMonth,
			ExpirationYear:  d.ExpiryYear,
			CardholderName:  d.Cardholder,
		},
	}
}

// CardFlow collects a card form on screen.
type CardFlow struct{}

func (CardFlow) Type() domain.PaymentMethodType { return domain.TypeCard }

func (CardFlow) Validate(state application.SessionState) error {
	return requireEnabled(state, domain.TypeCard)
}

func (CardFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return nil, false
}

// PayPalFlow charges an already-approved billing agreement; nothing is
// collected on screen.
type PayPalFlow struct {
	BillingAgreementID string
}

func (PayPalFlow) Type() domain.PaymentMethodType { return domain.TypePayPal }

func (f PayPalFlow) Validate(state application.SessionState) error {
	if err := requireEnabled(state, domain.TypePayPal); err != nil {
		return err
	}
	if f.BillingAgreementID == "" {
		return domain.NewValidationError("PayPal billing agreement id is required")
	}
	return nil
}

func (f PayPalFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return &application.TokenizationRequest{
		Instrument: application.InstrumentPayPalVault,
		TokenType:  application.TokenSingleUse,
		PayPal:     &application.PayPalInstrument{BillingAgreementID: f.BillingAgreementID},
	}, true
}

// ApplePayFlow wraps a platform-tokenized card. The merchant identifier must
// be configured before any I/O happens.
type ApplePayFlow struct{}

func (ApplePayFlow) Type() domain.PaymentMethodType { return domain.TypeApplePay }

func (ApplePayFlow) Validate(state application.SessionState) error {
	cfg, ok := state.Config.MethodConfig(domain.TypeApplePay)
	if !ok {
		return domain.NewValidationError("payment method %s is not enabled for this session", domain.TypeApplePay)
	}
	if cfg.ApplePayMerchantID == "" {
		return domain.NewValidationError("Apple Pay merchant identifier is not configured")
	}
	return nil
}

func (ApplePayFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	// The platform token arrives through SubmitInput once the payment sheet
	// completes.
	return nil, false
}

// BankRedirectFlow needs a bank picked on screen before tokenizing.
type BankRedirectFlow struct{}

func (BankRedirectFlow) Type() domain.PaymentMethodType { return domain.TypeBankRedirect }

func (BankRedirectFlow) Validate(state application.SessionState) error {
	return requireEnabled(state, domain.TypeBankRedirect)
}

func (BankRedirectFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return nil, false
}

// ACHFlow collects routing and account numbers on screen. The company name
// shown on the mandate must be configured up front.
type ACHFlow struct{}

func (ACHFlow) Type() domain.PaymentMethodType { return domain.TypeACH }

func (ACHFlow) Validate(state application.SessionState) error {
	cfg, ok := state.Config.MethodConfig(domain.TypeACH)
	if !ok {
		return domain.NewValidationError("payment method %s is not enabled for this session", domain.TypeACH)
	}
	if cfg.ACHCompanyName == "" {
		return domain.NewValidationError("ACH company descriptor is not configured")
	}
	return nil
}

func (ACHFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return nil, false
}

// WebRedirectFlow is the generic hosted-page flow registered at runtime for
// any configured method whose implementation kind is web redirect.
type WebRedirectFlow struct {
	Method domain.PaymentMethodType
}

func (f WebRedirectFlow) Type() domain.PaymentMethodType { return f.Method }

func (f WebRedirectFlow) Validate(state application.SessionState) error {
	return requireEnabled(state, f.Method)
}

func (f WebRedirectFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return &application.TokenizationRequest{
		Instrument:   application.InstrumentBankRedirect,
		TokenType:    application.TokenSingleUse,
		BankRedirect: &application.BankRedirectInstrument{Method: string(f.Method)},
	}, true
}

// QRCodeFlow tokenizes immediately; the scannable code arrives later as a
// required action.
type QRCodeFlow struct{}

func (QRCodeFlow) Type() domain.PaymentMethodType { return domain.TypeQRCode }

func (QRCodeFlow) Validate(state application.SessionState) error {
	return requireEnabled(state, domain.TypeQRCode)
}

func (QRCodeFlow) Instrument(application.SessionState) (*application.TokenizationRequest, bool) {
	return &application.TokenizationRequest{
		Instrument:   application.InstrumentBankRedirect,
		TokenType:    application.TokenSingleUse,
		BankRedirect: &application.BankRedirectInstrument{Method: string(domain.TypeQRCode)},
	}, true
}
