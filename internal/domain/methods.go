package domain

// PaymentMethodType identifies one payment method flow. The set is closed at
// the pipeline level; redirect-style methods added at runtime register under
// TypeWebRedirect with their own method descriptor.
type PaymentMethodType string

const (
	TypeCard         PaymentMethodType = "PAYMENT_CARD"
	TypePayPal       PaymentMethodType = "PAYPAL"
	TypeApplePay     PaymentMethodType = "APPLE_PAY"
	TypeBankRedirect PaymentMethodType = "BANK_REDIRECT"
	TypeWebRedirect  PaymentMethodType = "WEB_REDIRECT"
	TypeVaulted      PaymentMethodType = "VAULTED"
	TypeQRCode       PaymentMethodType = "QR_CODE"
	TypeACH          PaymentMethodType = "ACH"
)

// ImplementationKind distinguishes methods driven natively from methods that
// bounce through a hosted web page.
type ImplementationKind string

const (
	ImplementationNative      ImplementationKind = "NATIVE_SDK"
	ImplementationWebRedirect ImplementationKind = "WEB_REDIRECT"
)

// PaymentMethodConfig describes one method the merchant has enabled. Loaded
// once per session from the configuration endpoint; read-only afterwards.
type PaymentMethodConfig struct {
	Type           PaymentMethodType
	Implementation ImplementationKind
	DisplayName    string
	SurchargeMinor int64

	// Method-specific options validated before any I/O.
	ApplePayMerchantID string
	ACHCompanyName     string
}

// APIConfiguration is the per-session backend configuration: the enabled
// payment methods plus the endpoints subsequent calls route to.
type APIConfiguration struct {
	CoreURL        string
	PciURL         string
	PaymentMethods []PaymentMethodConfig
}

// MethodConfig returns the configuration for a method type, if enabled.
func (c *APIConfiguration) MethodConfig(t PaymentMethodType) (PaymentMethodConfig, bool) {
	for _, m := range c.PaymentMethods {
		if m.Type == t {
			return m, true
		}
	}
	return PaymentMethodConfig{}, false
}

// VaultedPaymentMethod is a previously tokenized, server-stored instrument.
type VaultedPaymentMethod struct {
	ID          string
	Type        PaymentMethodType
	Description string

	// Card instruments recapture CVV at checkout; length depends on network.
	CVVLength int
}

// Bank is one entry of a bank-selector list for redirect methods.
type Bank struct {
	ID   string
	Name string
	Logo string
}
