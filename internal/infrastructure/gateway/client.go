// Package gateway implements the HTTP client for the payment backend. The
// orchestration core only depends on the application.GatewayClient port;
// everything in here is request/response plumbing.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
)

const clientTokenHeader = "X-Client-Token"

type HTTPClient struct {
	session    *application.Session
	httpClient *http.Client
}

func NewHTTPClient(cfg config.GatewayConfig, session *application.Session) *HTTPClient {
	return &HTTPClient{
		session: session,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

// Wire shapes. Amounts stay in minor units end to end.

type configurationResponse struct {
	CoreURL        string                `json:"coreUrl"`
	PciURL         string                `json:"pciUrl"`
	PaymentMethods []paymentMethodConfig `json:"paymentMethods"`
}

type paymentMethodConfig struct {
	Type               string `json:"type"`
	Implementation     string `json:"implementationType"`
	DisplayName        string `json:"displayName"`
	SurchargeMinor     int64  `json:"surcharge"`
	ApplePayMerchantID string `json:"applePayMerchantId,omitempty"`
	ACHCompanyName     string `json:"achCompanyName,omitempty"`
}

type paymentResponse struct {
	ID             string                 `json:"id"`
	OrderID        string                 `json:"orderId"`
	CustomerID     string                 `json:"customerId,omitempty"`
	Amount         int64                  `json:"amount"`
	CurrencyCode   string                 `json:"currencyCode"`
	Status         string                 `json:"status"`
	FailureReason  string                 `json:"paymentFailureReason,omitempty"`
	RequiredAction *requiredActionPayload `json:"requiredAction,omitempty"`
}

type requiredActionPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ClientToken string `json:"clientToken,omitempty"`
	MandateText string `json:"mandateText,omitempty"`
}

type resumeRequest struct {
	ResumeToken string `json:"resumeToken"`
}

type bankListResponse struct {
	Banks []bankEntry `json:"banks"`
}

type bankEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logoUrl,omitempty"`
}

type vaultResponse struct {
	Data []vaultedMethod `json:"data"`
}

type vaultedMethod struct {
	ID          string `json:"id"`
	Type        string `json:"paymentMethodType"`
	Description string `json:"description"`
	CVVLength   int    `json:"cvvLength,omitempty"`
}

func (c *HTTPClient) FetchConfiguration(ctx context.Context) (*domain.APIConfiguration, error) {
	state := c.session.Snapshot()
	if state.Token == nil {
		return nil, domain.ErrClientTokenMissing
	}

	resp, err := sendRequest[any, configurationResponse](c, ctx, http.MethodGet, state.Token.Claims.ConfigurationURL, nil, "")
	if err != nil {
		return nil, err
	}

	cfg := &domain.APIConfiguration{
		CoreURL: resp.CoreURL,
		PciURL:  resp.PciURL,
	}
	for _, m := range resp.PaymentMethods {
		cfg.PaymentMethods = append(cfg.PaymentMethods, domain.PaymentMethodConfig{
			Type:               domain.PaymentMethodType(m.Type),
			Implementation:     domain.ImplementationKind(m.Implementation),
			DisplayName:        m.DisplayName,
			SurchargeMinor:     m.SurchargeMinor,
			ApplePayMerchantID: m.ApplePayMerchantID,
			ACHCompanyName:     m.ACHCompanyName,
		})
	}
	return cfg, nil
}

func (c *HTTPClient) Tokenize(ctx context.Context, req application.TokenizationRequest) (*application.PaymentMethodTokenData, error) {
	endpoint, err := c.pciURL("/payment-instruments")
	if err != nil {
		return nil, err
	}
	return sendRequest[application.TokenizationRequest, application.PaymentMethodTokenData](c, ctx, http.MethodPost, endpoint, &req, "")
}

func (c *HTTPClient) CreatePayment(ctx context.Context, req application.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error) {
	endpoint, err := c.coreURL("/payments")
	if err != nil {
		return nil, err
	}
	resp, err := sendRequest[application.CreatePaymentRequest, paymentResponse](c, ctx, http.MethodPost, endpoint, &req, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return toDomainPayment(resp)
}

func (c *HTTPClient) ResumePayment(ctx context.Context, paymentID, resumeToken string) (*domain.Payment, error) {
	endpoint, err := c.coreURL("/payments/" + url.PathEscape(paymentID) + "/resume")
	if err != nil {
		return nil, err
	}
	req := resumeRequest{ResumeToken: resumeToken}
	resp, err := sendRequest[resumeRequest, paymentResponse](c, ctx, http.MethodPost, endpoint, &req, "")
	if err != nil {
		return nil, err
	}
	return toDomainPayment(resp)
}

// PollStatus observes the status endpoint of an in-flight redirect flow.
// The URL comes from the required action's client token and is absolute.
func (c *HTTPClient) PollStatus(ctx context.Context, statusURL string) (*application.PollResponse, error) {
	return sendRequest[any, application.PollResponse](c, ctx, http.MethodGet, statusURL, nil, "")
}

func (c *HTTPClient) ListBanks(ctx context.Context, methodType domain.PaymentMethodType) ([]domain.Bank, error) {
	endpoint, err := c.coreURL("/banks")
	if err != nil {
		return nil, err
	}
	endpoint += "?paymentMethodType=" + url.QueryEscape(string(methodType))

	resp, err := sendRequest[any, bankListResponse](c, ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}

	banks := make([]domain.Bank, 0, len(resp.Banks))
	for _, b := range resp.Banks {
		banks = append(banks, domain.Bank{ID: b.ID, Name: b.Name, Logo: b.Logo})
	}
	return banks, nil
}

func (c *HTTPClient) FetchVaultedMethods(ctx context.Context) ([]domain.VaultedPaymentMethod, error) {
	endpoint, err := c.coreURL("/payment-instruments/vault")
	if err != nil {
		return nil, err
	}

	resp, err := sendRequest[any, vaultResponse](c, ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}

	methods := make([]domain.VaultedPaymentMethod, 0, len(resp.Data))
	for _, m := range resp.Data {
		methods = append(methods, domain.VaultedPaymentMethod{
			ID:          m.ID,
			Type:        domain.PaymentMethodType(m.Type),
			Description: m.Description,
			CVVLength:   m.CVVLength,
		})
	}
	return methods, nil
}

func (c *HTTPClient) DeleteVaultedMethod(ctx context.Context, id string) error {
	endpoint, err := c.coreURL("/payment-instruments/vault/" + url.PathEscape(id))
	if err != nil {
		return err
	}
	_, err = sendRequest[any, struct{}](c, ctx, http.MethodDelete, endpoint, nil, "")
	return err
}

func (c *HTTPClient) coreURL(path string) (string, error) {
	state := c.session.Snapshot()
	switch {
	case state.Config != nil && state.Config.CoreURL != "":
		return state.Config.CoreURL + path, nil
	case state.Token != nil && state.Token.Claims.CoreURL != "":
		return state.Token.Claims.CoreURL + path, nil
	}
	return "", domain.ErrClientTokenMissing
}

func (c *HTTPClient) pciURL(path string) (string, error) {
	state := c.session.Snapshot()
	switch {
	case state.Config != nil && state.Config.PciURL != "":
		return state.Config.PciURL + path, nil
	case state.Token != nil && state.Token.Claims.PciURL != "":
		return state.Token.Claims.PciURL + path, nil
	}
	return "", domain.ErrClientTokenMissing
}

func toDomainPayment(resp *paymentResponse) (*domain.Payment, error) {
	money, err := domain.NewMoney(resp.Amount, resp.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("payment response: %w", err)
	}

	var action *domain.RequiredAction
	if resp.RequiredAction != nil {
		action = &domain.RequiredAction{
			Name:        domain.RequiredActionName(resp.RequiredAction.Name),
			Description: resp.RequiredAction.Description,
			ClientToken: resp.RequiredAction.ClientToken,
			MandateText: resp.RequiredAction.MandateText,
		}
	}

	payment, err := domain.NewPaymentFromStatus(resp.ID, resp.OrderID, money, domain.ParseStatus(resp.Status), action)
	if err != nil {
		return nil, err
	}
	payment.CustomerID = resp.CustomerID
	payment.FailureReason = resp.FailureReason
	return payment, nil
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, endpoint string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.AccessToken(); token != "" {
		httpReq.Header.Set(clientTokenHeader, token)
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &GatewayError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var decodedResp Resp
	if resp.StatusCode == http.StatusNoContent {
		return &decodedResp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&decodedResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	return &decodedResp, nil
}
