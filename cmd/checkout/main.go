// Command checkout runs a scripted card checkout against a running sandbox
// (or any backend issuing compatible client tokens), logging every lifecycle
// event as it fires. It is the headless stand-in for a host application.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/application/checkout"
	"github.com/primer-io/checkout-go/internal/application/resolvers"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/primer-io/checkout-go/internal/infrastructure/gateway"
)

// loggingRedirectPresenter stands in for a web view: it logs the URL the
// user would be sent to and lets the sandbox complete the flow on its own.
type loggingRedirectPresenter struct {
	logger *slog.Logger
}

func (p *loggingRedirectPresenter) Present(ctx context.Context, redirectURL string) error {
	p.logger.Info("redirecting user", "url", redirectURL)
	return nil
}

func (p *loggingRedirectPresenter) Dismiss() {
	p.logger.Info("redirect view dismissed")
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	clientToken, err := fetchClientToken(cfg.Demo.ClientTokenURL)
	if err != nil {
		logger.Error("could not obtain a client token", "url", cfg.Demo.ClientTokenURL, "error", err)
		os.Exit(1)
	}

	session := application.NewSession()
	idem := application.NewIdempotencyStore()
	hub := application.NewCancellationHub()

	client := gateway.NewHTTPClient(cfg.Gateway, session)
	breaker := gateway.NewBreakerClient(client, cfg.Breaker)

	registry := resolvers.NewRegistry()
	registry.Register(domain.ActionWebRedirect, resolvers.NewRedirectResolver(
		breaker,
		&loggingRedirectPresenter{logger: logger},
		cfg.Polling,
		logger,
	))

	done := make(chan struct{})
	callbacks := &application.Callbacks{
		OnBeforePaymentCreate: func(data application.PaymentMethodData, decide func(application.PaymentCreationDecision)) {
			logger.Info("before-create hook invoked", "payment_method", data.Type)
			decide(application.ContinuePaymentCreationWithKey("demo-" + time.Now().Format("150405")))
		},
		OnWillCreatePayment: func(data application.PaymentMethodData) {
			logger.Info("will create payment", "payment_method", data.Type)
		},
		OnTokenizationStarted: func(t domain.PaymentMethodType) {
			logger.Info("tokenization started", "payment_method", t)
		},
		OnTokenized: func(token application.PaymentMethodTokenData) {
			logger.Info("instrument tokenized", "token_type", token.TokenType)
		},
		OnAdditionalInfo: func(info application.AdditionalInfo) {
			logger.Info("additional info", "kind", info.Kind, "message", info.Message)
		},
		OnCheckoutCompleted: func(data domain.CheckoutData) {
			logger.Info("checkout completed", "payment_id", data.PaymentID, "order_id", data.OrderID)
			close(done)
		},
		OnCheckoutFailed: func(err *domain.CheckoutError, data domain.CheckoutData) {
			logger.Error("checkout failed",
				"kind", err.Kind,
				"message", err.Message,
				"payment_id", data.PaymentID,
			)
			close(done)
		},
	}

	scope := checkout.NewScope(breaker)
	scope.SetObserver(func(state checkout.NavigationState) {
		logger.Info("navigation", "state", state.Kind)
	})

	orch := checkout.NewOrchestrator(breaker, session, idem, hub, registry, scope, callbacks, logger)

	ctx := context.Background()
	amount, err := domain.NewMoney(4999, "EUR")
	if err != nil {
		logger.Error("bad demo amount", "error", err)
		os.Exit(1)
	}
	order := &domain.Order{ID: "demo-order", CustomerID: "demo-customer", Amount: amount}

	if err := orch.Start(ctx, clientToken, order); err != nil {
		logger.Error("could not start checkout", "error", err)
		os.Exit(1)
	}
	if err := orch.SelectMethod(ctx, domain.TypeCard); err != nil {
		logger.Error("could not select card", "error", err)
		os.Exit(1)
	}
	if err := orch.SubmitCardDetails(checkout.CardDetails{
		Number:      cfg.Demo.CardNumber,
		CVV:         cfg.Demo.CVV,
		ExpiryMonth: cfg.Demo.ExpiryMonth,
		ExpiryYear:  cfg.Demo.ExpiryYear,
		Cardholder:  cfg.Demo.Cardholder,
	}); err != nil {
		logger.Error("card details rejected", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-quit:
		logger.Info("interrupted, cancelling checkout")
		orch.Cancel("interrupted")
		<-done
	}

	orch.Dismiss()
	logger.Info("demo finished")
}

func fetchClientToken(url string) (string, error) {
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		ClientToken string `json:"clientToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.ClientToken, nil
}
