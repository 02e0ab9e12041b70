package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/application/resolvers"
	"github.com/primer-io/checkout-go/internal/domain"
)

// Orchestrator is the merchant-facing entry point. It owns the session, the
// navigation scope, and at most one active pipeline, and it routes merchant
// decisions and user input to whichever stage is waiting for them.
type Orchestrator struct {
	gateway   application.GatewayClient
	session   *application.Session
	idem      *application.IdempotencyStore
	hub       *application.CancellationHub
	resolvers *resolvers.Registry
	flows     *FlowRegistry
	scope     *Scope
	callbacks *application.Callbacks
	logger    *slog.Logger

	mu     sync.Mutex
	active *Pipeline
	wg     sync.WaitGroup
}

func NewOrchestrator(
	gateway application.GatewayClient,
	session *application.Session,
	idem *application.IdempotencyStore,
	hub *application.CancellationHub,
	resolverRegistry *resolvers.Registry,
	scope *Scope,
	callbacks *application.Callbacks,
	logger *slog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		gateway:   gateway,
		session:   session,
		idem:      idem,
		hub:       hub,
		resolvers: resolverRegistry,
		flows:     NewFlowRegistry(),
		scope:     scope,
		callbacks: callbacks,
		logger:    logger,
	}
	o.flows.Register(CardFlow{})
	o.flows.Register(ApplePayFlow{})
	o.flows.Register(BankRedirectFlow{})
	o.flows.Register(ACHFlow{})
	o.flows.Register(QRCodeFlow{})
	return o
}

// RegisterFlow adds or replaces a method flow at runtime. Used for
// redirect-style methods discovered in the backend configuration, and for
// flows needing per-checkout parameters such as PayPal.
func (o *Orchestrator) RegisterFlow(flow MethodFlow) {
	o.flows.Register(flow)
}

// Start decodes the client token, loads the backend configuration and
// installs both in the session. Web-redirect methods found in the
// configuration get the generic hosted-page flow registered for them.
func (o *Orchestrator) Start(ctx context.Context, clientToken string, order *domain.Order) error {
	o.scope.ShowLoading()

	token, err := domain.DecodeClientToken(clientToken)
	if err != nil {
		ce := domain.NewValidationError("client token rejected: %v", err)
		o.scope.ShowFailure(ce)
		return ce
	}
	o.session.Start(token, nil)
	o.session.SetOrder(order)

	config, err := o.gateway.FetchConfiguration(ctx)
	if err != nil {
		ce := domain.NewNetworkError(err)
		o.scope.ShowFailure(ce)
		return ce
	}
	o.session.Start(token, config)

	for _, method := range config.PaymentMethods {
		if method.Implementation == domain.ImplementationWebRedirect {
			if _, err := o.flows.For(method.Type); err != nil {
				o.flows.Register(WebRedirectFlow{Method: method.Type})
			}
		}
	}

	o.hub.Reset()
	o.logger.Info("checkout session started",
		"env", token.Claims.Env,
		"methods", len(config.PaymentMethods))
	o.scope.ShowMethodSelection()
	return nil
}

// SelectMethod begins a payment attempt with the chosen method. Only one
// attempt can be active; starting a second while one runs is rejected.
func (o *Orchestrator) SelectMethod(ctx context.Context, t domain.PaymentMethodType) error {
	flow, err := o.flows.For(t)
	if err != nil {
		return domain.NewValidationError("%v", err)
	}

	state := o.session.Snapshot()
	if state.Config == nil {
		return domain.NewValidationError("checkout has not been started")
	}
	if err := flow.Validate(state); err != nil {
		return err
	}

	attempt := Attempt{MethodType: t, ValidateExtra: flow.Validate}
	request, ready := flow.Instrument(state)
	if ready {
		attempt.Request = request
	}

	pipeline := NewPipeline(o.gateway, o.session, o.idem, o.hub, o.resolvers, o.callbacks, o.logger, attempt)
	if err := o.install(pipeline); err != nil {
		return err
	}

	if ready {
		o.scope.ShowProcessing()
	} else {
		o.scope.ShowPaymentMethod(t)
	}
	o.run(ctx, pipeline)
	return nil
}

// PayWithVaultedMethod charges a stored instrument. Card instruments
// recapture the CVV, validated against the stored card's expected length
// before anything leaves the process.
func (o *Orchestrator) PayWithVaultedMethod(ctx context.Context, vaultedID, cvv string) error {
	var method domain.VaultedPaymentMethod
	found := false
	for _, m := range o.scope.VaultedMethods() {
		if m.ID == vaultedID {
			method = m
			found = true
			break
		}
	}
	if !found {
		return domain.NewValidationError("unknown vaulted payment method %s", vaultedID)
	}

	if method.CVVLength > 0 {
		if v := domain.ValidateCVV(cvv, method.CVVLength); !v.Valid {
			return domain.NewValidationError("recaptured CVV is invalid")
		}
	}

	attempt := Attempt{
		MethodType:   domain.TypeVaulted,
		VaultedToken: method.ID,
		CVV:          cvv,
	}
	pipeline := NewPipeline(o.gateway, o.session, o.idem, o.hub, o.resolvers, o.callbacks, o.logger, attempt)
	if err := o.install(pipeline); err != nil {
		return err
	}

	o.scope.ShowProcessing()
	o.run(ctx, pipeline)
	return nil
}

func (o *Orchestrator) install(p *Pipeline) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return domain.NewValidationError("another payment attempt is already in progress")
	}
	o.active = p
	return nil
}

// run drives the pipeline on its own goroutine and bridges the terminal
// outcome into scope transitions.
func (o *Orchestrator) run(ctx context.Context, p *Pipeline) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		data, err := p.Run(ctx)

		o.mu.Lock()
		o.active = nil
		o.mu.Unlock()

		if err != nil {
			o.scope.ShowFailure(domain.EnsureCheckoutError(err))
			return
		}
		o.scope.ShowSuccess(data.PaymentID)
	}()
}

// SubmitCardDetails validates and forwards a completed card form to the
// suspended card attempt.
func (o *Orchestrator) SubmitCardDetails(details CardDetails) error {
	if err := details.Validate(time.Now()); err != nil {
		return err
	}
	return o.submitInput(CollectedInput{Request: details.Request()})
}

// SelectBank forwards the user's bank choice to a suspended bank-redirect
// attempt.
func (o *Orchestrator) SelectBank(bank domain.Bank) error {
	return o.submitInput(CollectedInput{
		Request: application.TokenizationRequest{
			Instrument: application.InstrumentBankRedirect,
			TokenType:  application.TokenSingleUse,
			BankRedirect: &application.BankRedirectInstrument{
				BankID: bank.ID,
				Method: string(domain.TypeBankRedirect),
			},
		},
	})
}

// SubmitACHDetails forwards collected bank-account details to a suspended
// ACH attempt.
func (o *Orchestrator) SubmitACHDetails(routing, account, accountType string) error {
	if routing == "" || account == "" {
		return domain.NewValidationError("routing and account numbers are required")
	}
	return o.submitInput(CollectedInput{
		Request: application.TokenizationRequest{
			Instrument: application.InstrumentACH,
			TokenType:  application.TokenSingleUse,
			ACH: &application.ACHInstrument{
				RoutingNumber: routing,
				AccountNumber: account,
				AccountType:   accountType,
			},
		},
	})
}

// SubmitInput forwards a prebuilt instrument, e.g. an Apple Pay platform
// token produced by the payment sheet.
func (o *Orchestrator) SubmitInput(input CollectedInput) error {
	return o.submitInput(input)
}

func (o *Orchestrator) submitInput(input CollectedInput) error {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if active == nil {
		return domain.NewValidationError("no payment attempt is awaiting input")
	}
	active.SubmitInput(input)
	o.scope.ShowProcessing()
	return nil
}

// HandleResumeDecision routes the merchant's resume answer to the waiting
// pipeline. A continue-with-new-client-token decision replaces the session
// token before the pipeline proceeds.
func (o *Orchestrator) HandleResumeDecision(decision application.ResumeDecision) error {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if active == nil {
		return domain.NewValidationError("no payment attempt is awaiting a resume decision")
	}
	active.SubmitResumeDecision(decision)
	return nil
}

// LoadVaultedMethods fetches the stored instruments and shows the vault
// screen, applying the selection rule to the fresh list.
func (o *Orchestrator) LoadVaultedMethods(ctx context.Context) error {
	methods, err := o.gateway.FetchVaultedMethods(ctx)
	if err != nil {
		ce := domain.NewNetworkError(err)
		o.scope.ShowFailure(ce)
		return ce
	}
	o.scope.RefreshVaultedMethods(methods)
	o.scope.ShowVaultedMethods()
	return nil
}

// ListBanks fetches the bank-selector list for a redirect method.
func (o *Orchestrator) ListBanks(ctx context.Context, t domain.PaymentMethodType) ([]domain.Bank, error) {
	banks, err := o.gateway.ListBanks(ctx, t)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	return banks, nil
}

// Cancel delivers the out-of-band cancellation signal to whatever stage is
// currently suspended.
func (o *Orchestrator) Cancel(reason string) {
	o.logger.Info("checkout cancelled", "reason", reason)
	o.hub.Cancel(reason)
}

// Dismiss tears the checkout presentation down: the active attempt (if any)
// is cancelled, the session cleared, the scope dismissed.
func (o *Orchestrator) Dismiss() {
	o.hub.Cancel("dismissed")
	o.wg.Wait()
	o.session.Clear()
	o.idem.Clear()
	o.scope.Dismiss()
}
