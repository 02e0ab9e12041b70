// Package checkout drives one payment attempt end to end: validation, user
// input, the merchant's before-create hook, tokenization, payment creation,
// required-action resolution and resume, ending in exactly one terminal
// callback. The surrounding Scope and Orchestrator live here too.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/application/resolvers"
	"github.com/primer-io/checkout-go/internal/domain"
)

// State is the observable position of a pipeline in its lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateAwaitingInput   State = "awaiting_user_input"
	StateInvokingHook    State = "invoking_before_create_hook"
	StateTokenizing      State = "tokenizing"
	StateCreatingPayment State = "creating_payment"
	StateResolvingAction State = "resolving_required_action"
	StateResumingPayment State = "resuming_payment"
	StateSucceeded       State = "completed_success"
	StateFailed          State = "completed_failure"
	StateAborted         State = "aborted"
)

// A resume chain longer than this indicates a misbehaving backend; the
// pipeline refuses to loop forever.
const maxRequiredActionChain = 5

// CollectedInput is what the user-input suspension point waits for: the
// instrument assembled from on-screen collection, plus a recaptured CVV for
// vaulted cards.
type CollectedInput struct {
	Request application.TokenizationRequest
	CVV     string
}

// Attempt describes one payment attempt before the pipeline runs it. A nil
// Request with an empty VaultedToken means the pipeline suspends for user
// input; a VaultedToken skips tokenization entirely.
type Attempt struct {
	MethodType   domain.PaymentMethodType
	Request      *application.TokenizationRequest
	VaultedToken string
	CVV          string

	// ValidateExtra runs method-specific precondition checks on top of the
	// session-level ones (e.g. Apple Pay merchant id present).
	ValidateExtra func(state application.SessionState) error
}

// Pipeline executes a single payment attempt. One pipeline serves exactly
// one attempt; a fresh attempt needs a fresh pipeline.
type Pipeline struct {
	gateway   application.GatewayClient
	session   *application.Session
	idem      *application.IdempotencyStore
	hub       *application.CancellationHub
	registry  *resolvers.Registry
	callbacks *application.Callbacks
	logger    *slog.Logger

	attempt Attempt

	mu       sync.Mutex
	state    State
	finished bool

	input     chan CollectedInput
	decisions chan application.PaymentCreationDecision
	resumes   chan application.ResumeDecision
}

func NewPipeline(
	gateway application.GatewayClient,
	session *application.Session,
	idem *application.IdempotencyStore,
	hub *application.CancellationHub,
	registry *resolvers.Registry,
	callbacks *application.Callbacks,
	logger *slog.Logger,
	attempt Attempt,
) *Pipeline {
	return &Pipeline{
		gateway:   gateway,
		session:   session,
		idem:      idem,
		hub:       hub,
		registry:  registry,
		callbacks: callbacks,
		logger:    logger.With("payment_method", attempt.MethodType),
		attempt:   attempt,
		state:     StateIdle,
		input:     make(chan CollectedInput, 1),
		decisions: make(chan application.PaymentCreationDecision, 1),
		resumes:   make(chan application.ResumeDecision, 1),
	}
}

// State reports the pipeline's current lifecycle position.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// SubmitInput delivers the collected instrument to a pipeline suspended at
// the user-input stage. A second submission for the same attempt is dropped.
func (p *Pipeline) SubmitInput(input CollectedInput) {
	select {
	case p.input <- input:
	default:
		p.logger.Warn("input submitted twice for one attempt, ignoring")
	}
}

// SubmitResumeDecision delivers the merchant's answer while the pipeline
// waits on a new-client-token action.
func (p *Pipeline) SubmitResumeDecision(decision application.ResumeDecision) {
	select {
	case p.resumes <- decision:
	default:
		p.logger.Warn("resume decision submitted twice, ignoring")
	}
}

// Validate checks every precondition the attempt needs before any I/O: a
// decoded client token, an order with a positive amount and a currency, and
// the attempt's method-specific options. Synchronous, side-effect free, and
// callable any number of times.
func (p *Pipeline) Validate() error {
	state := p.session.Snapshot()
	if state.Token == nil {
		return domain.NewValidationError("no client token has been set")
	}
	if state.Config == nil {
		return domain.NewValidationError("backend configuration has not been loaded")
	}
	if state.Order == nil {
		return domain.NewValidationError("no active order in session")
	}
	if state.Order.Amount.Amount <= 0 {
		return domain.NewValidationError("order amount must be positive")
	}
	if state.Order.Amount.Currency == "" {
		return domain.NewValidationError("order currency is required")
	}
	if p.attempt.ValidateExtra != nil {
		if err := p.attempt.ValidateExtra(state); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the attempt to its terminal state. It fires the merchant
// callbacks in order and reports exactly one of completed or failed. The
// returned error, if any, is the same one passed to OnCheckoutFailed.
func (p *Pipeline) Run(ctx context.Context) (*domain.CheckoutData, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Bridge the out-of-band cancel signal into the context every stage and
	// resolver already honors.
	go func() {
		select {
		case <-p.hub.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	p.setState(StateValidating)
	if err := p.Validate(); err != nil {
		return nil, p.fail(err, domain.CheckoutData{})
	}

	request := p.attempt.Request
	cvv := p.attempt.CVV
	if request == nil && p.attempt.VaultedToken == "" {
		p.setState(StateAwaitingInput)
		select {
		case <-runCtx.Done():
			return nil, p.fail(runCtx.Err(), domain.CheckoutData{})
		case input := <-p.input:
			request = &input.Request
			cvv = input.CVV
		}
	}

	if err := p.runBeforeCreateHook(runCtx); err != nil {
		return nil, err
	}

	methodData := application.PaymentMethodData{Type: p.attempt.MethodType}
	p.callbacks.EmitWillCreatePayment(methodData)

	token := p.attempt.VaultedToken
	if token == "" {
		p.setState(StateTokenizing)
		p.callbacks.EmitTokenizationStarted(p.attempt.MethodType)
		tokenData, err := p.gateway.Tokenize(runCtx, *request)
		if err != nil {
			return nil, p.fail(err, domain.CheckoutData{})
		}
		p.callbacks.EmitTokenized(*tokenData)
		token = tokenData.Token
	}

	p.setState(StateCreatingPayment)
	payment, err := p.gateway.CreatePayment(runCtx, application.CreatePaymentRequest{
		PaymentMethodToken: token,
		CVV:                cvv,
	}, p.idem.Current())
	if err != nil {
		return nil, p.fail(err, domain.CheckoutData{})
	}

	return p.settle(runCtx, payment)
}

// runBeforeCreateHook asks the merchant whether to proceed. No registered
// hook continues with no idempotency key. An abort short-circuits the whole
// attempt before anything reaches the network.
func (p *Pipeline) runBeforeCreateHook(ctx context.Context) error {
	p.setState(StateInvokingHook)

	if p.callbacks == nil || p.callbacks.OnBeforePaymentCreate == nil {
		p.idem.Clear()
		return nil
	}

	p.callbacks.OnBeforePaymentCreate(
		application.PaymentMethodData{Type: p.attempt.MethodType},
		func(d application.PaymentCreationDecision) {
			select {
			case p.decisions <- d:
			default:
				p.logger.Warn("before-create decision delivered twice, ignoring")
			}
		},
	)

	var decision application.PaymentCreationDecision
	select {
	case <-ctx.Done():
		return p.fail(ctx.Err(), domain.CheckoutData{})
	case decision = <-p.decisions:
	}

	if decision.Aborted() {
		return p.abort(decision.ErrorMessage())
	}
	if key := decision.IdempotencyKey(); key != "" {
		p.idem.Set(key)
	} else {
		p.idem.Clear()
	}
	return nil
}

// settle walks a payment to its terminal status, resolving required actions
// and resuming as many times as the chain budget allows.
func (p *Pipeline) settle(ctx context.Context, payment *domain.Payment) (*domain.CheckoutData, error) {
	data := domain.CheckoutData{PaymentID: payment.ID, OrderID: payment.OrderID}

	for chain := 0; payment.RequiresAction(); chain++ {
		if chain >= maxRequiredActionChain {
			return nil, p.fail(domain.NewPaymentFailedError(payment.ID, payment.OrderID,
				"required action chain exceeded the supported depth"), data)
		}

		p.setState(StateResolvingAction)
		action := payment.RequiredAction
		p.logger.Info("resolving required action", "action", action.Name, "payment_id", payment.ID)

		if action.Name == domain.ActionNewClientToken {
			next, err := p.adoptNewClientToken(ctx, action, data)
			if err != nil || next == nil {
				return p.succeedIfNil(err, data)
			}
			payment = next
			continue
		}

		resolver, err := p.registry.For(action.Name)
		if err != nil {
			return nil, p.fail(domain.NewPaymentFailedError(payment.ID, payment.OrderID, err.Error()), data)
		}
		resolution, err := resolver.Resolve(ctx, action, payment.ID)
		if err != nil {
			return nil, p.fail(err, data)
		}
		if resolution.Completed {
			return p.succeed(data)
		}

		p.setState(StateResumingPayment)
		payment, err = p.gateway.ResumePayment(ctx, payment.ID, resolution.ResumeToken)
		if err != nil {
			return nil, p.fail(err, data)
		}
		data = domain.CheckoutData{PaymentID: payment.ID, OrderID: payment.OrderID}
	}

	switch {
	case payment.Status == domain.StatusDeclined:
		return nil, p.fail(domain.NewDeclinedError(payment.ID, payment.OrderID), data)
	case payment.Status == domain.StatusCancelled:
		return nil, p.fail(domain.NewCancelledError(p.attempt.MethodType), data)
	case payment.IsSuccessful():
		return p.succeed(data)
	default:
		// Failed and any status this build does not know about.
		return nil, p.fail(domain.NewPaymentFailedError(payment.ID, payment.OrderID, payment.FailureReason), data)
	}
}

// adoptNewClientToken installs the fresh token the action carries, then
// waits for the merchant's resume decision. Returns (nil, nil) when the
// merchant declares the checkout complete.
func (p *Pipeline) adoptNewClientToken(ctx context.Context, action *domain.RequiredAction, data domain.CheckoutData) (*domain.Payment, error) {
	decoded, err := domain.DecodeClientToken(action.ClientToken)
	if err != nil {
		return nil, p.fail(domain.NewPaymentFailedError(data.PaymentID, data.OrderID,
			"required action carried an unusable client token"), data)
	}
	state := p.session.Snapshot()
	p.session.Replace(decoded, state.Config)

	var decision application.ResumeDecision
	select {
	case <-ctx.Done():
		return nil, p.fail(ctx.Err(), data)
	case decision = <-p.resumes:
	}

	if decision.Complete() {
		return nil, nil
	}
	if decision.Failed() {
		return nil, p.fail(domain.NewPaymentFailedError(data.PaymentID, data.OrderID, decision.Message()), data)
	}
	if raw, ok := decision.NewClientToken(); ok {
		next, err := domain.DecodeClientToken(raw)
		if err != nil {
			return nil, p.fail(domain.NewPaymentFailedError(data.PaymentID, data.OrderID,
				"merchant supplied an unusable client token"), data)
		}
		p.session.Replace(next, state.Config)
		// Synthesize a pending payment carrying the same action so the
		// chain loop re-enters with the replacement token in place.
		return &domain.Payment{
			ID:             data.PaymentID,
			OrderID:        data.OrderID,
			Status:         domain.StatusPending,
			RequiredAction: &domain.RequiredAction{Name: domain.ActionNewClientToken, ClientToken: raw},
		}, nil
	}
	return nil, nil
}

func (p *Pipeline) succeedIfNil(err error, data domain.CheckoutData) (*domain.CheckoutData, error) {
	if err != nil {
		return nil, err
	}
	return p.succeed(data)
}

// succeed records the terminal success and fires OnCheckoutCompleted once.
func (p *Pipeline) succeed(data domain.CheckoutData) (*domain.CheckoutData, error) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return &data, nil
	}
	p.finished = true
	p.state = StateSucceeded
	p.mu.Unlock()

	p.logger.Info("checkout completed", "payment_id", data.PaymentID, "order_id", data.OrderID)
	p.callbacks.EmitCompleted(data)
	return &data, nil
}

// fail records the terminal failure and fires OnCheckoutFailed once. A
// context error caused by the cancel hub surfaces as a cancelled kind tagged
// with the active method type.
func (p *Pipeline) fail(err error, data domain.CheckoutData) error {
	if (p.hub.Cancelled() || errors.Is(err, context.Canceled)) &&
		!domain.IsErrorKind(err, domain.ErrKindCancelled) {
		err = domain.NewCancelledError(p.attempt.MethodType)
	}
	// Errors without a kind at this point came out of a gateway call.
	if _, ok := domain.AsCheckoutError(err); !ok {
		err = domain.NewNetworkError(err)
	}
	ce := domain.EnsureCheckoutError(err)
	if ce.PaymentMethod == "" {
		ce.PaymentMethod = p.attempt.MethodType
	}

	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return ce
	}
	p.finished = true
	p.state = StateFailed
	p.mu.Unlock()

	p.logger.Warn("checkout failed", "kind", ce.Kind, "error", ce.Message, "payment_id", data.PaymentID)
	p.callbacks.EmitFailed(ce, data)
	return ce
}

// abort is the merchant-initiated terminal state from the before-create
// hook. Always a merchant-kind error; the idempotency store is untouched.
func (p *Pipeline) abort(message string) error {
	ce := domain.NewMerchantError(message)
	ce.PaymentMethod = p.attempt.MethodType

	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return ce
	}
	p.finished = true
	p.state = StateAborted
	p.mu.Unlock()

	p.logger.Info("checkout aborted by merchant", "message", ce.Message)
	p.callbacks.EmitFailed(ce, domain.CheckoutData{})
	return ce
}
