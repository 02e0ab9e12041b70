package resolvers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/application/testhelpers"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/primer-io/checkout-go/internal/infrastructure/gateway"
)

func fastPolling() config.PollingConfig {
	return config.PollingConfig{
		Interval:         time.Millisecond,
		MaxAttempts:      10,
		TransportRetries: 2,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func redirectActionToken(t *testing.T) string {
	return testhelpers.MakeClientToken(t, map[string]any{
		"redirectUrl": "https://bank.example/authorize",
		"statusUrl":   "https://api.example/status/st-1",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
}

func TestRedirectResolver_PendingThenComplete(t *testing.T) {
	gw := &testhelpers.MockGateway{
		PollStatusFn: testhelpers.ScriptedPolls(
			&application.PollResponse{Status: application.PollPending},
			&application.PollResponse{Status: application.PollPending},
			&application.PollResponse{Status: application.PollComplete, ID: "resume-42"},
		),
	}
	presenter := &testhelpers.NoopRedirectPresenter{}
	resolver := NewRedirectResolver(gw, presenter, fastPolling(), discardLogger())

	action := &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}
	resolution, err := resolver.Resolve(context.Background(), action, "pay-1")

	require.NoError(t, err)
	assert.Equal(t, "resume-42", resolution.ResumeToken)
	assert.False(t, resolution.Completed)
	assert.Equal(t, "https://bank.example/authorize", presenter.PresentedURL)
	assert.True(t, presenter.Dismissed)
	assert.Equal(t, 3, gw.PollCalls)
}

func TestRedirectResolver_TransportFailuresRetriedUpToBound(t *testing.T) {
	calls := 0
	gw := &testhelpers.MockGateway{
		PollStatusFn: func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
			calls++
			if calls <= 2 {
				return nil, errors.New("connection reset")
			}
			return &application.PollResponse{Status: application.PollComplete, ID: "resume-after-blips"}, nil
		},
	}
	resolver := NewRedirectResolver(gw, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())

	resolution, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}, "pay-1")

	require.NoError(t, err)
	assert.Equal(t, "resume-after-blips", resolution.ResumeToken)
}

func TestRedirectResolver_TransportFailuresExhaustRetries(t *testing.T) {
	gw := &testhelpers.MockGateway{
		PollStatusFn: func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
			return nil, errors.New("connection reset")
		},
	}
	resolver := NewRedirectResolver(gw, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())

	_, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}, "pay-1")

	require.Error(t, err)
	assert.True(t, domain.IsErrorKind(err, domain.ErrKindNetwork))
	// TransportRetries=2 allows three failed polls before giving up.
	assert.Equal(t, 3, gw.PollCalls)
}

func TestRedirectResolver_NonRetryableGatewayErrorFailsImmediately(t *testing.T) {
	gw := &testhelpers.MockGateway{
		PollStatusFn: func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
			return nil, &gateway.GatewayError{Code: "NOT_FOUND", StatusCode: 404}
		},
	}
	resolver := NewRedirectResolver(gw, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())

	_, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}, "pay-1")

	require.Error(t, err)
	assert.True(t, domain.IsErrorKind(err, domain.ErrKindNetwork))
	assert.Equal(t, 1, gw.PollCalls)
}

func TestRedirectResolver_AttemptBudgetExhaustedTimesOut(t *testing.T) {
	gw := &testhelpers.MockGateway{
		PollStatusFn: func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
			return &application.PollResponse{Status: application.PollPending}, nil
		},
	}
	cfg := fastPolling()
	cfg.MaxAttempts = 4
	resolver := NewRedirectResolver(gw, &testhelpers.NoopRedirectPresenter{}, cfg, discardLogger())

	_, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}, "pay-1")

	require.Error(t, err)
	assert.True(t, domain.IsErrorKind(err, domain.ErrKindTimeout))
	assert.Equal(t, 4, gw.PollCalls)
}

func TestRedirectResolver_CancelledContextStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gw := &testhelpers.MockGateway{
		PollStatusFn: func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
			cancel()
			return &application.PollResponse{Status: application.PollPending}, nil
		},
	}
	resolver := NewRedirectResolver(gw, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())

	_, err := resolver.Resolve(ctx, &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: redirectActionToken(t),
	}, "pay-1")

	require.ErrorIs(t, err, context.Canceled)
}

func TestRedirectResolver_MissingURLsFail(t *testing.T) {
	token := testhelpers.MakeClientToken(t, map[string]any{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	resolver := NewRedirectResolver(&testhelpers.MockGateway{}, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())

	_, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionWebRedirect,
		ClientToken: token,
	}, "pay-1")

	require.Error(t, err)
	assert.True(t, domain.IsErrorKind(err, domain.ErrKindPaymentFailed))
}

type stubChallengePresenter struct {
	result application.ChallengeResult
	err    error
}

func (p *stubChallengePresenter) PresentChallenge(ctx context.Context, clientToken string) (<-chan application.ChallengeResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan application.ChallengeResult, 1)
	ch <- p.result
	return ch, nil
}

func TestThreeDSResolver(t *testing.T) {
	action := &domain.RequiredAction{Name: domain.ActionThreeDSAuthentication, ClientToken: "tok-3ds"}

	t.Run("challenge success yields resume token", func(t *testing.T) {
		resolver := NewThreeDSResolver(&stubChallengePresenter{
			result: application.ChallengeResult{AuthCode: application.ThreeDSAuthSuccess, ResumeToken: "resume-3ds"},
		})
		resolution, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "resume-3ds", resolution.ResumeToken)
	})

	t.Run("frictionless without token completes in place", func(t *testing.T) {
		resolver := NewThreeDSResolver(&stubChallengePresenter{
			result: application.ChallengeResult{AuthCode: application.ThreeDSAuthFrictionless},
		})
		resolution, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.NoError(t, err)
		assert.True(t, resolution.Completed)
		assert.Empty(t, resolution.ResumeToken)
	})

	t.Run("not performed with token resumes", func(t *testing.T) {
		resolver := NewThreeDSResolver(&stubChallengePresenter{
			result: application.ChallengeResult{AuthCode: application.ThreeDSNotPerformed, ResumeToken: "resume-np"},
		})
		resolution, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "resume-np", resolution.ResumeToken)
	})

	t.Run("failed authentication surfaces as payment failure", func(t *testing.T) {
		resolver := NewThreeDSResolver(&stubChallengePresenter{
			result: application.ChallengeResult{AuthCode: application.ThreeDSAuthFailed},
		})
		_, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.Error(t, err)
		assert.True(t, domain.IsErrorKind(err, domain.ErrKindPaymentFailed))
	})

	t.Run("presenter failure surfaces as payment failure", func(t *testing.T) {
		resolver := NewThreeDSResolver(&stubChallengePresenter{err: errors.New("no UI attached")})
		_, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.Error(t, err)
		assert.True(t, domain.IsErrorKind(err, domain.ErrKindPaymentFailed))
	})
}

type stubMandatePresenter struct {
	shownText string
	dismissed bool
}

func (p *stubMandatePresenter) ShowMandate(ctx context.Context, mandateText string) error {
	p.shownText = mandateText
	return nil
}

func (p *stubMandatePresenter) Dismiss() { p.dismissed = true }

func TestMandateResolver(t *testing.T) {
	t.Run("accept resumes with the action token", func(t *testing.T) {
		presenter := &stubMandatePresenter{}
		resolver := NewMandateResolver(presenter)
		resolver.AcceptMandate()

		token := testhelpers.MakeClientToken(t, map[string]any{
			"accessToken": "mandate-access",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})
		resolution, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
			Name:        domain.ActionMandateAcceptance,
			ClientToken: token,
			MandateText: "I authorise the debit.",
		}, "pay-1")

		require.NoError(t, err)
		assert.Equal(t, "mandate-access", resolution.ResumeToken)
		assert.Equal(t, "I authorise the debit.", presenter.shownText)
		assert.True(t, presenter.dismissed)
	})

	t.Run("decline cancels the flow", func(t *testing.T) {
		resolver := NewMandateResolver(&stubMandatePresenter{})
		resolver.DeclineMandate()

		_, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
			Name:        domain.ActionMandateAcceptance,
			MandateText: "text",
		}, "pay-1")

		require.Error(t, err)
		assert.True(t, domain.IsErrorKind(err, domain.ErrKindCancelled))
	})
}

type stubCollector struct {
	result application.CollectorResult
	err    error
}

func (c *stubCollector) Collect(ctx context.Context, clientToken string) (<-chan application.CollectorResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	ch := make(chan application.CollectorResult, 1)
	ch <- c.result
	return ch, nil
}

func TestACHCollectorResolver(t *testing.T) {
	action := &domain.RequiredAction{Name: domain.ActionACHBankCollection, ClientToken: "tok-ach"}

	t.Run("collected account resumes", func(t *testing.T) {
		resolver := NewACHCollectorResolver(&stubCollector{
			result: application.CollectorResult{ResumeToken: "resume-ach"},
		})
		resolution, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "resume-ach", resolution.ResumeToken)
	})

	t.Run("collector error fails the payment", func(t *testing.T) {
		resolver := NewACHCollectorResolver(&stubCollector{
			result: application.CollectorResult{Err: errors.New("collection aborted")},
		})
		_, err := resolver.Resolve(context.Background(), action, "pay-1")
		require.Error(t, err)
		assert.True(t, domain.IsErrorKind(err, domain.ErrKindPaymentFailed))
	})
}

func TestQRCodeResolver_EmitsInfoThenPolls(t *testing.T) {
	gw := &testhelpers.MockGateway{
		PollStatusFn: testhelpers.ScriptedPolls(
			&application.PollResponse{Status: application.PollPending},
			&application.PollResponse{Status: application.PollComplete, ID: "resume-qr"},
		),
	}
	var emitted []application.AdditionalInfo
	resolver := NewQRCodeResolver(gw, func(info application.AdditionalInfo) {
		emitted = append(emitted, info)
	}, fastPolling(), discardLogger())

	token := testhelpers.MakeClientToken(t, map[string]any{
		"redirectUrl": "https://pay.example/qr/img.png",
		"statusUrl":   "https://api.example/status/st-qr",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	resolution, err := resolver.Resolve(context.Background(), &domain.RequiredAction{
		Name:        domain.ActionQRCode,
		ClientToken: token,
		Description: "Scan to pay",
	}, "pay-1")

	require.NoError(t, err)
	assert.Equal(t, "resume-qr", resolution.ResumeToken)
	require.Len(t, emitted, 1)
	assert.Equal(t, "QR_CODE", emitted[0].Kind)
	assert.Equal(t, "https://pay.example/qr/img.png", emitted[0].QRCode)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	redirect := NewRedirectResolver(&testhelpers.MockGateway{}, &testhelpers.NoopRedirectPresenter{}, fastPolling(), discardLogger())
	registry.Register(domain.ActionWebRedirect, redirect)

	got, err := registry.For(domain.ActionWebRedirect)
	require.NoError(t, err)
	assert.Same(t, redirect, got.(*RedirectResolver))

	_, err = registry.For(domain.ActionQRCode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QR_CODE")
}
