package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/primer-io/checkout-go/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*gateway.HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	session := application.NewSession()
	session.Start(
		&domain.ClientToken{Claims: domain.ClientTokenClaims{
			AccessToken:      "access-token",
			ConfigurationURL: server.URL + "/client-sdk/configuration",
			CoreURL:          server.URL,
			PciURL:           server.URL,
		}},
		nil,
	)

	client := gateway.NewHTTPClient(config.GatewayConfig{ConnTimeout: 5 * time.Second}, session)
	return client, server
}

func TestCreatePayment(t *testing.T) {
	t.Run("decodes a successful payment and sends headers", func(t *testing.T) {
		var gotIdempotencyKey, gotClientToken string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/payments", r.URL.Path)
			gotIdempotencyKey = r.Header.Get("Idempotency-Key")
			gotClientToken = r.Header.Get("X-Client-Token")

			json.NewEncoder(w).Encode(map[string]any{
				"id":           "pay-1",
				"orderId":      "order-1",
				"amount":       4999,
				"currencyCode": "USD",
				"status":       "SUCCESS",
			})
		}))

		payment, err := client.CreatePayment(context.Background(), application.CreatePaymentRequest{
			PaymentMethodToken: "tok-1",
		}, "idem-1")
		require.NoError(t, err)

		assert.Equal(t, "pay-1", payment.ID)
		assert.Equal(t, "order-1", payment.OrderID)
		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, "idem-1", gotIdempotencyKey)
		assert.Equal(t, "access-token", gotClientToken)
	})

	t.Run("decodes a pending payment with required action", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":           "pay-2",
				"orderId":      "order-2",
				"amount":       4999,
				"currencyCode": "USD",
				"status":       "PENDING",
				"requiredAction": map[string]any{
					"name":        "WEB_REDIRECT",
					"clientToken": "a.b.c",
				},
			})
		}))

		payment, err := client.CreatePayment(context.Background(), application.CreatePaymentRequest{}, "")
		require.NoError(t, err)
		require.True(t, payment.RequiresAction())
		assert.Equal(t, domain.ActionWebRedirect, payment.RequiredAction.Name)
	})

	t.Run("rejects a pending payment without required action", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":           "pay-3",
				"orderId":      "order-3",
				"amount":       100,
				"currencyCode": "USD",
				"status":       "PENDING",
			})
		}))

		_, err := client.CreatePayment(context.Background(), application.CreatePaymentRequest{}, "")
		assert.ErrorIs(t, err, domain.ErrPendingWithoutAction)
	})

	t.Run("decodes structured gateway errors", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "invalid_token",
				"message": "token already consumed",
			})
		}))

		_, err := client.CreatePayment(context.Background(), application.CreatePaymentRequest{}, "")
		gwErr, ok := gateway.IsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, "invalid_token", gwErr.Code)
		assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
		assert.False(t, gwErr.IsRetryable())
	})
}

func TestPollStatus(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/resume-tokens/abc", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "COMPLETE",
			"id":     "resume-1",
			"source": "WEBHOOK",
		})
	}))

	resp, err := client.PollStatus(context.Background(), server.URL+"/resume-tokens/abc")
	require.NoError(t, err)
	assert.Equal(t, application.PollComplete, resp.Status)
	assert.Equal(t, "resume-1", resp.ID)
}

func TestFetchConfiguration(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/client-sdk/configuration", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"coreUrl": "https://core.example.com",
			"pciUrl":  "https://pci.example.com",
			"paymentMethods": []map[string]any{
				{"type": "PAYMENT_CARD", "implementationType": "NATIVE_SDK", "displayName": "Card"},
				{"type": "WEB_REDIRECT", "implementationType": "WEB_REDIRECT", "displayName": "Giropay", "surcharge": 50},
			},
		})
	}))
	_ = server

	cfg, err := client.FetchConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://core.example.com", cfg.CoreURL)
	require.Len(t, cfg.PaymentMethods, 2)

	card, ok := cfg.MethodConfig(domain.TypeCard)
	require.True(t, ok)
	assert.Equal(t, domain.ImplementationNative, card.Implementation)

	redirect, ok := cfg.MethodConfig(domain.TypeWebRedirect)
	require.True(t, ok)
	assert.Equal(t, int64(50), redirect.SurchargeMinor)
}

func TestVaultEndpoints(t *testing.T) {
	var deleted string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "vault-1", "paymentMethodType": "PAYMENT_CARD", "description": "Visa •••• 1111", "cvvLength": 3},
				},
			})
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	methods, err := client.FetchVaultedMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "vault-1", methods[0].ID)
	assert.Equal(t, 3, methods[0].CVVLength)

	require.NoError(t, client.DeleteVaultedMethod(context.Background(), "vault-1"))
	assert.Equal(t, "/payment-instruments/vault/vault-1", deleted)
}
