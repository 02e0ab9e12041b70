package domain_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeClientToken builds an unsigned JWT-shaped token for tests.
func makeClientToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func TestDecodeClientToken(t *testing.T) {
	t.Run("decodes routing claims", func(t *testing.T) {
		raw := makeClientToken(t, map[string]any{
			"accessToken":      "access-123",
			"configurationUrl": "https://api.sandbox.example.com/client-sdk/configuration",
			"coreUrl":          "https://api.sandbox.example.com",
			"pciUrl":           "https://sdk.sandbox.example.com",
			"statusUrl":        "https://api.sandbox.example.com/resume-tokens/abc",
			"redirectUrl":      "https://bank.example.com/redirect",
			"env":              "SANDBOX",
			"intent":           "CHECKOUT",
			"exp":              time.Now().Add(time.Hour).Unix(),
		})

		token, err := domain.DecodeClientToken(raw)
		require.NoError(t, err)
		assert.Equal(t, "access-123", token.Claims.AccessToken)
		assert.Equal(t, "SANDBOX", token.Claims.Env)
		assert.Equal(t, "https://api.sandbox.example.com", token.Claims.CoreURL)
		assert.Equal(t, "https://bank.example.com/redirect", token.Claims.RedirectURL)
		assert.Equal(t, raw, token.Raw)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		_, err := domain.DecodeClientToken("")
		assert.ErrorIs(t, err, domain.ErrClientTokenMissing)
	})

	t.Run("rejects token without three segments", func(t *testing.T) {
		_, err := domain.DecodeClientToken("not-a-token")
		assert.ErrorIs(t, err, domain.ErrClientTokenMalformed)
	})

	t.Run("rejects undecodable payload", func(t *testing.T) {
		_, err := domain.DecodeClientToken("aaa.%%%.ccc")
		assert.ErrorIs(t, err, domain.ErrClientTokenMalformed)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		raw := makeClientToken(t, map[string]any{
			"accessToken": "access-123",
			"exp":         time.Now().Add(-time.Minute).Unix(),
		})
		_, err := domain.DecodeClientToken(raw)
		assert.ErrorIs(t, err, domain.ErrClientTokenExpired)
	})

	t.Run("rejects token without access token claim", func(t *testing.T) {
		raw := makeClientToken(t, map[string]any{"env": "SANDBOX"})
		_, err := domain.DecodeClientToken(raw)
		assert.ErrorIs(t, err, domain.ErrClientTokenMalformed)
	})
}
