package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client-token decode failures.
var (
	ErrClientTokenMissing   = errors.New("client token is not set")
	ErrClientTokenMalformed = errors.New("client token is not a three-segment token")
	ErrClientTokenExpired   = errors.New("client token has expired")
)

// ClientTokenClaims carries the routing and scoping data embedded in the
// middle segment of a client token. The token is issued and signed by the
// backend; the SDK only reads it, so signature verification stays server-side.
type ClientTokenClaims struct {
	jwt.RegisteredClaims

	AccessToken      string `json:"accessToken"`
	AnalyticsURL     string `json:"analyticsUrl,omitempty"`
	ConfigurationURL string `json:"configurationUrl"`
	CoreURL          string `json:"coreUrl"`
	PciURL           string `json:"pciUrl"`
	StatusURL        string `json:"statusUrl,omitempty"`
	RedirectURL      string `json:"redirectUrl,omitempty"`
	Env              string `json:"env"`
	Intent           string `json:"intent,omitempty"`
}

// ClientToken is the decoded form of the opaque credential scoping one
// checkout attempt. Immutable once decoded; superseded wholesale when a
// required action supplies a new token.
type ClientToken struct {
	Raw    string
	Claims ClientTokenClaims
}

// DecodeClientToken parses a JWT-shaped client token without verifying its
// signature and validates the surface we depend on.
func DecodeClientToken(raw string) (*ClientToken, error) {
	if raw == "" {
		return nil, ErrClientTokenMissing
	}
	if strings.Count(raw, ".") != 2 {
		return nil, ErrClientTokenMalformed
	}

	claims := &ClientTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientTokenMalformed, err)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		return nil, ErrClientTokenExpired
	}
	if claims.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token claim", ErrClientTokenMalformed)
	}

	return &ClientToken{Raw: raw, Claims: *claims}, nil
}
