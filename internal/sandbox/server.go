// Package sandbox is an in-memory stand-in for the payment backend. It
// serves every endpoint the gateway client talks to and drives outcomes off
// well-known test card numbers, so a full checkout can run without any real
// processor.
package sandbox

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Well-known test cards and the outcome each one forces.
const (
	CardSuccess  = "4111111111111111"
	CardDeclined = "4000000000000002"
	CardThreeDS  = "4000000000003220"
	CardRedirect = "4000000000007777"
)

// Redirect flows report pending this many times before completing.
const defaultPollsUntilComplete = 2

var signingKey = []byte("sandbox-signing-key")

type Server struct {
	store   *store
	logger  *slog.Logger
	baseURL string
	router  *mux.Router
}

// New builds the sandbox handler. baseURL must be the externally reachable
// address of this server; issued client tokens embed URLs under it.
func New(baseURL string, logger *slog.Logger) *Server {
	s := &Server{
		store:   newStore(),
		logger:  logger,
		baseURL: baseURL,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/client-session", s.handleClientSession).Methods(http.MethodPost)
	s.router.HandleFunc("/configuration", s.handleConfiguration).Methods(http.MethodGet)
	s.router.HandleFunc("/payment-instruments", s.handleTokenize).Methods(http.MethodPost)
	s.router.HandleFunc("/payments", s.handleCreatePayment).Methods(http.MethodPost)
	s.router.HandleFunc("/payments/{id}/resume", s.handleResume).Methods(http.MethodPost)
	s.router.HandleFunc("/status/{id}", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/banks", s.handleBanks).Methods(http.MethodGet)
	s.router.HandleFunc("/payment-instruments/vault", s.handleVaultList).Methods(http.MethodGet)
	s.router.HandleFunc("/payment-instruments/vault/{id}", s.handleVaultDelete).Methods(http.MethodDelete)
}

// tokenClaims is the payload of every client token the sandbox mints.
type tokenClaims struct {
	jwt.RegisteredClaims

	AccessToken      string `json:"accessToken"`
	ConfigurationURL string `json:"configurationUrl,omitempty"`
	CoreURL          string `json:"coreUrl,omitempty"`
	PciURL           string `json:"pciUrl,omitempty"`
	StatusURL        string `json:"statusUrl,omitempty"`
	RedirectURL      string `json:"redirectUrl,omitempty"`
	Env              string `json:"env"`
	Intent           string `json:"intent,omitempty"`
}

func (s *Server) mintToken(claims tokenClaims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	claims.Issuer = "sandbox"
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func (s *Server) handleClientSession(w http.ResponseWriter, r *http.Request) {
	accessToken := "access_" + uuid.NewString()
	s.store.addSession(accessToken)

	token, err := s.mintToken(tokenClaims{
		AccessToken:      accessToken,
		ConfigurationURL: s.baseURL + "/configuration",
		CoreURL:          s.baseURL,
		PciURL:           s.baseURL,
		Env:              "SANDBOX",
		Intent:           "CHECKOUT",
	})
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "TOKEN_MINT_FAILED", err.Error())
		return
	}

	s.logger.Info("client session issued")
	s.respond(w, http.StatusOK, map[string]string{"clientToken": token})
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"coreUrl": s.baseURL,
		"pciUrl":  s.baseURL,
		"paymentMethods": []map[string]any{
			{"type": "PAYMENT_CARD", "implementationType": "NATIVE_SDK", "displayName": "Card"},
			{"type": "PAYPAL", "implementationType": "NATIVE_SDK", "displayName": "PayPal"},
			{"type": "APPLE_PAY", "implementationType": "NATIVE_SDK", "displayName": "Apple Pay", "applePayMerchantId": "merchant.example.sandbox"},
			{"type": "BANK_REDIRECT", "implementationType": "WEB_REDIRECT", "displayName": "Bank transfer"},
			{"type": "ACH", "implementationType": "NATIVE_SDK", "displayName": "ACH", "achCompanyName": "Example Inc"},
		},
	})
}

type tokenizePayload struct {
	InstrumentType string `json:"instrumentType"`
	TokenType      string `json:"tokenType"`
	Card           *struct {
		Number string `json:"number"`
	} `json:"card"`
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	var payload tokenizePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.fail(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable tokenization payload")
		return
	}

	token := "tok_" + uuid.NewString()
	in := instrument{Kind: payload.InstrumentType}
	if payload.Card != nil {
		in.CardNumber = payload.Card.Number
	}
	s.store.saveInstrument(token, in)

	s.logger.Info("instrument tokenized", "instrument", payload.InstrumentType)
	s.respond(w, http.StatusOK, map[string]any{
		"token":          token,
		"tokenType":      payload.TokenType,
		"instrumentType": payload.InstrumentType,
		"analyticsId":    uuid.NewString(),
	})
}

type createPaymentPayload struct {
	PaymentMethodToken string `json:"paymentMethodToken"`
	CVV                string `json:"cvv"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	var payload createPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.fail(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable payment payload")
		return
	}

	record := &paymentRecord{
		ID:       "pay_" + uuid.NewString(),
		OrderID:  "order_" + uuid.NewString(),
		Amount:   4999,
		Currency: "EUR",
	}

	in, _ := s.store.instrumentFor(payload.PaymentMethodToken)
	var action map[string]any

	switch {
	case in.CardNumber == CardDeclined:
		record.Status = "DECLINED"
		record.FailureReason = "card_declined"

	case in.CardNumber == CardThreeDS:
		record.Status = "PENDING"
		record.ResumeToken = "resume_" + uuid.NewString()
		threeDSToken, err := s.mintToken(tokenClaims{
			AccessToken: record.ResumeToken,
			Env:         "SANDBOX",
			Intent:      "3DS_AUTHENTICATION",
		})
		if err != nil {
			s.fail(w, http.StatusInternalServerError, "TOKEN_MINT_FAILED", err.Error())
			return
		}
		action = map[string]any{
			"name":        "3DS_AUTHENTICATION",
			"description": "Authenticate with your bank",
			"clientToken": threeDSToken,
		}

	case in.CardNumber == CardRedirect || in.Kind == "BANK_REDIRECT":
		record.Status = "PENDING"
		record.StatusID = "st_" + uuid.NewString()
		record.ResumeToken = "resume_" + uuid.NewString()
		record.PollsRemaining = defaultPollsUntilComplete
		redirectToken, err := s.mintToken(tokenClaims{
			AccessToken: record.ResumeToken,
			RedirectURL: s.baseURL + "/hosted/" + record.StatusID,
			StatusURL:   s.baseURL + "/status/" + record.StatusID,
			Env:         "SANDBOX",
			Intent:      "WEB_REDIRECT",
		})
		if err != nil {
			s.fail(w, http.StatusInternalServerError, "TOKEN_MINT_FAILED", err.Error())
			return
		}
		action = map[string]any{
			"name":        "WEB_REDIRECT",
			"description": "Complete the payment with your bank",
			"clientToken": redirectToken,
		}

	default:
		record.Status = "SUCCESS"
	}

	s.store.savePayment(record)
	s.logger.Info("payment created",
		"payment_id", record.ID,
		"status", record.Status,
		"idempotency_key", r.Header.Get("Idempotency-Key"))
	s.respondPayment(w, record, action)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	var payload struct {
		ResumeToken string `json:"resumeToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.fail(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable resume payload")
		return
	}

	id := mux.Vars(r)["id"]
	if _, ok := s.store.payment(id); !ok {
		s.fail(w, http.StatusNotFound, "NOT_FOUND", "unknown payment")
		return
	}
	record, ok := s.store.completePayment(id, payload.ResumeToken)
	if !ok {
		s.fail(w, http.StatusConflict, "RESUME_REJECTED", "resume token does not match")
		return
	}

	s.logger.Info("payment resumed", "payment_id", record.ID)
	s.respondPayment(w, record, nil)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statusID := mux.Vars(r)["id"]
	done, resumeToken, ok := s.store.poll(statusID)
	if !ok {
		s.fail(w, http.StatusNotFound, "NOT_FOUND", "unknown status id")
		return
	}
	if !done {
		s.respond(w, http.StatusOK, map[string]string{"status": "PENDING", "source": "sandbox"})
		return
	}
	s.respond(w, http.StatusOK, map[string]string{
		"status": "COMPLETE",
		"id":     resumeToken,
		"source": "sandbox",
	})
}

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"banks": []map[string]string{
			{"id": "bank_ing", "name": "ING", "logoUrl": s.baseURL + "/logos/ing.png"},
			{"id": "bank_rabo", "name": "Rabobank", "logoUrl": s.baseURL + "/logos/rabo.png"},
			{"id": "bank_abn", "name": "ABN AMRO", "logoUrl": s.baseURL + "/logos/abn.png"},
		},
	})
}

func (s *Server) handleVaultList(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	entries := s.store.vaultedMethods()
	data := make([]map[string]any, 0, len(entries))
	for _, v := range entries {
		data = append(data, map[string]any{
			"id":                v.ID,
			"paymentMethodType": v.Type,
			"description":       v.Description,
			"cvvLength":         v.CVVLength,
		})
	}
	s.respond(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleVaultDelete(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown client token")
		return
	}
	if !s.store.deleteVaulted(mux.Vars(r)["id"]) {
		s.fail(w, http.StatusNotFound, "NOT_FOUND", "unknown vaulted method")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorized(r *http.Request) bool {
	token := r.Header.Get("X-Client-Token")
	// Resume tokens double as credentials on the follow-up calls a required
	// action triggers.
	return token != "" && (s.store.knownSession(token) || strings.HasPrefix(token, "resume_"))
}

func (s *Server) respondPayment(w http.ResponseWriter, record *paymentRecord, action map[string]any) {
	body := map[string]any{
		"id":           record.ID,
		"orderId":      record.OrderID,
		"amount":       record.Amount,
		"currencyCode": record.Currency,
		"status":       record.Status,
	}
	if record.FailureReason != "" {
		body["paymentFailureReason"] = record.FailureReason
	}
	if action != nil {
		body["requiredAction"] = action
	}
	s.respond(w, http.StatusOK, body)
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, code, message string) {
	s.respond(w, status, map[string]string{"error": code, "message": message})
}
