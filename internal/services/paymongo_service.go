package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"rentease/internal/models"
)

const defaultPayMongoBaseURL = "https://api.paymongo.com/v1"

type PayMongoConfig struct {
	SecretKey string

	// Example: https://api.paymongo.com/v1
	BaseURL string

	Currency            string
	AllowedMethods      []string
	Description         string
	StatementDescriptor string

	Client *http.Client
	Logger *slog.Logger
}

// PayMongoService talks to the PayMongo payment-intent API. It never retries.
type PayMongoService struct {
	authHeader string
	baseURL    *url.URL

	currency            string
	allowedMethods      []string
	description         string
	statementDescriptor string

	httpClient *http.Client
	logger     *slog.Logger
}

// PayMongoError is returned for non-2xx responses.
type PayMongoError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *PayMongoError) Error() string {
	return fmt.Sprintf("paymongo: %s: %s", e.Status, trim(e.Body, 300))
}

// Unwrap lets callers match gateway failures as external-service errors.
func (e *PayMongoError) Unwrap() error { return models.ErrExternalService }

func NewPayMongoService(cfg PayMongoConfig) (*PayMongoService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("paymongo: secret_key is required")
	}
	base := cfg.BaseURL
	if strings.TrimSpace(base) == "" {
		base = defaultPayMongoBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	s := &PayMongoService{
		authHeader:          "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		baseURL:             u,
		currency:            valueOr(cfg.Currency, "PHP"),
		allowedMethods:      cfg.AllowedMethods,
		description:         valueOr(cfg.Description, "RentEase Payment"),
		statementDescriptor: valueOr(cfg.StatementDescriptor, "RentEase"),
		httpClient:          client,
		logger:              logger,
	}
	if len(s.allowedMethods) == 0 {
		s.allowedMethods = []string{models.DefaultPaymentMethod}
	}
	logger.Info("PayMongo initialized", "baseURL", safeURL(s.baseURL), "currency", s.currency)
	return s, nil
}

type intentAttributes struct {
	Amount               int      `json:"amount"`
	Currency             string   `json:"currency"`
	PaymentMethodAllowed []string `json:"payment_method_allowed"`
	Description          string   `json:"description,omitempty"`
	StatementDescriptor  string   `json:"statement_descriptor,omitempty"`
	Status               string   `json:"status,omitempty"`
	ClientKey            string   `json:"client_key,omitempty"`
	CheckoutURL          string   `json:"checkout_url,omitempty"`
	NextAction           *struct {
		Type     string `json:"type"`
		Redirect struct {
			URL string `json:"url"`
		} `json:"redirect"`
	} `json:"next_action,omitempty"`
}

type intentEnvelope struct {
	Data struct {
		ID         string           `json:"id"`
		Type       string           `json:"type,omitempty"`
		Attributes intentAttributes `json:"attributes"`
	} `json:"data"`
}

func (e intentEnvelope) intent() models.PaymentIntent {
	a := e.Data.Attributes
	checkout := a.CheckoutURL
	if a.NextAction != nil && a.NextAction.Redirect.URL != "" {
		checkout = a.NextAction.Redirect.URL
	}
	return models.PaymentIntent{
		ID:                   e.Data.ID,
		ClientKey:            a.ClientKey,
		CheckoutURL:          checkout,
		Status:               a.Status,
		Amount:               a.Amount,
		Currency:             a.Currency,
		PaymentMethodAllowed: a.PaymentMethodAllowed,
	}
}

// CreateIntent opens a payment intent. amount is in whole currency units.
func (s *PayMongoService) CreateIntent(ctx context.Context, amount int) (models.PaymentIntent, error) {
	if amount <= 0 {
		return models.PaymentIntent{}, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	var req intentEnvelope
	req.Data.Attributes = intentAttributes{
		Amount:               amount * 100,
		Currency:             s.currency,
		PaymentMethodAllowed: s.allowedMethods,
		Description:          s.description,
		StatementDescriptor:  s.statementDescriptor,
	}
	var resp intentEnvelope
	if err := s.do(ctx, http.MethodPost, "/payment_intents", req, &resp); err != nil {
		return models.PaymentIntent{}, err
	}
	if resp.Data.ID == "" || resp.Data.Attributes.ClientKey == "" {
		return models.PaymentIntent{}, fmt.Errorf("%w: paymongo: intent response without id or client_key", models.ErrExternalService)
	}
	s.logger.Info("PayMongo intent created", "intentID", resp.Data.ID, "amount", amount)
	return resp.intent(), nil
}

func (s *PayMongoService) RetrieveIntent(ctx context.Context, id string) (models.PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return models.PaymentIntent{}, fmt.Errorf("%w: intent id is required", models.ErrValidation)
	}
	var resp intentEnvelope
	if err := s.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil, &resp); err != nil {
		return models.PaymentIntent{}, err
	}
	if resp.Data.ID == "" || resp.Data.Attributes.Status == "" {
		return models.PaymentIntent{}, fmt.Errorf("%w: paymongo: malformed intent %q", models.ErrExternalService, id)
	}
	return resp.intent(), nil
}

func (s *PayMongoService) AttachIntent(ctx context.Context, id string, req models.AttachRequest) (models.PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return models.PaymentIntent{}, fmt.Errorf("%w: intent id is required", models.ErrValidation)
	}
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"payment_method": req.PaymentMethod,
				"client_key":     req.ClientKey,
				"return_url":     req.ReturnURL,
			},
		},
	}
	var resp intentEnvelope
	if err := s.do(ctx, http.MethodPost, "/payment_intents/"+url.PathEscape(id)+"/attach", body, &resp); err != nil {
		return models.PaymentIntent{}, err
	}
	return resp.intent(), nil
}

func (s *PayMongoService) CreateMethod(ctx context.Context, req models.PaymentMethodRequest) (models.PaymentMethod, error) {
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"type": req.Type,
				"billing": map[string]string{
					"name":  req.Name,
					"email": req.Email,
					"phone": req.Phone,
				},
			},
		},
	}
	var resp struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				Type string `json:"type"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := s.do(ctx, http.MethodPost, "/payment_methods", body, &resp); err != nil {
		return models.PaymentMethod{}, err
	}
	if resp.Data.ID == "" {
		return models.PaymentMethod{}, fmt.Errorf("%w: paymongo: payment method response without id", models.ErrExternalService)
	}
	return models.PaymentMethod{ID: resp.Data.ID, Type: resp.Data.Attributes.Type}, nil
}

func (s *PayMongoService) do(ctx context.Context, method, p string, in, out any) error {
	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, p)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("paymongo: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("paymongo: build request: %w", err)
	}
	req.Header.Set("Authorization", s.authHeader)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("PayMongo request failed", "method", method, "path", p, "err", err)
		return fmt.Errorf("%w: paymongo %s %s: %v", models.ErrExternalService, method, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: paymongo: read response: %v", models.ErrExternalService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("PayMongo non-2xx", "method", method, "path", p, "status", resp.StatusCode, "body", trim(string(raw), 500))
		return &PayMongoError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: paymongo: decode response: %v", models.ErrExternalService, err)
	}
	return nil
}

// IsPayMongoError reports whether err carries a gateway HTTP status.
func IsPayMongoError(err error) (*PayMongoError, bool) {
	var pmErr *PayMongoError
	if errors.As(err, &pmErr) {
		return pmErr, true
	}
	return nil, false
}

func trim(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func safeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
