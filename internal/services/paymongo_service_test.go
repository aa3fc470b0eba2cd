package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentease/internal/models"
)

func newTestPayMongo(t *testing.T, h http.HandlerFunc) *PayMongoService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc, err := NewPayMongoService(PayMongoConfig{SecretKey: "sk_test", BaseURL: srv.URL + "/v1", Client: srv.Client()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPayMongoCreateIntent(t *testing.T) {
	var got map[string]any
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test:"))
		if r.Header.Get("Authorization") != want {
			t.Errorf("authorization mismatch: %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"id":"pi_1","attributes":{
            "amount":500000,"currency":"PHP","status":"awaiting_payment_method",
            "client_key":"pi_1_key","payment_method_allowed":["gcash"],
            "next_action":{"type":"redirect","redirect":{"url":"https://pm.test/redirect"}}}}}`)
	})

	pi, err := svc.CreateIntent(context.Background(), 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.ID != "pi_1" || pi.ClientKey != "pi_1_key" {
		t.Errorf("intent mismatch: %+v", pi)
	}
	if pi.CheckoutURL != "https://pm.test/redirect" {
		t.Errorf("checkout url mismatch: %q", pi.CheckoutURL)
	}

	attrs := got["data"].(map[string]any)["attributes"].(map[string]any)
	if attrs["amount"].(float64) != 500000 {
		t.Errorf("amount not converted to centavos: %v", attrs["amount"])
	}
	if attrs["currency"] != "PHP" {
		t.Errorf("currency mismatch: %v", attrs["currency"])
	}
	if attrs["description"] != "RentEase Payment" || attrs["statement_descriptor"] != "RentEase" {
		t.Errorf("descriptor mismatch: %v", attrs)
	}
	methods := attrs["payment_method_allowed"].([]any)
	if len(methods) != 1 || methods[0] != "gcash" {
		t.Errorf("allowed methods mismatch: %v", methods)
	}
}

func TestPayMongoCreateIntent_CheckoutURLFallback(t *testing.T) {
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":"pi_2","attributes":{"client_key":"k","checkout_url":"https://pm.test/checkout"}}}`)
	})
	pi, err := svc.CreateIntent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.CheckoutURL != "https://pm.test/checkout" {
		t.Errorf("checkout url mismatch: %q", pi.CheckoutURL)
	}
}

func TestPayMongoCreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("gateway should not be called")
	})
	if _, err := svc.CreateIntent(context.Background(), 0); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPayMongoErrorResponse(t *testing.T) {
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"errors":[{"code":"parameter_invalid"}]}`)
	})
	_, err := svc.RetrieveIntent(context.Background(), "pi_1")
	pmErr, ok := IsPayMongoError(err)
	if !ok {
		t.Fatalf("expected PayMongoError, got %v", err)
	}
	if pmErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status mismatch: %d", pmErr.StatusCode)
	}
	if !errors.Is(err, models.ErrExternalService) {
		t.Errorf("expected external service error")
	}
}

func TestPayMongoMalformedBody(t *testing.T) {
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	_, err := svc.RetrieveIntent(context.Background(), "pi_1")
	if !errors.Is(err, models.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if _, ok := IsPayMongoError(err); ok {
		t.Errorf("decode failure should not carry an HTTP status")
	}
}

func TestPayMongoAttachAndMethod(t *testing.T) {
	svc := newTestPayMongo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_intents/pi_1/attach":
			_, _ = io.WriteString(w, `{"data":{"id":"pi_1","attributes":{"status":"awaiting_next_action","client_key":"k"}}}`)
		case "/v1/payment_methods":
			_, _ = io.WriteString(w, `{"data":{"id":"pm_1","attributes":{"type":"gcash"}}}`)
		default:
			http.NotFound(w, r)
		}
	})

	pi, err := svc.AttachIntent(context.Background(), "pi_1", models.AttachRequest{PaymentMethod: "pm_1", ClientKey: "k"})
	if err != nil || pi.Status != "awaiting_next_action" {
		t.Fatalf("attach: %+v %v", pi, err)
	}
	pm, err := svc.CreateMethod(context.Background(), models.PaymentMethodRequest{Type: "gcash", Name: "A", Email: "a@b.c", Phone: "1"})
	if err != nil || pm.ID != "pm_1" || pm.Type != "gcash" {
		t.Fatalf("method: %+v %v", pm, err)
	}
}

func TestNewPayMongoServiceRequiresSecret(t *testing.T) {
	if _, err := NewPayMongoService(PayMongoConfig{}); err == nil {
		t.Fatal("expected error without secret key")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"data":{"id":"evt"}}`)
	live := sign("secret", "123", body)

	if err := VerifyWebhookSignature("t=123,te=,li="+live, body, "secret"); err != nil {
		t.Errorf("live signature rejected: %v", err)
	}
	if err := VerifyWebhookSignature("t=123,te="+live, body, "secret"); err != nil {
		t.Errorf("test signature rejected: %v", err)
	}
	if err := VerifyWebhookSignature("t=124,li="+live, body, "secret"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("timestamp change accepted: %v", err)
	}
	if err := VerifyWebhookSignature("t=123,li="+live, []byte(`{}`), "secret"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("body change accepted: %v", err)
	}
	if err := VerifyWebhookSignature("garbage", body, "secret"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("malformed header accepted: %v", err)
	}
}
