package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentease/internal/models"
	"rentease/internal/services"
)

func TestPayMongoErrorStatus(t *testing.T) {
	t.Run("propagates 4xx", func(t *testing.T) {
		status := payMongoErrorStatus(&services.PayMongoError{StatusCode: http.StatusNotFound})
		if status != http.StatusNotFound {
			t.Fatalf("expected %d, got %d", http.StatusNotFound, status)
		}
	})

	t.Run("defaults otherwise", func(t *testing.T) {
		status := payMongoErrorStatus(errors.New("generic error"))
		if status != http.StatusBadGateway {
			t.Fatalf("expected %d, got %d", http.StatusBadGateway, status)
		}

		status = payMongoErrorStatus(&services.PayMongoError{StatusCode: http.StatusInternalServerError})
		if status != http.StatusBadGateway {
			t.Fatalf("expected %d, got %d", http.StatusBadGateway, status)
		}
	})
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad date", models.ErrValidation), http.StatusBadRequest},
		{models.ErrInvalidCredentials, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrRoomNotFound, http.StatusNotFound},
		{models.ErrDuplicateUsername, http.StatusConflict},
		{fmt.Errorf("%w: timeout", models.ErrExternalService), http.StatusBadGateway},
		{&services.PayMongoError{StatusCode: http.StatusUnprocessableEntity}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("dial tcp 10.0.0.1:3306: refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(body["error"], "10.0.0.1") {
		t.Errorf("internal error leaked: %q", body["error"])
	}
}

func TestDecodeJSONValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"approvalStatus":"maybe"}`))
	var dst models.ApprovalRequest
	if err := decodeJSON(req, &dst); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"approvalStatus":"approved"}`))
	if err := decodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Status != models.ApprovalApproved {
		t.Errorf("status mismatch: %q", dst.Status)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := decodeJSON(req, &dst); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for broken JSON, got %v", err)
	}
}

func TestIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rooms/12?:roomId=12", nil)
	id, err := intParam(req, "roomId")
	if err != nil || id != 12 {
		t.Fatalf("expected 12, got %d %v", id, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/rooms/x?:roomId=x", nil)
	if _, err := intParam(req, "roomId"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/rooms", nil)
	if _, err := intParam(req, "roomId"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
