package handlers

import (
	"fmt"
	"io"
	"net/http"

	"rentease/internal/models"
	"rentease/internal/services"
)

const signatureHeader = "Paymongo-Signature"

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(s *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req models.IntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pi, err := h.Service.CreateIntent(r.Context(), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pi)
}

func (h *PaymentHandler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pm, err := h.Service.CreateMethod(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

func (h *PaymentHandler) AttachIntent(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "id")
	if id == "" {
		writeError(w, fmt.Errorf("%w: missing intent id", models.ErrValidation))
		return
	}
	var req models.AttachRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pi, err := h.Service.AttachIntent(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

func (h *PaymentHandler) RetrieveIntent(w http.ResponseWriter, r *http.Request) {
	pi, err := h.Service.RetrieveIntent(r.Context(), getParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

func (h *PaymentHandler) SavePayment(w http.ResponseWriter, r *http.Request) {
	var req models.SavePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Service.SavePayment(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) GetByIntentID(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "paymentIntentId")
	if id == "" {
		writeError(w, fmt.Errorf("%w: missing payment intent id", models.ErrValidation))
		return
	}
	p, err := h.Service.GetByIntentID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Webhook receives gateway events. The raw body is needed for the signature
// check, so it is read before any decoding.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %v", models.ErrValidation, err))
		return
	}
	if err := h.Service.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
