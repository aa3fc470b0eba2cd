package handlers

import (
	"net/http"

	"rentease/internal/models"
	"rentease/internal/services"
)

type PaymentReminderHandler struct {
	Service *services.PaymentReminderService
}

func NewPaymentReminderHandler(s *services.PaymentReminderService) *PaymentReminderHandler {
	return &PaymentReminderHandler{Service: s}
}

func (h *PaymentReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req models.PaymentReminder
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.Service.Create(r.Context(), req, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PaymentReminderHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PaymentReminderHandler) GetReminderByID(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	rem, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *PaymentReminderHandler) GetRemindersByRenter(w http.ResponseWriter, r *http.Request) {
	renterID, err := intParam(r, "renterId")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.Service.ListByRenter(r.Context(), renterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PaymentReminderHandler) GetRemindersByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := intParam(r, "ownerId")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.Service.GetByOwnerID(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PaymentReminderHandler) GetRemindersByRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := intParam(r, "roomId")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.Service.ListByRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PaymentReminderHandler) DecideReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req models.ApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rem, err := h.Service.Decide(r.Context(), id, req.Status, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *PaymentReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id, p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
