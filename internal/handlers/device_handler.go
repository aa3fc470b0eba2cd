package handlers

import (
	"net/http"

	"rentease/internal/models"
	"rentease/internal/services"
)

type DeviceHandler struct {
	Service *services.PushService
}

func NewDeviceHandler(s *services.PushService) *DeviceHandler {
	return &DeviceHandler{Service: s}
}

// RegisterDevice stores an FCM token for the caller.
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req models.DeviceToken
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Principal = p
	if err := h.Service.RegisterDevice(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
