package handlers

import (
	"net/http"

	"rentease/internal/models"
	"rentease/internal/services"
)

type RentedUnitHandler struct {
	Service *services.RentedUnitService
}

func NewRentedUnitHandler(s *services.RentedUnitService) *RentedUnitHandler {
	return &RentedUnitHandler{Service: s}
}

// CreateRentedUnit books a room for the calling renter and returns the
// checkout details of the payment intent opened for it.
func (h *RentedUnitHandler) CreateRentedUnit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Kind != models.PrincipalRenter {
		writeError(w, models.ErrForbidden)
		return
	}
	var req models.RentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.RenterID = p.ID

	out, err := h.Service.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *RentedUnitHandler) GetRentedUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *RentedUnitHandler) GetRentedUnitByID(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *RentedUnitHandler) GetRentedUnitsByRenter(w http.ResponseWriter, r *http.Request) {
	renterID, err := intParam(r, "renterId")
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := h.Service.ListByRenter(r.Context(), renterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *RentedUnitHandler) GetRentedUnitsByRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := intParam(r, "roomId")
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := h.Service.ListByRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *RentedUnitHandler) DeleteRentedUnit(w http.ResponseWriter, r *http.Request) {
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

func (h *RentedUnitHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.InitiatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	checkout, err := h.Service.InitiatePayment(r.Context(), req.RoomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkout)
}
