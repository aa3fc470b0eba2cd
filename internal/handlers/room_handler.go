package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"rentease/internal/models"
	"rentease/internal/services"
)

type RoomHandler struct {
	Service *services.RoomService
}

func NewRoomHandler(s *services.RoomService) *RoomHandler {
	return &RoomHandler{Service: s}
}

// readRoom accepts either a JSON body or a multipart form with the room as
// JSON in the "room" field and files under "images".
func readRoom(r *http.Request) (models.Room, []models.Upload, error) {
	var room models.Room
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := decodeJSON(r, &room); err != nil {
			return models.Room{}, nil, err
		}
		return room, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return models.Room{}, nil, fmt.Errorf("%w: invalid multipart form: %v", models.ErrValidation, err)
	}
	raw := r.FormValue("room")
	if raw == "" {
		return models.Room{}, nil, fmt.Errorf("%w: missing room field", models.ErrValidation)
	}
	if err := json.Unmarshal([]byte(raw), &room); err != nil {
		return models.Room{}, nil, fmt.Errorf("%w: invalid room JSON: %v", models.ErrValidation, err)
	}
	if err := validateStruct(&room); err != nil {
		return models.Room{}, nil, err
	}
	uploads, err := readUploads(r.MultipartForm, "images", "images[]")
	if err != nil {
		return models.Room{}, nil, err
	}
	return room, uploads, nil
}

func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	room, uploads, err := readRoom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.Service.Create(r.Context(), room, uploads, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RoomHandler) GetRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Service.List(r.Context(), normalizeRoomStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) GetRoomByID(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "roomId")
	if err != nil {
		writeError(w, err)
		return
	}
	room, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := intParam(r, "roomId")
	if err != nil {
		writeError(w, err)
		return
	}
	room, uploads, err := readRoom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.Service.Update(r.Context(), id, room, uploads, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := intParam(r, "roomId")
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

func (h *RoomHandler) GetRoomsByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := intParam(r, "ownerId")
	if err != nil {
		writeError(w, err)
		return
	}
	rooms, err := h.Service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) GetUnavailableRooms(w http.ResponseWriter, r *http.Request) {
	ownerID, err := intParam(r, "ownerId")
	if err != nil {
		writeError(w, err)
		return
	}
	rooms, err := h.Service.ListUnavailableByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) GetRoomStats(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ownerID, err := intParam(r, "ownerId")
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.Service.Stats(r.Context(), ownerID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *RoomHandler) UpdateRoomStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := intParam(r, "roomId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req models.RoomStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.Service.UpdateStatus(r.Context(), id, req.Status, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
