package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/gorilla/mux"
)

// LayoverHandler manages a user's travel windows.
type LayoverHandler struct {
	Service *services.LayoverService
}

func NewLayoverHandler(service *services.LayoverService) *LayoverHandler {
	return &LayoverHandler{Service: service}
}

type layoverPayload struct {
	City         string    `json:"city"`
	Area         string    `json:"area"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Discoverable bool      `json:"discoverable"`
	Notes        string    `json:"notes"`
}

func (p layoverPayload) toInput() services.CreateLayoverInput {
	return services.CreateLayoverInput{
		City:         p.City,
		Area:         p.Area,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Discoverable: p.Discoverable,
		Notes:        p.Notes,
	}
}

func (h *LayoverHandler) CreateLayoverHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var body layoverPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	created, err := h.Service.CreateLayover(r.Context(), caller, body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"userID":    caller.Hex(),
		"layoverID": created.ID.Hex(),
	}).Info("Layover published")
	writeJSON(w, http.StatusCreated, created)
}

func (h *LayoverHandler) ListLayoversHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	layovers, err := h.Service.ListLayovers(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layovers)
}

func (h *LayoverHandler) UpdateLayoverHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	layoverID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body layoverPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.UpdateLayover(r.Context(), caller, layoverID, body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LayoverHandler) SetDiscoverableHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	layoverID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body struct {
		Discoverable bool `json:"discoverable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.SetDiscoverable(r.Context(), caller, layoverID, body.Discoverable)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LayoverHandler) DeleteLayoverHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	layoverID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.DeleteLayover(r.Context(), caller, layoverID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Layover deleted"})
}
