package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler exposes plan creation, membership and itinerary editing.
type PlanHandler struct {
	Service *services.PlanService
}

func NewPlanHandler(service *services.PlanService) *PlanHandler {
	return &PlanHandler{Service: service}
}

func (h *PlanHandler) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		Title         string    `json:"title"`
		City          string    `json:"city"`
		Area          string    `json:"area"`
		Visibility    string    `json:"visibility"`
		Mode          string    `json:"mode"`
		SpotID        string    `json:"spot_id"`
		SpotName      string    `json:"spot_name"`
		ScheduledTime time.Time `json:"scheduled_time"`
		Stops         []struct {
			SpotID        string    `json:"spot_id"`
			SpotName      string    `json:"spot_name"`
			ScheduledTime time.Time `json:"scheduled_time"`
		} `json:"stops"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	in := services.CreatePlanInput{
		Title:         body.Title,
		City:          body.City,
		Area:          body.Area,
		Visibility:    body.Visibility,
		Mode:          body.Mode,
		SpotID:        body.SpotID,
		SpotName:      body.SpotName,
		ScheduledTime: body.ScheduledTime,
	}
	for _, stop := range body.Stops {
		in.Stops = append(in.Stops, services.StopInput{
			SpotID:        stop.SpotID,
			SpotName:      stop.SpotName,
			ScheduledTime: stop.ScheduledTime,
		})
	}

	created, err := h.Service.CreatePlan(r.Context(), caller, in)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"planID": created.ID.Hex(),
		"host":   caller.Hex(),
	}).Info("Plan created")
	writeJSON(w, http.StatusCreated, created)
}

func (h *PlanHandler) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	plans, err := h.Service.ListPlansForCity(r.Context(), caller, r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	plan, err := h.Service.GetPlan(r.Context(), caller, planID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) JoinPlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body struct {
		RSVPStatus     string   `json:"rsvp_status"`
		StopsAttending []string `json:"stops_attending"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if body.RSVPStatus == "" {
		body.RSVPStatus = "going"
	}

	stops := make([]primitive.ObjectID, 0, len(body.StopsAttending))
	for _, raw := range body.StopsAttending {
		stopID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid stop id", http.StatusBadRequest)
			return
		}
		stops = append(stops, stopID)
	}

	plan, err := h.Service.JoinPlan(r.Context(), caller, planID, body.RSVPStatus, stops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) LeavePlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	plan, err := h.Service.LeavePlan(r.Context(), caller, planID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) CancelPlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.CancelPlan(r.Context(), caller, planID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Plan canceled"})
}

func (h *PlanHandler) InviteToPlanHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.Service.InviteToPlan(r.Context(), caller, planID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation sent"})
}

func (h *PlanHandler) ReorderStopsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body struct {
		StopIDs []string `json:"stop_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	stopIDs := make([]primitive.ObjectID, 0, len(body.StopIDs))
	for _, raw := range body.StopIDs {
		stopID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid stop id", http.StatusBadRequest)
			return
		}
		stopIDs = append(stopIDs, stopID)
	}

	plan, err := h.Service.ReorderStops(r.Context(), caller, planID, stopIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) RemoveStopHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	planID, ok := pathID(w, vars["id"])
	if !ok {
		return
	}
	stopID, ok := pathID(w, vars["stopId"])
	if !ok {
		return
	}

	plan, err := h.Service.RemoveStop(r.Context(), caller, planID, stopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) ListAttendeesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	attendees, err := h.Service.ListAttendees(r.Context(), caller, planID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}
