package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Arman334/CrewLink/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler serves the notification list, the aggregated badge
// count and the mark-read endpoint.
type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

func (h *NotificationHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	notifications, err := h.Service.ListNotifications(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// BadgeHandler: GET /notifications/badge returns the single aggregated
// unread total the client renders on the app icon.
func (h *NotificationHandler) BadgeHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	total, err := h.Service.AggregateUnreadCount(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": total})
}

func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ids := make([]primitive.ObjectID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid notification id", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	if err := h.Service.MarkRead(r.Context(), caller, ids); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as read"})
}
