package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/gorilla/mux"
)

// MessageHandler is the REST side of connection chat.
type MessageHandler struct {
	Service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{Service: service}
}

func (h *MessageHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, mux.Vars(r)["connectionId"])
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	msg, err := h.Service.SendMessage(r.Context(), caller, connectionID, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, mux.Vars(r)["connectionId"])
	if !ok {
		return
	}

	messages, err := h.Service.ListMessages(r.Context(), caller, connectionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) MarkConversationReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, mux.Vars(r)["connectionId"])
	if !ok {
		return
	}

	if err := h.Service.MarkConversationRead(r.Context(), caller, connectionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation marked as read"})
}
