package handlers

import (
	"net/http"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/gorilla/mux"
)

// ConnectionHandler exposes the request state machine and connection graph.
type ConnectionHandler struct {
	Service *services.ConnectionService
}

func NewConnectionHandler(service *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{Service: service}
}

// SendRequestHandler: POST /connections/{id}/request sends a request to the
// user in the path.
func (h *ConnectionHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	receiver, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	request, err := h.Service.SendConnectionRequest(r.Context(), caller, receiver)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"from": caller.Hex(),
		"to":   receiver.Hex(),
	}).Info("Connection request created")
	writeJSON(w, http.StatusCreated, request)
}

// PendingRequestsHandler: GET /connections/requests lists incoming pending
// requests for the caller.
func (h *ConnectionHandler) PendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.PendingIncoming(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *ConnectionHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	conn, err := h.Service.AcceptConnectionRequest(r.Context(), caller, requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *ConnectionHandler) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.RejectConnectionRequest(r.Context(), caller, requestID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Request rejected"})
}

func (h *ConnectionHandler) ListConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListConnections(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if views == nil {
		views = []services.ConnectionView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ConnectionHandler) RemoveConnectionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.RemoveConnection(r.Context(), caller, connectionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Connection removed"})
}
