package handlers

import (
	"net/http"
	"time"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/Arman334/CrewLink/pkg/logger"
)

// CrewHandler exposes the overlap matcher.
type CrewHandler struct {
	Service *services.MatcherService
}

func NewCrewHandler(service *services.MatcherService) *CrewHandler {
	return &CrewHandler{Service: service}
}

// FindOverlappingCrewHandler answers GET /crew/overlap?city=&start=&end=
// with the candidates whose discoverable layovers intersect the window.
func (h *CrewHandler) FindOverlappingCrewHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	city := query.Get("city")

	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		http.Error(w, "Invalid start date, want RFC3339", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		http.Error(w, "Invalid end date, want RFC3339", http.StatusBadRequest)
		return
	}

	candidates, err := h.Service.FindOverlappingCrew(r.Context(), caller, city, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"userID":  caller.Hex(),
		"city":    city,
		"matches": len(candidates),
	}).Info("Crew overlap query served")
	writeJSON(w, http.StatusOK, candidates)
}
