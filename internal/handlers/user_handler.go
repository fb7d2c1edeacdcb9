package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Arman334/CrewLink/internal/config"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/services"
	jwtutil "github.com/Arman334/CrewLink/pkg/jwt"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/gorilla/mux"
)

// UserHandler handles registration, login and profiles.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{Service: service, Config: cfg}
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Airline     string `json:"airline"`
		Base        string `json:"base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user := &models.User{
		DisplayName: body.DisplayName,
		Email:       body.Email,
		Airline:     body.Airline,
		Base:        body.Base,
	}
	created, err := h.Service.RegisterUser(r.Context(), user, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithField("userID", created.ID.Hex()).Info("User registered")
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		logger.Log.WithField("email", credentials.Email).Warn("Authentication failed")
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate JWT token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	requested, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	user, err := h.Service.GetUser(r.Context(), requested)
	if err != nil {
		writeError(w, err)
		return
	}

	// Own profile comes back whole; anyone else gets the public shape.
	if requested == caller {
		writeJSON(w, http.StatusOK, user)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	requested, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if requested != caller {
		http.Error(w, "Forbidden: you can only update your own profile", http.StatusForbidden)
		return
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Airline     string `json:"airline"`
		Base        string `json:"base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.UpdateProfile(r.Context(), caller, body.DisplayName, body.Airline, body.Base)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
