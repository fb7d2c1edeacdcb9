package handlers

import (
	"net/http"
	"time"

	"github.com/Arman334/CrewLink/internal/events"
	"github.com/Arman334/CrewLink/internal/services"
	jwtutil "github.com/Arman334/CrewLink/pkg/jwt"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadgeStreamHandler pushes live badge totals over a websocket. The client
// subscribes once and redraws the badge from each snapshot; missed
// intermediate values do not matter because every frame carries the full
// count.
type BadgeStreamHandler struct {
	NotifService *services.NotificationService
	Hub          *events.Hub
	JWTSecret    string
}

var badgeUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewBadgeStreamHandler(notifService *services.NotificationService, hub *events.Hub, jwtSecret string) *BadgeStreamHandler {
	return &BadgeStreamHandler{NotifService: notifService, Hub: hub, JWTSecret: jwtSecret}
}

// BadgeWebSocketHandler: GET /ws/badge?token=... The token travels in the
// query string because browsers cannot set headers on websocket dials.
func (h *BadgeStreamHandler) BadgeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token subject", http.StatusUnauthorized)
		return
	}

	snapshots, cancel := h.Hub.Subscribe(events.BadgeTopic(claims.UserID))
	defer cancel()

	conn, err := badgeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("Badge websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger.Log.WithField("userID", claims.UserID).Info("Badge stream connected")

	// Seed the stream so the client does not wait for the next mutation.
	total, err := h.NotifService.AggregateUnreadCount(r.Context(), userID)
	if err == nil {
		if err := conn.WriteJSON(map[string]int64{"unread": total}); err != nil {
			return
		}
	}

	// Reads only surface disconnects; the client never sends frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(map[string]interface{}{"unread": snap.Payload}); err != nil {
				logger.Log.WithField("userID", claims.UserID).Debug("Badge stream closed on write")
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
