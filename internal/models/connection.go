package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// ConnectionRequest is one side asking the other to connect. Accepted and
// rejected are terminal; an accepted request produces exactly one Connection.
type ConnectionRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FromUserID  primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`
	ToUserID    primitive.ObjectID `bson:"to_user_id" json:"to_user_id"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// Connection is the mutual relationship between two users. PairKey is the
// canonical unordered pair identity and carries a unique index, so the
// record is created exactly once no matter which side's accept lands first.
// Unread holds per-user unread message counters keyed by hex user id.
type Connection struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PairKey   string               `bson:"pair_key" json:"-"`
	UserIDs   []primitive.ObjectID `bson:"user_ids" json:"user_ids"`
	Unread    map[string]int64     `bson:"unread" json:"unread"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}

// PairKey builds the canonical key for an unordered user pair.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + ":" + bh
	}
	return bh + ":" + ah
}

// NewConnection builds the record for an accepted pair with zeroed counters.
func NewConnection(a, b primitive.ObjectID) *Connection {
	return &Connection{
		PairKey: PairKey(a, b),
		UserIDs: []primitive.ObjectID{a, b},
		Unread:  map[string]int64{a.Hex(): 0, b.Hex(): 0},
	}
}

// Includes reports whether the user is one of the pair.
func (c *Connection) Includes(userID primitive.ObjectID) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Other returns the opposite side of the pair.
func (c *Connection) Other(userID primitive.ObjectID) primitive.ObjectID {
	if len(c.UserIDs) == 2 && c.UserIDs[0] == userID {
		return c.UserIDs[1]
	}
	return c.UserIDs[0]
}

// Connection status values the matcher annotates candidates with.
const (
	ConnStatusConnected       = "connected"
	ConnStatusPendingOutgoing = "pending_outgoing"
	ConnStatusNone            = "none"
)
