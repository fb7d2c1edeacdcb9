package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one chat message inside a connection. Sending a message bumps
// the recipient's unread counter on the Connection document.
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConnectionID primitive.ObjectID `bson:"connection_id" json:"connection_id"`
	SenderID     primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Text         string             `bson:"text" json:"text"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
