package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a crew member account. The Connections array mirrors the
// connection graph and is mutated only through the connection service.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	DisplayName    string               `bson:"display_name" json:"display_name"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Airline        string               `bson:"airline" json:"airline"`
	Base           string               `bson:"base" json:"base"`
	Connections    []primitive.ObjectID `bson:"connections,omitempty" json:"connections,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

type PublicUser struct {
	ID          primitive.ObjectID `json:"id"`
	DisplayName string             `json:"display_name"`
	Airline     string             `json:"airline"`
	Base        string             `json:"base"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Airline:     u.Airline,
		Base:        u.Base,
	}
}
