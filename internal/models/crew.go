package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CrewCandidate is a matcher result: another user whose discoverable layover
// overlaps the requester's window, annotated with the connection state
// between the two.
type CrewCandidate struct {
	UserID           primitive.ObjectID `json:"user_id"`
	DisplayName      string             `json:"display_name"`
	Airline          string             `json:"airline"`
	Base             string             `json:"base"`
	Layover          Layover            `json:"layover"`
	ConnectionStatus string             `json:"connection_status"`
}
