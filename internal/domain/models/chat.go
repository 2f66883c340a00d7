// internal/domain/models/chat.go
package models

// ChatMessage is one message exchanged between a household and the
// collector assigned to its pickup.
type ChatMessage struct {
	ID         string    `json:"id"`
	PickupID   string    `json:"pickup_id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Message    string    `json:"message"`
	Timestamp  Timestamp `json:"timestamp"`
}
