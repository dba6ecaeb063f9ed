package models

// Message represents a chat message on one platform thread.
type Message struct {
	ID         string `json:"id"` // ULID
	Platform   string `json:"platform"`
	CustomerID string `json:"customer_id"`
	Body       string `json:"body"`
	Direction  string `json:"direction"`
	Timestamp  int64  `json:"ts"` // Unix ms
}
