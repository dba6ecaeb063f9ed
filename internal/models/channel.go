package models

// Channel is the business account bound to a platform.
type Channel struct {
	Platform    string `json:"platform"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Connected   bool   `json:"connected"`
	AutoReply   bool   `json:"auto_reply"`
}
