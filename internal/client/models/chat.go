package models

// ChatSession is what the hosted chat SDK needs to connect a user.
type ChatSession struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	APIKey string `json:"api_key,omitempty"`
}
