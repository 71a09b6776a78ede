package model

// ConversationSnapshot is the durable-mirror job for one turn: the
// full conversation as the Session Cache holds it, plus the title to
// apply (empty means keep the current one).
type ConversationSnapshot struct {
	SessionID string     `json:"session_id"`
	Messages  []ChatTurn `json:"messages"`
	Title     string     `json:"title"`
}
