package model

import "time"

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	SessionID      string    `gorm:"size:36;not null;index" json:"-"`
	Seq            int       `gorm:"not null" json:"-"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	FeedbackText   string    `gorm:"size:512" json:"feedback,omitempty"`
	FeedbackRating int       `json:"rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatTurn is the cache-resident form of one conversation entry.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turns projects persisted messages into their cache-resident form.
func Turns(messages []Message) []ChatTurn {
	turns := make([]ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}
