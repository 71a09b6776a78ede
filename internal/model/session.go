package model

import (
	"encoding/json"
	"time"
)

const (
	SessionTypeChat   = "chat"
	SessionTypeUpload = "upload"
)

// Session is one user's conversation thread, either freeform chat or
// anchored to an uploaded loan document.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36" json:"session_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"size:16;not null" json:"type"`
	Title        string    `gorm:"size:256" json:"title"`
	DocumentID   string    `gorm:"size:36;index" json:"document_id,omitempty"`
	DocumentInfo string    `gorm:"type:text" json:"-"` // JSON snapshot of the latest extracted fields
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Messages []Message `gorm:"-" json:"messages,omitempty"`
}

// DocumentFields returns the parsed document-info snapshot; nil when
// the session has none or the snapshot does not parse.
func (s *Session) DocumentFields() *LoanFields {
	if s.DocumentInfo == "" {
		return nil
	}
	var fields LoanFields
	if err := json.Unmarshal([]byte(s.DocumentInfo), &fields); err != nil {
		return nil
	}
	return &fields
}

// SetDocumentFields stores the snapshot as JSON.
func (s *Session) SetDocumentFields(fields *LoanFields) {
	if fields == nil {
		s.DocumentInfo = ""
		return
	}
	b, _ := json.Marshal(fields)
	s.DocumentInfo = string(b)
}
