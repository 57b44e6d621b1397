package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMissingParty = errors.New("sender and receiver are required")
	ErrSelfMessage  = errors.New("cannot send a message to yourself")
	ErrEmptyMessage = errors.New("message needs content or an attachment")
)

// ChatMessage is a row of chat_messages. Rows are append-only; Read is the
// only field that changes after insert and it only goes false -> true.
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string    `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID string    `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Content    string    `gorm:"not null;default:''" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	FileURL    *string   `json:"file_url"`
	FileType   *string   `json:"file_type"`
	FileName   *string   `json:"file_name"`
	FileSize   *int64    `json:"file_size"`

	Sender *Profile `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Validate checks the invariants a row must hold before insert.
func (m *ChatMessage) Validate() error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return ErrMissingParty
	}
	if m.SenderID == m.ReceiverID {
		return ErrSelfMessage
	}
	if strings.TrimSpace(m.Content) == "" && !m.HasAttachment() {
		return ErrEmptyMessage
	}
	return nil
}

func (m *ChatMessage) HasAttachment() bool {
	return m.FileURL != nil && *m.FileURL != ""
}

// Attach copies attachment metadata onto the row.
func (m *ChatMessage) Attach(a Attachment) {
	m.FileURL = &a.URL
	m.FileType = &a.Type
	m.FileName = &a.Name
	size := a.Size
	m.FileSize = &size
}

// Attachment returns the embedded attachment, or nil when there is none.
func (m *ChatMessage) Attachment() *Attachment {
	if !m.HasAttachment() {
		return nil
	}
	a := &Attachment{URL: *m.FileURL}
	if m.FileType != nil {
		a.Type = *m.FileType
	}
	if m.FileName != nil {
		a.Name = *m.FileName
	}
	if m.FileSize != nil {
		a.Size = *m.FileSize
	}
	return a
}

// Counterpart returns the other party of the message relative to userID.
func (m *ChatMessage) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves reports whether userID is the sender or the receiver.
func (m *ChatMessage) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Attachment describes a stored blob. It is not a table of its own; the
// message row holds it redundantly so clients can render without touching
// storage.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}
