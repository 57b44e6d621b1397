package session

import (
	"portal-chat/attachment"
	"portal-chat/model"
)

// Effect is a side effect requested by the reducer.
type Effect interface {
	effect()
}

type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

type Notification struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Icon      string `json:"icon,omitempty"`
	ContactID string `json:"contact_id"`
}

type (
	Subscribe    struct{}
	Unsubscribe  struct{}
	LoadContacts struct{}

	LoadConversation struct {
		ContactID string
		Seq       uint64
	}

	MarkRead struct{ ContactID string }

	CreatePreview struct{ File attachment.File }
	RevokePreview struct{ URL string }

	Upload        struct{ File attachment.File }
	InsertMessage struct{ Message model.ChatMessage }

	ShowToast         struct{ Toast Toast }
	ShowNotification  struct{ Notification Notification }
	RequestPermission struct{}
)

func (Subscribe) effect()         {}
func (Unsubscribe) effect()       {}
func (LoadContacts) effect()      {}
func (LoadConversation) effect()  {}
func (MarkRead) effect()          {}
func (CreatePreview) effect()     {}
func (RevokePreview) effect()     {}
func (Upload) effect()            {}
func (InsertMessage) effect()     {}
func (ShowToast) effect()         {}
func (ShowNotification) effect()  {}
func (RequestPermission) effect() {}

func errorToast(title string, err error) ShowToast {
	t := Toast{Title: title, Variant: "destructive"}
	if err != nil {
		t.Description = err.Error()
	}
	return ShowToast{Toast: t}
}
