package session

import (
	"portal-chat/attachment"
	"portal-chat/model"
)

// Event is an input of the reducer: a user action, a feed push or the result
// of an effect.
type Event interface {
	event()
}

type (
	Mounted   struct{}
	Unmounted struct{}

	FeedReady  struct{}
	FeedFailed struct{ Err error }
	FeedInsert struct{ Message model.ChatMessage }

	ContactsLoaded struct {
		Contacts []model.Contact
		Err      error
	}

	ContactSelected struct{ ContactID string }

	ConversationLoaded struct {
		ContactID string
		Seq       uint64
		Messages  []model.ChatMessage
		Err       error
	}

	MarkedRead struct {
		ContactID string
		Count     int64
		Err       error
	}

	TextChanged     struct{ Text string }
	SearchChanged   struct{ Query string }
	ViewportChanged struct{ Width int }
	SidebarToggled  struct{ Open bool }

	AttachmentChosen  struct{ File attachment.File }
	AttachmentCleared struct{}
	PreviewCreated    struct {
		FileID string
		URL    string
	}

	SendRequested      struct{}
	AttachmentUploaded struct {
		Attachment model.Attachment
		Err        error
	}
	MessageSent struct {
		Message model.ChatMessage
		Err     error
	}

	PermissionResolved struct{ Permission Permission }
)

func (Mounted) event()            {}
func (Unmounted) event()          {}
func (FeedReady) event()          {}
func (FeedFailed) event()         {}
func (FeedInsert) event()         {}
func (ContactsLoaded) event()     {}
func (ContactSelected) event()    {}
func (ConversationLoaded) event() {}
func (MarkedRead) event()         {}
func (TextChanged) event()        {}
func (SearchChanged) event()      {}
func (ViewportChanged) event()    {}
func (SidebarToggled) event()     {}
func (AttachmentChosen) event()   {}
func (AttachmentCleared) event()  {}
func (PreviewCreated) event()     {}
func (SendRequested) event()      {}
func (AttachmentUploaded) event() {}
func (MessageSent) event()        {}
func (PermissionResolved) event() {}
