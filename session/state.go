// Package session is the chat session controller. Reduce is a pure function
// from (State, Event) to the next State and the effects to run; Controller
// owns one State per connected user and runs those effects.
package session

import (
	"portal-chat/attachment"
	"portal-chat/model"
)

// NarrowBreakpoint is the viewport width below which the contact list is an
// overlay that closes on selection.
const NarrowBreakpoint = 768

type FeedStatus string

const (
	FeedDisconnected FeedStatus = "disconnected"
	FeedSubscribing  FeedStatus = "subscribing"
	FeedSubscribed   FeedStatus = "subscribed"
	FeedUnsubscribed FeedStatus = "unsubscribed"
)

// Permission mirrors the browser Notification.permission values.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Draft is the composition buffer.
type Draft struct {
	Text       string
	File       *attachment.File
	PreviewURL string
}

func (d Draft) Empty() bool {
	return d.Text == "" && d.File == nil
}

type State struct {
	UserID string
	Feed   FeedStatus
	Closed bool

	Contacts      []model.Contact
	MyUnreadCount int64
	Selected      *model.Contact
	Messages      []model.ChatMessage
	Loading       bool

	// Seq tags the latest conversation fetch; older responses are dropped.
	Seq uint64

	Draft    Draft
	Sending  bool
	outgoing *model.ChatMessage

	Search      string
	Narrow      bool
	SidebarOpen bool
	Permission  Permission
}

func NewState(userID string) State {
	return State{
		UserID:      userID,
		Feed:        FeedDisconnected,
		SidebarOpen: true,
		Permission:  PermissionDefault,
	}
}

// SelectedID returns the id of the open conversation's contact, or "".
func (s State) SelectedID() string {
	if s.Selected == nil {
		return ""
	}
	return s.Selected.ID
}

func (s State) contact(id string) (model.Contact, bool) {
	for _, c := range s.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Contact{}, false
}

func sumUnread(contacts []model.Contact) int64 {
	var n int64
	for _, c := range contacts {
		n += c.UnreadCount
	}
	return n
}
