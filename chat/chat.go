// Package chat holds the contracts shared by the REST handlers and the
// socket sessions.
package chat

import (
	"context"

	"portal-chat/attachment"
	"portal-chat/model"
)

// DataStore is the message store and contact directory.
type DataStore interface {
	// ListContacts returns every profile except userID with the number of
	// unread messages each one sent to userID.
	ListContacts(ctx context.Context, userID string) ([]model.Contact, error)

	// FetchConversation returns the messages between a and b in both
	// directions, oldest first.
	FetchConversation(ctx context.Context, a, b string) ([]model.ChatMessage, error)

	InsertMessage(ctx context.Context, msg *model.ChatMessage) error

	// MarkRead flags every unread message from sender to receiver as read
	// and returns how many rows changed.
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)

	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

type Uploader interface {
	Policy() attachment.Policy
	Upload(ctx context.Context, file attachment.File) (model.Attachment, error)
}

// Previews hands out short-lived URLs for draft attachments.
type Previews interface {
	Create(owner string, file attachment.File) string
	Revoke(url string)
}
