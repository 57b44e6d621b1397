// Package view turns session state into the page model the browser renders.
package view

import (
	"strings"
	"time"

	"portal-chat/attachment"
	"portal-chat/model"
	"portal-chat/session"
)

// Attachment kinds.
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
	KindFile  = "file"
)

type ContactItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Initials    string `json:"initials"`
	UnreadCount int64  `json:"unread_count"`
	Selected    bool   `json:"selected"`
}

type AttachmentItem struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind"`
	Size string `json:"size,omitempty"`
}

type MessageItem struct {
	ID         string          `json:"id"`
	Mine       bool            `json:"mine"`
	SenderName string          `json:"sender_name"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	Initials   string          `json:"initials"`
	Content    string          `json:"content,omitempty"`
	Time       string          `json:"time"`
	Read       bool            `json:"read"`
	Attachment *AttachmentItem `json:"attachment,omitempty"`
}

type DraftItem struct {
	Text       string `json:"text"`
	FileName   string `json:"file_name,omitempty"`
	FileSize   string `json:"file_size,omitempty"`
	FileKind   string `json:"file_kind,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	CanSend    bool   `json:"can_send"`
}

type Page struct {
	Feed          string        `json:"feed"`
	MyUnreadCount int64         `json:"my_unread_count"`
	Search        string        `json:"search"`
	SidebarOpen   bool          `json:"sidebar_open"`
	Contacts      []ContactItem `json:"contacts"`
	Selected      *ContactItem  `json:"selected,omitempty"`
	Loading       bool          `json:"loading"`
	Messages      []MessageItem `json:"messages"`
	Draft         DraftItem     `json:"draft"`
	Sending       bool          `json:"sending"`
}

// KindOf classifies a MIME type for display.
func KindOf(mimeType string) string {
	mt := attachment.NormalizeType(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio
	default:
		return KindFile
	}
}

// Sidebar filters contacts by query, matched case-insensitively against the
// display name and the username.
func Sidebar(contacts []model.Contact, query, selectedID string) []ContactItem {
	q := strings.ToLower(strings.TrimSpace(query))
	items := make([]ContactItem, 0, len(contacts))
	for _, c := range contacts {
		name := c.DisplayName()
		if q != "" &&
			!strings.Contains(strings.ToLower(name), q) &&
			!strings.Contains(strings.ToLower(c.Username), q) {
			continue
		}
		items = append(items, contactItem(c, selectedID))
	}
	return items
}

func contactItem(c model.Contact, selectedID string) ContactItem {
	return ContactItem{
		ID:          c.ID,
		Name:        c.DisplayName(),
		Username:    c.Username,
		AvatarURL:   c.AvatarURL,
		Initials:    c.Initials(),
		UnreadCount: c.UnreadCount,
		Selected:    c.ID == selectedID,
	}
}

// Transcript renders messages in the order given, local clock times in loc.
func Transcript(messages []model.ChatMessage, me string, loc *time.Location) []MessageItem {
	if loc == nil {
		loc = time.Local
	}
	items := make([]MessageItem, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		item := MessageItem{
			ID:      m.ID,
			Mine:    m.SenderID == me,
			Content: m.Content,
			Time:    m.CreatedAt.In(loc).Format("15:04"),
			Read:    m.Read,
		}
		if m.Sender != nil {
			item.SenderName = m.Sender.DisplayName()
			item.AvatarURL = m.Sender.AvatarURL
			item.Initials = m.Sender.Initials()
		} else {
			item.SenderName = model.Profile{}.DisplayName()
			item.Initials = "?"
		}
		if a := m.Attachment(); a != nil {
			item.Attachment = &AttachmentItem{
				URL:  a.URL,
				Name: a.Name,
				Type: a.Type,
				Kind: KindOf(a.Type),
			}
			if a.Size > 0 {
				item.Attachment.Size = attachment.HumanSize(a.Size)
			}
		}
		items = append(items, item)
	}
	return items
}

func Render(s session.State, loc *time.Location) Page {
	p := Page{
		Feed:          string(s.Feed),
		MyUnreadCount: s.MyUnreadCount,
		Search:        s.Search,
		SidebarOpen:   s.SidebarOpen,
		Contacts:      Sidebar(s.Contacts, s.Search, s.SelectedID()),
		Loading:       s.Loading,
		Messages:      Transcript(s.Messages, s.UserID, loc),
		Sending:       s.Sending,
		Draft: DraftItem{
			Text:       s.Draft.Text,
			PreviewURL: s.Draft.PreviewURL,
			CanSend:    !s.Sending && s.Selected != nil && (strings.TrimSpace(s.Draft.Text) != "" || s.Draft.File != nil),
		},
	}
	if s.Selected != nil {
		item := contactItem(*s.Selected, s.Selected.ID)
		p.Selected = &item
	}
	if f := s.Draft.File; f != nil {
		p.Draft.FileName = f.Name
		p.Draft.FileSize = attachment.HumanSize(f.Size)
		p.Draft.FileKind = KindOf(f.Type)
	}
	return p
}
