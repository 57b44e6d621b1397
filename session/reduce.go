package session

import (
	"strings"

	"portal-chat/attachment"
	"portal-chat/model"
)

// Reducer holds the configuration the transitions depend on.
type Reducer struct {
	Policy attachment.Policy
}

// Reduce returns the state after ev and the effects to run. It never mutates
// s: slices are copied before they change.
func (r Reducer) Reduce(s State, ev Event) (State, []Effect) {
	if s.Closed {
		// a preview created while tearing down still has to be released
		if p, ok := ev.(PreviewCreated); ok {
			return s, []Effect{RevokePreview{URL: p.URL}}
		}
		return s, nil
	}

	switch ev := ev.(type) {
	case Mounted:
		return r.mounted(s)
	case Unmounted:
		return r.unmounted(s)
	case FeedReady:
		if s.Feed == FeedSubscribing {
			s.Feed = FeedSubscribed
		}
		return s, nil
	case FeedFailed:
		s.Feed = FeedDisconnected
		return s, []Effect{errorToast("Live updates are unavailable", ev.Err)}
	case FeedInsert:
		return r.feedInsert(s, ev.Message)
	case ContactsLoaded:
		return r.contactsLoaded(s, ev)
	case ContactSelected:
		return r.selectContact(s, ev.ContactID)
	case ConversationLoaded:
		return r.conversationLoaded(s, ev)
	case MarkedRead:
		return r.markedRead(s, ev)
	case TextChanged:
		s.Draft.Text = ev.Text
		return s, nil
	case SearchChanged:
		s.Search = ev.Query
		return s, nil
	case ViewportChanged:
		s.Narrow = ev.Width > 0 && ev.Width < NarrowBreakpoint
		if !s.Narrow {
			s.SidebarOpen = true
		}
		return s, nil
	case SidebarToggled:
		s.SidebarOpen = ev.Open
		return s, nil
	case AttachmentChosen:
		return r.composeAttachment(s, ev.File)
	case AttachmentCleared:
		if s.Sending {
			return s, nil
		}
		var effects []Effect
		if s.Draft.PreviewURL != "" {
			effects = append(effects, RevokePreview{URL: s.Draft.PreviewURL})
		}
		s.Draft.File = nil
		s.Draft.PreviewURL = ""
		return s, effects
	case PreviewCreated:
		if s.Draft.File == nil || s.Draft.File.ID != ev.FileID {
			return s, []Effect{RevokePreview{URL: ev.URL}}
		}
		s.Draft.PreviewURL = ev.URL
		return s, nil
	case SendRequested:
		return r.send(s)
	case AttachmentUploaded:
		return r.attachmentUploaded(s, ev)
	case MessageSent:
		return r.messageSent(s, ev)
	case PermissionResolved:
		s.Permission = ev.Permission
		return s, nil
	}
	return s, nil
}

func (r Reducer) mounted(s State) (State, []Effect) {
	if s.Feed != FeedDisconnected {
		return s, nil
	}
	s.Feed = FeedSubscribing
	effects := []Effect{Subscribe{}, LoadContacts{}}
	if s.Permission == PermissionDefault {
		effects = append(effects, RequestPermission{})
	}
	return s, effects
}

func (r Reducer) unmounted(s State) (State, []Effect) {
	var effects []Effect
	if s.Feed == FeedSubscribing || s.Feed == FeedSubscribed {
		effects = append(effects, Unsubscribe{})
	}
	if s.Draft.PreviewURL != "" {
		effects = append(effects, RevokePreview{URL: s.Draft.PreviewURL})
	}
	s.Feed = FeedUnsubscribed
	s.Closed = true
	s.Draft = Draft{}
	s.Sending = false
	s.outgoing = nil
	return s, effects
}

func (r Reducer) feedInsert(s State, msg model.ChatMessage) (State, []Effect) {
	if !msg.Involves(s.UserID) {
		return s, nil
	}
	other := msg.Counterpart(s.UserID)

	var effects []Effect
	open := s.Selected != nil && s.Selected.ID == other
	if open {
		s.Seq++
		effects = append(effects, LoadConversation{ContactID: other, Seq: s.Seq}, MarkRead{ContactID: other})
	}
	effects = append(effects, LoadContacts{})

	if !open && msg.ReceiverID == s.UserID && s.Permission == PermissionGranted {
		effects = append(effects, ShowNotification{Notification: s.notification(msg)})
	}
	return s, effects
}

func (s State) notification(msg model.ChatMessage) Notification {
	n := Notification{Title: "New message", ContactID: msg.SenderID}
	if c, ok := s.contact(msg.SenderID); ok {
		n.Title = c.DisplayName()
		n.Icon = c.AvatarURL
	} else if msg.Sender != nil {
		n.Title = msg.Sender.DisplayName()
		n.Icon = msg.Sender.AvatarURL
	}

	switch {
	case strings.TrimSpace(msg.Content) != "":
		n.Body = msg.Content
	case msg.HasAttachment():
		n.Body = "Sent an attachment"
	}
	return n
}

func (r Reducer) contactsLoaded(s State, ev ContactsLoaded) (State, []Effect) {
	if ev.Err != nil {
		return s, []Effect{errorToast("Could not load contacts", ev.Err)}
	}
	// The open conversation is marked read on every insert, so a directory
	// read racing that update must not bring its badge back.
	contacts := ev.Contacts
	if s.Selected != nil {
		contacts = make([]model.Contact, len(ev.Contacts))
		copy(contacts, ev.Contacts)
		for i := range contacts {
			if contacts[i].ID == s.Selected.ID {
				contacts[i].UnreadCount = 0
			}
		}
	}
	s.Contacts = contacts
	s.MyUnreadCount = sumUnread(contacts)
	if s.Selected != nil {
		if c, ok := s.contact(s.Selected.ID); ok {
			s.Selected = &c
		}
	}
	return s, nil
}

func (r Reducer) selectContact(s State, id string) (State, []Effect) {
	c, ok := s.contact(id)
	if !ok {
		return s, nil
	}
	s.Selected = &c
	s.Seq++
	s.Messages = nil
	s.Loading = true
	if s.Narrow {
		s.SidebarOpen = false
	}
	return s, []Effect{
		LoadConversation{ContactID: id, Seq: s.Seq},
		MarkRead{ContactID: id},
	}
}

func (r Reducer) conversationLoaded(s State, ev ConversationLoaded) (State, []Effect) {
	if s.SelectedID() != ev.ContactID || ev.Seq != s.Seq {
		return s, nil
	}
	s.Loading = false
	if ev.Err != nil {
		return s, []Effect{errorToast("Could not load messages", ev.Err)}
	}
	s.Messages = ev.Messages
	return s, nil
}

func (r Reducer) markedRead(s State, ev MarkedRead) (State, []Effect) {
	if ev.Err != nil {
		return s, []Effect{errorToast("Could not mark messages as read", ev.Err)}
	}

	contacts := make([]model.Contact, len(s.Contacts))
	copy(contacts, s.Contacts)
	for i := range contacts {
		if contacts[i].ID == ev.ContactID {
			contacts[i].UnreadCount = 0
		}
	}
	s.Contacts = contacts
	s.MyUnreadCount = sumUnread(contacts)
	if s.Selected != nil && s.Selected.ID == ev.ContactID {
		c := *s.Selected
		c.UnreadCount = 0
		s.Selected = &c
	}
	return s, nil
}

func (r Reducer) composeAttachment(s State, f attachment.File) (State, []Effect) {
	if s.Sending {
		return s, nil
	}
	if err := r.Policy.Validate(f.Type, f.Size); err != nil {
		return s, []Effect{ShowToast{Toast: Toast{
			Title:       "Invalid file",
			Description: attachment.Describe(err, r.Policy),
			Variant:     "destructive",
		}}}
	}

	var effects []Effect
	if s.Draft.PreviewURL != "" {
		effects = append(effects, RevokePreview{URL: s.Draft.PreviewURL})
	}
	s.Draft.File = &f
	s.Draft.PreviewURL = ""
	if f.IsImage() {
		effects = append(effects, CreatePreview{File: f})
	}
	return s, effects
}

func (r Reducer) send(s State) (State, []Effect) {
	if s.Sending {
		return s, nil
	}
	if s.Selected == nil {
		return s, []Effect{ShowToast{Toast: Toast{Title: "Select a contact first", Variant: "destructive"}}}
	}

	text := strings.TrimSpace(s.Draft.Text)
	if text == "" && s.Draft.File == nil {
		return s, []Effect{ShowToast{Toast: Toast{
			Title:       "Empty message",
			Description: "Type a message or attach a file.",
			Variant:     "destructive",
		}}}
	}

	if f := s.Draft.File; f != nil {
		if err := r.Policy.Validate(f.Type, f.Size); err != nil {
			return s, []Effect{ShowToast{Toast: Toast{
				Title:       "Invalid file",
				Description: attachment.Describe(err, r.Policy),
				Variant:     "destructive",
			}}}
		}
	}

	s.Sending = true
	s.outgoing = &model.ChatMessage{
		SenderID:   s.UserID,
		ReceiverID: s.Selected.ID,
		Content:    text,
	}
	if s.Draft.File != nil {
		return s, []Effect{Upload{File: *s.Draft.File}}
	}
	return s, []Effect{InsertMessage{Message: *s.outgoing}}
}

func (r Reducer) attachmentUploaded(s State, ev AttachmentUploaded) (State, []Effect) {
	if !s.Sending || s.outgoing == nil {
		return s, nil
	}
	if ev.Err != nil {
		s.Sending = false
		s.outgoing = nil
		return s, []Effect{errorToast("Could not upload attachment", ev.Err)}
	}

	msg := *s.outgoing
	msg.Attach(ev.Attachment)
	s.outgoing = &msg
	return s, []Effect{InsertMessage{Message: msg}}
}

func (r Reducer) messageSent(s State, ev MessageSent) (State, []Effect) {
	if !s.Sending {
		return s, nil
	}
	s.Sending = false
	s.outgoing = nil
	if ev.Err != nil {
		return s, []Effect{errorToast("Could not send message", ev.Err)}
	}

	var effects []Effect
	if s.Draft.PreviewURL != "" {
		effects = append(effects, RevokePreview{URL: s.Draft.PreviewURL})
	}
	s.Draft = Draft{}
	if s.Selected != nil {
		s.Seq++
		effects = append(effects, LoadConversation{ContactID: s.Selected.ID, Seq: s.Seq})
	}
	return s, effects
}
