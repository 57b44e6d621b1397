package router

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"portal-chat/attachment"
	"portal-chat/chat"
	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/session"
	"portal-chat/utils"
	"portal-chat/view"

	"github.com/zishang520/socket.io/v2/socket"
)

// Client -> server events.
const (
	EventSelectContact    = "chat_select_contact"
	EventText             = "chat_text"
	EventSearch           = "chat_search"
	EventAttach           = "chat_attach"
	EventClearAttachment  = "chat_clear_attachment"
	EventSend             = "chat_send"
	EventViewport         = "chat_viewport"
	EventSidebar          = "chat_sidebar"
	EventNotificationPerm = "chat_notification_permission"
)

// Server -> client events. EventNotificationPerm is sent back to ask the
// browser for permission.
const (
	EventState        = "chat_state"
	EventToast        = "chat_toast"
	EventNotification = "chat_notification"
)

const eventDisconnect = "disconnect"

var clientEvents = []string{
	EventSelectContact,
	EventText,
	EventSearch,
	EventAttach,
	EventClearAttachment,
	EventSend,
	EventViewport,
	EventSidebar,
	EventNotificationPerm,
}

type SocketDeps struct {
	Store    chat.DataStore
	Uploader chat.Uploader
	Feed     feed.Subscriber
	Previews chat.Previews
	Location *time.Location
}

type emitter interface {
	Emit(ev string, args ...any) error
}

// socketSink pushes session output to one browser tab.
type socketSink struct {
	client emitter
	loc    *time.Location
}

func (s *socketSink) Render(state session.State) {
	s.emit(EventState, view.Render(state, s.loc))
}

func (s *socketSink) Toast(t session.Toast) {
	s.emit(EventToast, t)
}

func (s *socketSink) Notify(n session.Notification) {
	s.emit(EventNotification, n)
}

func (s *socketSink) RequestNotificationPermission() {
	s.emit(EventNotificationPerm)
}

func (s *socketSink) emit(event string, args ...any) {
	if err := s.client.Emit(event, args...); err != nil {
		logger.Warn().Err(err).Str("event", event).Msg("socket emit")
	}
}

// Socket runs one chat session per connection.
func Socket(server *socket.Server, deps SocketDeps) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		meta, ok := client.Data().(*utils.TokenMetadata)
		if !ok || meta == nil {
			client.Disconnect(true)
			return
		}

		ctrl := session.New(meta.UserID, session.Deps{
			Store:    deps.Store,
			Uploader: deps.Uploader,
			Feed:     deps.Feed,
			Previews: deps.Previews,
			Sink:     &socketSink{client: client, loc: deps.Location},
		})
		go ctrl.Run(context.Background())

		for _, name := range clientEvents {
			name := name
			client.On(name, func(args ...interface{}) {
				ev, ok := decodeEvent(name, args)
				if !ok {
					logger.Debug().Str("event", name).Str("user_id", meta.UserID).Msg("malformed socket event")
					return
				}
				ctrl.Dispatch(ev)
			})
		}

		client.On(eventDisconnect, func(...interface{}) {
			ctrl.Close()
		})
	})
}

// decodeEvent maps a socket event and its arguments to a session event.
func decodeEvent(name string, args []interface{}) (session.Event, bool) {
	switch name {
	case EventSelectContact:
		id, ok := stringArg(args)
		return session.ContactSelected{ContactID: id}, ok && id != ""
	case EventText:
		text, ok := stringArg(args)
		return session.TextChanged{Text: text}, ok
	case EventSearch:
		q, ok := stringArg(args)
		return session.SearchChanged{Query: q}, ok
	case EventAttach:
		f, ok := fileArg(args)
		return session.AttachmentChosen{File: f}, ok
	case EventClearAttachment:
		return session.AttachmentCleared{}, true
	case EventSend:
		return session.SendRequested{}, true
	case EventViewport:
		if len(args) == 0 {
			return nil, false
		}
		w, ok := args[0].(float64)
		return session.ViewportChanged{Width: int(w)}, ok
	case EventSidebar:
		if len(args) == 0 {
			return nil, false
		}
		open, ok := args[0].(bool)
		return session.SidebarToggled{Open: open}, ok
	case EventNotificationPerm:
		p, ok := stringArg(args)
		switch session.Permission(p) {
		case session.PermissionDefault, session.PermissionGranted, session.PermissionDenied:
			return session.PermissionResolved{Permission: session.Permission(p)}, ok
		}
	}
	return nil, false
}

func stringArg(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}

// fileArg reads {name, type, data} where data is base64, optionally as a
// data URL.
func fileArg(args []interface{}) (attachment.File, bool) {
	if len(args) == 0 {
		return attachment.File{}, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok {
		return attachment.File{}, false
	}
	name, _ := m["name"].(string)
	contentType, _ := m["type"].(string)
	data, _ := m["data"].(string)
	if name == "" {
		return attachment.File{}, false
	}

	if strings.HasPrefix(data, "data:") {
		if i := strings.IndexByte(data, ','); i >= 0 {
			data = data[i+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return attachment.File{}, false
	}
	return attachment.NewFile(name, contentType, raw), true
}
