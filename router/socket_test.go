package router

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"portal-chat/logger"
	"portal-chat/model"
	"portal-chat/session"
	"portal-chat/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event string
	args  []any
}

type fakeEmitter struct {
	out []emitted
	err error
}

func (f *fakeEmitter) Emit(ev string, args ...any) error {
	f.out = append(f.out, emitted{event: ev, args: args})
	return f.err
}

func TestDecodeEvent(t *testing.T) {
	ev, ok := decodeEvent(EventSelectContact, []interface{}{"c1"})
	require.True(t, ok)
	assert.Equal(t, session.ContactSelected{ContactID: "c1"}, ev)

	_, ok = decodeEvent(EventSelectContact, []interface{}{""})
	assert.False(t, ok)
	_, ok = decodeEvent(EventSelectContact, []interface{}{42.0})
	assert.False(t, ok)

	ev, ok = decodeEvent(EventText, []interface{}{"hi"})
	require.True(t, ok)
	assert.Equal(t, session.TextChanged{Text: "hi"}, ev)

	ev, ok = decodeEvent(EventViewport, []interface{}{414.0})
	require.True(t, ok)
	assert.Equal(t, session.ViewportChanged{Width: 414}, ev)

	ev, ok = decodeEvent(EventSidebar, []interface{}{false})
	require.True(t, ok)
	assert.Equal(t, session.SidebarToggled{Open: false}, ev)

	ev, ok = decodeEvent(EventNotificationPerm, []interface{}{"denied"})
	require.True(t, ok)
	assert.Equal(t, session.PermissionResolved{Permission: session.PermissionDenied}, ev)
	_, ok = decodeEvent(EventNotificationPerm, []interface{}{"maybe"})
	assert.False(t, ok)

	ev, ok = decodeEvent(EventSend, nil)
	require.True(t, ok)
	assert.Equal(t, session.SendRequested{}, ev)

	_, ok = decodeEvent("chat_unknown", nil)
	assert.False(t, ok)
}

func TestDecodeAttach(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	for _, data := range []string{payload, "data:image/png;base64," + payload} {
		ev, ok := decodeEvent(EventAttach, []interface{}{map[string]interface{}{
			"name": "shot.png",
			"type": "image/png",
			"data": data,
		}})
		require.True(t, ok)
		f := ev.(session.AttachmentChosen).File
		assert.Equal(t, "shot.png", f.Name)
		assert.Equal(t, "image/png", f.Type)
		assert.Equal(t, int64(9), f.Size)
		assert.Equal(t, "png-bytes", string(f.Data))
	}

	_, ok := decodeEvent(EventAttach, []interface{}{map[string]interface{}{"name": "x", "data": "%%%"}})
	assert.False(t, ok)
	_, ok = decodeEvent(EventAttach, []interface{}{"not a map"})
	assert.False(t, ok)
}

func TestSocketSink(t *testing.T) {
	logger.Nop()
	em := &fakeEmitter{}
	sink := &socketSink{client: em, loc: time.UTC}

	s := session.NewState("me")
	s.Contacts = []model.Contact{{Profile: model.Profile{ID: "c1", Username: "ada"}, UnreadCount: 2}}
	s.MyUnreadCount = 2
	sink.Render(s)
	sink.Toast(session.Toast{Title: "Could not send message", Variant: "destructive"})
	sink.Notify(session.Notification{Title: "Ada", Body: "hi", ContactID: "c1"})
	sink.RequestNotificationPermission()

	require.Len(t, em.out, 4)
	assert.Equal(t, EventState, em.out[0].event)
	page := em.out[0].args[0].(view.Page)
	assert.Equal(t, int64(2), page.MyUnreadCount)
	assert.Len(t, page.Contacts, 1)

	assert.Equal(t, EventToast, em.out[1].event)
	assert.Equal(t, EventNotification, em.out[2].event)
	assert.Equal(t, EventNotificationPerm, em.out[3].event)
	assert.Empty(t, em.out[3].args)

	em.err = errors.New("transport closed")
	sink.Toast(session.Toast{Title: "ignored"})
	assert.Len(t, em.out, 5)
}
