package view

import (
	"testing"
	"time"

	"portal-chat/attachment"
	"portal-chat/model"
	"portal-chat/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directory() []model.Contact {
	return []model.Contact{
		{Profile: model.Profile{ID: "1", FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, UnreadCount: 3},
		{Profile: model.Profile{ID: "2", FirstName: "Alan", LastName: "Turing", Username: "enigma"}},
		{Profile: model.Profile{ID: "3", Username: "grace_h"}},
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindImage, KindOf("image/png"))
	assert.Equal(t, KindVideo, KindOf("Video/MP4"))
	assert.Equal(t, KindAudio, KindOf("audio/mpeg; rate=44100"))
	assert.Equal(t, KindFile, KindOf("application/pdf"))
	assert.Equal(t, KindFile, KindOf(""))
}

func TestSidebarSearch(t *testing.T) {
	all := Sidebar(directory(), "", "2")
	require.Len(t, all, 3)
	assert.Equal(t, "AL", all[0].Initials)
	assert.Equal(t, int64(3), all[0].UnreadCount)
	assert.True(t, all[1].Selected)
	assert.Equal(t, "grace_h", all[2].Name)
	assert.Equal(t, "G", all[2].Initials)

	byName := Sidebar(directory(), "  TURING ", "")
	require.Len(t, byName, 1)
	assert.Equal(t, "2", byName[0].ID)

	byUsername := Sidebar(directory(), "enig", "")
	require.Len(t, byUsername, 1)
	assert.Equal(t, "Alan Turing", byUsername[0].Name)

	assert.Empty(t, Sidebar(directory(), "nobody", ""))
}

func TestTranscript(t *testing.T) {
	at := time.Date(2026, 10, 19, 14, 7, 0, 0, time.UTC)
	withFile := model.ChatMessage{ID: "b", SenderID: "1", ReceiverID: "me", CreatedAt: at.Add(time.Minute)}
	withFile.Attach(model.Attachment{URL: "http://f/clip.mp4", Name: "clip.mp4", Type: "video/mp4", Size: 3 << 20})
	withFile.Sender = &model.Profile{ID: "1", FirstName: "Ada", LastName: "Lovelace", AvatarURL: "http://a/ada.png"}

	items := Transcript([]model.ChatMessage{
		{ID: "a", SenderID: "me", ReceiverID: "1", Content: "hi", CreatedAt: at, Read: true},
		withFile,
	}, "me", time.UTC)

	require.Len(t, items, 2)
	assert.True(t, items[0].Mine)
	assert.Equal(t, "14:07", items[0].Time)
	assert.Equal(t, "Unknown user", items[0].SenderName)
	assert.Nil(t, items[0].Attachment)

	assert.False(t, items[1].Mine)
	assert.Equal(t, "Ada Lovelace", items[1].SenderName)
	assert.Equal(t, "http://a/ada.png", items[1].AvatarURL)
	require.NotNil(t, items[1].Attachment)
	assert.Equal(t, KindVideo, items[1].Attachment.Kind)
	assert.Equal(t, "3MB", items[1].Attachment.Size)
}

func TestRender(t *testing.T) {
	s := session.NewState("me")
	s.Contacts = directory()
	s.MyUnreadCount = 3
	s.Search = "a"
	c := s.Contacts[0]
	s.Selected = &c
	f := attachment.NewFile("slides.pdf", "application/pdf", make([]byte, 2048))
	s.Draft = session.Draft{File: &f}

	p := Render(s, time.UTC)
	assert.Equal(t, "disconnected", p.Feed)
	assert.Len(t, p.Contacts, 3)
	require.NotNil(t, p.Selected)
	assert.Equal(t, "1", p.Selected.ID)
	assert.True(t, p.Selected.Selected)
	assert.Equal(t, "slides.pdf", p.Draft.FileName)
	assert.Equal(t, "2KB", p.Draft.FileSize)
	assert.Equal(t, KindFile, p.Draft.FileKind)
	assert.True(t, p.Draft.CanSend)
	assert.NotNil(t, p.Messages)

	s.Draft = session.Draft{Text: "  "}
	assert.False(t, Render(s, time.UTC).Draft.CanSend)
}
