package database

import (
	"context"
	"sort"
	"testing"
	"time"

	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	alice = "00000000-0000-0000-0000-00000000000a"
	bob   = "00000000-0000-0000-0000-00000000000b"
	carol = "00000000-0000-0000-0000-00000000000c"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Nop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&[]model.Profile{
		{ID: alice, FirstName: "Alice", LastName: "Anders", Username: "alice"},
		{ID: bob, FirstName: "Bob", LastName: "Brown", Username: "bob", Role: model.RoleLecturer},
		{ID: carol, Username: "carol"},
	}).Error)
	return db
}

func send(t *testing.T, s *Store, from, to, content string) *model.ChatMessage {
	t.Helper()
	msg := &model.ChatMessage{SenderID: from, ReceiverID: to, Content: content}
	require.NoError(t, s.InsertMessage(context.Background(), msg))
	return msg
}

func unreadOf(contacts []model.Contact, id string) int64 {
	for _, c := range contacts {
		if c.ID == id {
			return c.UnreadCount
		}
	}
	return -1
}

func TestListContactsExcludesSelfAndSorts(t *testing.T) {
	s := NewStore(openTestDB(t), nil)

	contacts, err := s.ListContacts(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	// carol has no first name and sorts first
	assert.Equal(t, carol, contacts[0].ID)
	assert.Equal(t, bob, contacts[1].ID)
	for _, c := range contacts {
		assert.Zero(t, c.UnreadCount)
	}
}

func TestListContactsCountsUnreadPerSender(t *testing.T) {
	s := NewStore(openTestDB(t), nil)
	send(t, s, bob, alice, "one")
	send(t, s, bob, alice, "two")
	send(t, s, carol, alice, "three")
	send(t, s, alice, bob, "reply")

	contacts, err := s.ListContacts(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unreadOf(contacts, bob))
	assert.Equal(t, int64(1), unreadOf(contacts, carol))

	contacts, err = s.ListContacts(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unreadOf(contacts, alice))
	assert.Equal(t, int64(0), unreadOf(contacts, carol))
}

func TestMarkReadTouchesOnlyOneDirection(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db, nil)
	ctx := context.Background()

	fromA1 := send(t, s, alice, bob, "hi bob")
	fromA2 := send(t, s, alice, bob, "are you there")
	fromB := send(t, s, bob, alice, "hi alice")

	n, err := s.MarkRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var rows []model.ChatMessage
	require.NoError(t, db.Find(&rows).Error)
	read := map[string]bool{}
	for _, r := range rows {
		read[r.ID] = r.Read
	}
	assert.True(t, read[fromA1.ID])
	assert.True(t, read[fromA2.ID])
	assert.False(t, read[fromB.ID])

	contacts, err := s.ListContacts(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, unreadOf(contacts, alice))

	n, err = s.MarkRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFetchConversationSortedAndSymmetric(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db, nil)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rows := []*model.ChatMessage{
		{SenderID: alice, ReceiverID: bob, Content: "third", CreatedAt: base.Add(3 * time.Minute)},
		{SenderID: bob, ReceiverID: alice, Content: "first", CreatedAt: base.Add(1 * time.Minute)},
		{SenderID: alice, ReceiverID: bob, Content: "second", CreatedAt: base.Add(2 * time.Minute)},
		{SenderID: alice, ReceiverID: carol, Content: "other", CreatedAt: base},
	}
	for _, r := range rows {
		require.NoError(t, s.InsertMessage(ctx, r))
	}

	ab, err := s.FetchConversation(ctx, alice, bob)
	require.NoError(t, err)
	ba, err := s.FetchConversation(ctx, bob, alice)
	require.NoError(t, err)

	require.Len(t, ab, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{ab[0].Content, ab[1].Content, ab[2].Content})
	assert.True(t, sort.SliceIsSorted(ab, func(i, j int) bool { return ab[i].CreatedAt.Before(ab[j].CreatedAt) }))

	require.Len(t, ba, len(ab))
	for i := range ab {
		assert.Equal(t, ab[i].ID, ba[i].ID)
	}

	require.NotNil(t, ab[0].Sender)
	assert.Equal(t, "Bob Brown", ab[0].Sender.DisplayName())
}

func TestSendHelloScenario(t *testing.T) {
	s := NewStore(openTestDB(t), nil)
	send(t, s, alice, bob, "hello")

	msgs, err := s.FetchConversation(context.Background(), alice, bob)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.False(t, msgs[0].Read)
	assert.Equal(t, alice, msgs[0].SenderID)
	assert.NotEmpty(t, msgs[0].ID)
	assert.False(t, msgs[0].CreatedAt.IsZero())
	assert.Nil(t, msgs[0].Attachment())
}

func TestInsertMessageStoresAttachment(t *testing.T) {
	s := NewStore(openTestDB(t), nil)

	msg := &model.ChatMessage{SenderID: alice, ReceiverID: bob}
	msg.Attach(model.Attachment{URL: "http://files/chat-files/k.jpg", Name: "k.jpg", Type: "image/jpeg", Size: 2 << 20})
	require.NoError(t, s.InsertMessage(context.Background(), msg))

	msgs, err := s.FetchConversation(context.Background(), bob, alice)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	att := msgs[0].Attachment()
	require.NotNil(t, att)
	assert.Equal(t, "image/jpeg", att.Type)
	assert.Equal(t, "k.jpg", att.Name)
	assert.Equal(t, int64(2<<20), att.Size)
	assert.Equal(t, "", msgs[0].Content)
}

func TestInsertMessageRejectsInvalidRows(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.InsertMessage(ctx, &model.ChatMessage{SenderID: alice, ReceiverID: bob, Content: "  "}), model.ErrEmptyMessage)
	assert.ErrorIs(t, s.InsertMessage(ctx, &model.ChatMessage{SenderID: alice, ReceiverID: alice, Content: "me"}), model.ErrSelfMessage)
	assert.ErrorIs(t, s.InsertMessage(ctx, &model.ChatMessage{ReceiverID: bob, Content: "x"}), model.ErrMissingParty)

	var count int64
	require.NoError(t, db.Model(&model.ChatMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInsertMessagePublishesRow(t *testing.T) {
	broker := feed.NewMemory()
	s := NewStore(openTestDB(t), broker)

	sub, err := broker.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	msg := send(t, s, alice, bob, "ping")

	select {
	case got := <-sub.Events():
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "ping", got.Content)
		assert.Equal(t, bob, got.ReceiverID)
	case <-time.After(time.Second):
		t.Fatal("insert was not published")
	}
}

func TestInsertMessageSurvivesPublishFailure(t *testing.T) {
	broker := feed.NewMemory()
	require.NoError(t, broker.Close())
	s := NewStore(openTestDB(t), broker)

	send(t, s, alice, bob, "still stored")

	msgs, err := s.FetchConversation(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestGetProfileAndRole(t *testing.T) {
	s := NewStore(openTestDB(t), nil)
	ctx := context.Background()

	p, err := s.GetProfile(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Username)

	role, err := s.Role(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLecturer, role)

	role, err = s.Role(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, role)

	_, err = s.GetProfile(ctx, "00000000-0000-0000-0000-0000000000ff")
	assert.ErrorIs(t, err, ErrNotFound)
}
