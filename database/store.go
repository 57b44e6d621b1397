package database

import (
	"context"
	"errors"
	"fmt"

	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Store is the chat.DataStore on top of GORM. Inserted rows are published on
// the change feed once committed.
type Store struct {
	db        *gorm.DB
	publisher feed.Publisher
}

// NewStore returns a store over db. publisher may be nil.
func NewStore(db *gorm.DB, publisher feed.Publisher) *Store {
	return &Store{db: db, publisher: publisher}
}

type unreadRow struct {
	SenderID string
	Unread   int64
}

func (s *Store) ListContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	var profiles []model.Profile
	err := s.db.WithContext(ctx).
		Where("id <> ?", userID).
		Order("first_name, last_name, username").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var rows []unreadRow
	err = s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Select("sender_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	unread := make(map[string]int64, len(rows))
	for _, r := range rows {
		unread[r.SenderID] = r.Unread
	}

	contacts := make([]model.Contact, 0, len(profiles))
	for _, p := range profiles {
		contacts = append(contacts, model.Contact{Profile: p, UnreadCount: unread[p.ID]})
	}
	return contacts, nil
}

func (s *Store) FetchConversation(ctx context.Context, a, b string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}
	return messages, nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *model.ChatMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	msg.Read = false

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *msg); err != nil {
			logger.Warn().Err(err).Str("message_id", msg.ID).Msg("publish chat message")
		}
	}
	return nil
}

func (s *Store) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", receiverID, senderID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	profile := new(model.Profile)
	err := s.db.WithContext(ctx).Where("id = ?", id).First(profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Role implements middleware.RoleLookup.
func (s *Store) Role(ctx context.Context, userID string) (string, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}
