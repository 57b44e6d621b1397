package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Portal roles stored in profiles.role.
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

// Profile is a row of the profiles table. Identity is owned by the auth
// service; the id is the subject of its access tokens.
type Profile struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	FirstName   string    `gorm:"not null;default:''" json:"first_name"`
	LastName    string    `gorm:"not null;default:''" json:"last_name"`
	Username    string    `gorm:"index;not null;default:''" json:"username"`
	AvatarURL   string    `gorm:"not null;default:''" json:"avatar_url"`
	Role        string    `gorm:"not null;default:'student'" json:"role"`
	IndexNumber string    `gorm:"not null;default:''" json:"index_number"`
	Class       string    `gorm:"not null;default:''" json:"class"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return "Unknown user"
}

// Initials returns up to two upper-case letters for avatar placeholders.
func (p Profile) Initials() string {
	var out []rune
	for _, part := range []string{p.FirstName, p.LastName} {
		if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(part)); r != utf8.RuneError {
			out = append(out, unicode.ToUpper(r))
		}
	}
	if len(out) == 0 {
		if r, _ := utf8.DecodeRuneInString(p.Username); r != utf8.RuneError {
			out = append(out, unicode.ToUpper(r))
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// Contact is a profile as seen from the current user's directory.
type Contact struct {
	Profile
	UnreadCount int64 `json:"unread_count"`
}
