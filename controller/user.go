package controller

import (
	"errors"

	"portal-chat/database"
	"portal-chat/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Chat) UserProfile(c *fiber.Ctx) error {
	profile, err := h.Store.GetProfile(c.UserContext(), middleware.UserID(c))
	if errors.Is(err, database.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	// the role RBAC enforced for this request
	role := middleware.Role(c)
	if role == "" {
		role = profile.Role
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"id":           profile.ID,
			"created":      profile.CreatedAt.Unix(),
			"username":     profile.Username,
			"display_name": profile.DisplayName(),
			"initials":     profile.Initials(),
			"avatar_url":   profile.AvatarURL,
			"role":         role,
			"index_number": profile.IndexNumber,
			"class":        profile.Class,
		},
	})
}
