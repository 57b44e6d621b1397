package router

import (
	"portal-chat/controller"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Rest mounts the HTTP API. guards run on every /v1 route, normally JWT
// followed by RBAC.
func Rest(app *fiber.App, h *controller.Chat, guards ...fiber.Handler) {
	if h.Objects != nil {
		app.Get("/storage/:bucket/*", h.Object)
	}

	handlers := append([]fiber.Handler{logger.New()}, guards...)
	api := app.Group("/v1", handlers...)

	// Chat
	chat := api.Group("/chat")
	chat.Get("/contacts", h.Contacts)
	chat.Get("/messages/:contactId", h.Messages)
	chat.Post("/messages", h.Send)
	chat.Post("/messages/:contactId/read", h.MarkRead)
	chat.Get("/previews/:token", h.Preview)

	// User
	user := api.Group("/user")
	user.Get("/profile", h.UserProfile)
}
