package controller

import (
	"errors"
	"io"
	"strings"

	"portal-chat/attachment"
	"portal-chat/chat"
	"portal-chat/database"
	"portal-chat/logger"
	"portal-chat/middleware"
	"portal-chat/model"
	"portal-chat/storage"

	"github.com/gofiber/fiber/v2"
)

// Chat serves the REST side of messaging.
type Chat struct {
	Store    chat.DataStore
	Uploader chat.Uploader
	Previews *attachment.Previews

	// Objects is set when files live in process memory and are served by
	// this service.
	Objects *storage.Memory
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

func (h *Chat) Contacts(c *fiber.Ctx) error {
	contacts, err := h.Store.ListContacts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		logger.Error().Err(err).Str("user_id", middleware.UserID(c)).Msg("list contacts")
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return success(c, fiber.StatusOK, contacts)
}

// Messages returns the conversation with :contactId, oldest first.
func (h *Chat) Messages(c *fiber.Ctx) error {
	contactID := c.Params("contactId")
	if contactID == "" {
		return fail(c, fiber.StatusBadRequest, "Contact is required")
	}

	messages, err := h.Store.FetchConversation(c.UserContext(), middleware.UserID(c), contactID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", middleware.UserID(c)).Msg("fetch conversation")
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return success(c, fiber.StatusOK, messages)
}

// Send takes a multipart form with receiver_id, content and an optional
// file. The file is uploaded before the row is inserted.
func (h *Chat) Send(c *fiber.Ctx) error {
	me := middleware.UserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid form")
	}

	receiverID := strings.TrimSpace(first(form.Value["receiver_id"]))
	content := strings.TrimSpace(first(form.Value["content"]))
	if receiverID == "" {
		return fail(c, fiber.StatusBadRequest, "Receiver is required")
	}
	if receiverID == me {
		return fail(c, fiber.StatusBadRequest, "Cannot send a message to yourself")
	}
	if content == "" && len(form.File["file"]) == 0 {
		return fail(c, fiber.StatusBadRequest, "Message is empty")
	}

	if _, err := h.Store.GetProfile(c.UserContext(), receiverID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Receiver not found")
		}
		logger.Error().Err(err).Str("receiver_id", receiverID).Msg("get receiver profile")
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	msg := &model.ChatMessage{SenderID: me, ReceiverID: receiverID, Content: content}

	if files := form.File["file"]; len(files) > 0 {
		fh := files[0]
		contentType := fh.Header.Get("Content-Type")

		policy := h.Uploader.Policy()
		if err := policy.Validate(contentType, fh.Size); err != nil {
			status := fiber.StatusBadRequest
			if errors.Is(err, attachment.ErrTooLarge) {
				status = fiber.StatusRequestEntityTooLarge
			}
			return fail(c, status, attachment.Describe(err, policy))
		}

		f, err := fh.Open()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid file")
		}

		att, err := h.Uploader.Upload(c.UserContext(), attachment.NewFile(fh.Filename, contentType, data))
		if err != nil {
			logger.Error().Err(err).Str("user_id", me).Msg("upload attachment")
			return fail(c, fiber.StatusBadGateway, "Could not upload attachment")
		}
		msg.Attach(att)
	}

	if err := h.Store.InsertMessage(c.UserContext(), msg); err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyMessage), errors.Is(err, model.ErrSelfMessage), errors.Is(err, model.ErrMissingParty):
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		logger.Error().Err(err).Str("user_id", me).Msg("insert message")
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return success(c, fiber.StatusCreated, msg)
}

// MarkRead flags the messages :contactId sent to the caller as read.
func (h *Chat) MarkRead(c *fiber.Ctx) error {
	contactID := c.Params("contactId")
	n, err := h.Store.MarkRead(c.UserContext(), middleware.UserID(c), contactID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", middleware.UserID(c)).Msg("mark read")
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return success(c, fiber.StatusOK, fiber.Map{"updated": n})
}

// Preview serves a draft image to the user who attached it.
func (h *Chat) Preview(c *fiber.Ctx) error {
	data, contentType, ok := h.Previews.Get(middleware.UserID(c), c.Params("token"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Preview not found")
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(data)
}

// Object serves files of the in-memory store at their public URL.
func (h *Chat) Object(c *fiber.Ctx) error {
	if h.Objects == nil {
		return fail(c, fiber.StatusNotFound, "Not found")
	}
	obj, err := h.Objects.Get(c.Params("bucket"), c.Params("*"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "Not found")
	}
	c.Set(fiber.HeaderContentType, obj.ContentType)
	return c.Send(obj.Data)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
