package chat

import (
	"strconv"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ChatHandler handles direct messaging requests
type ChatHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db *gorm.DB) *ChatHandler {
	return &ChatHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Text       string `json:"text" validate:"required,min=1,max=5000"`
}

// Conversation is one entry of the derived conversation list: the counterpart
// and the most recent message exchanged with them.
type Conversation struct {
	User        model.User    `json:"user"`
	LastMessage model.Message `json:"last_message"`
	UnreadCount int64         `json:"unread_count"`
}

// SendMessage handles POST /api/v1/chat
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.ReceiverID == userID {
		return response.InvalidOperation(c, "You cannot message yourself")
	}

	var receiver model.User
	if err := h.db.First(&receiver, req.ReceiverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Receiver not found")
		}
		return response.InternalServerError(c, "Failed to fetch receiver")
	}

	message := model.Message{
		SenderID:   userID,
		ReceiverID: receiver.ID,
		Text:       req.Text,
		Read:       false,
	}
	if err := h.db.Create(&message).Error; err != nil {
		return response.InternalServerError(c, "Failed to send message")
	}

	// Return with both identities resolved
	if err := h.db.Preload("Sender").Preload("Receiver").First(&message, message.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load message")
	}

	return response.CreatedWithMessage(c, "Message sent", message)
}

// GetHistory handles GET /api/v1/chat/:userId. Messages between the two users
// come back in ascending order; fetching the history also marks the
// counterpart's messages to the requester as read, so the client's unread
// badge clears on open.
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	counterpartID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var counterpart model.User
	if err := h.db.First(&counterpart, counterpartID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	// Mark everything they sent me as read
	if err := h.db.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", counterpart.ID, userID, false).
		Update("read", true).Error; err != nil {
		return response.InternalServerError(c, "Failed to update read state")
	}

	var messages []model.Message
	if err := h.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpart.ID, counterpart.ID, userID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch messages")
	}

	return response.Success(c, fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// GetConversations handles GET /api/v1/chat/conversations. Conversations are
// derived: every message touching the requester is folded per counterpart,
// keeping the most recent message, ordered by recency.
func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var messages []model.Message
	if err := h.db.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch messages")
	}

	// Messages come newest first, so the first one seen per counterpart is
	// the latest of that conversation
	latest := make(map[uint]model.Message)
	var order []uint
	for _, msg := range messages {
		counterpart := msg.SenderID
		if counterpart == userID {
			counterpart = msg.ReceiverID
		}
		if _, seen := latest[counterpart]; !seen {
			latest[counterpart] = msg
			order = append(order, counterpart)
		}
	}

	conversations := make([]Conversation, 0, len(order))
	for _, counterpartID := range order {
		var counterpart model.User
		if err := h.db.First(&counterpart, counterpartID).Error; err != nil {
			continue // deleted account, drop the conversation
		}

		var unread int64
		if err := h.db.Model(&model.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND read = ?", counterpartID, userID, false).
			Count(&unread).Error; err != nil {
			return response.InternalServerError(c, "Failed to count unread messages")
		}

		conversations = append(conversations, Conversation{
			User:        counterpart,
			LastMessage: latest[counterpartID],
			UnreadCount: unread,
		})
	}

	return response.Success(c, fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// GetUnreadCount handles GET /api/v1/chat/unread/count
func (h *ChatHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var count int64
	if err := h.db.Model(&model.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return response.InternalServerError(c, "Failed to count unread messages")
	}

	return response.Success(c, fiber.Map{"unread": count})
}

// MarkMessageRead handles PUT /api/v1/chat/:messageId/read. Only the receiver
// of a message can mark it read.
func (h *ChatHandler) MarkMessageRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var message model.Message
	if err := h.db.First(&message, c.Params("messageId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to fetch message")
	}

	if message.ReceiverID != userID {
		return response.Forbidden(c, "Only the receiver can mark a message as read")
	}

	if !message.Read {
		if err := h.db.Model(&message).Update("read", true).Error; err != nil {
			return response.InternalServerError(c, "Failed to update message")
		}
		message.Read = true
	}

	return response.SuccessWithMessage(c, "Message marked as read", message)
}
