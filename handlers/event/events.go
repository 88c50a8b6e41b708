package event

import (
	"errors"
	"time"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errEventFull         = errors.New("event full")
	errAlreadyRegistered = errors.New("already registered")
)

// EventHandler handles event and registration requests
type EventHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewEventHandler creates a new event handler
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=255"`
	Description  string `json:"description" validate:"required"`
	Date         string `json:"date" validate:"required"` // YYYY-MM-DD
	Time         string `json:"time" validate:"required,max=50"`
	Type         string `json:"type" validate:"omitempty"`
	Host         string `json:"host" validate:"required,max=255"`
	Location     string `json:"location" validate:"omitempty,max=255"`
	MaxAttendees int    `json:"max_attendees" validate:"omitempty,min=1"`
	Image        string `json:"image" validate:"omitempty,max=512"`
}

// JoinEventRequest represents a public registration for an event
type JoinEventRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	query := h.db.Model(&model.Event{}).Preload("University")

	if universityID := c.Query("university"); universityID != "" {
		query = query.Where("university_id = ?", universityID)
	}
	if eventType := c.Query("type"); eventType != "" {
		if !model.ValidEventType(model.EventType(eventType)) {
			return response.BadRequest(c, "Invalid event type filter")
		}
		query = query.Where("type = ?", eventType)
	}

	var events []model.Event
	if err := query.Order("date ASC").Find(&events).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch events")
	}

	return response.Success(c, fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id := c.Params("id")

	var event model.Event
	if err := h.db.Preload("University").Preload("CreatedBy").Preload("Attendees").
		First(&event, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Event not found")
		}
		return response.InternalServerError(c, "Failed to fetch event")
	}

	return response.Success(c, event)
}

// CreateEvent handles POST /api/v1/events (authenticated). The creator and
// owning university come from the token identity, never from the payload.
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return response.BadRequest(c, "Invalid date. Expected format YYYY-MM-DD")
	}

	eventType := model.EventType(req.Type)
	if req.Type == "" {
		eventType = model.EventTypeOther
	}
	if !model.ValidEventType(eventType) {
		return response.BadRequest(c, "Invalid event type")
	}

	maxAttendees := req.MaxAttendees
	if maxAttendees == 0 {
		maxAttendees = 100
	}

	event := model.Event{
		Title:        validation.SanitizeString(req.Title),
		Description:  req.Description,
		Date:         date,
		Time:         req.Time,
		Type:         eventType,
		Host:         validation.SanitizeString(req.Host),
		Location:     validation.SanitizeString(req.Location),
		MaxAttendees: maxAttendees,
		Image:        req.Image,
		IsActive:     true,
		UniversityID: user.UniversityID,
		CreatedByID:  user.ID,
	}

	if err := h.db.Create(&event).Error; err != nil {
		return response.InternalServerError(c, "Failed to create event")
	}

	return response.Created(c, event)
}

// JoinEvent handles POST /api/v1/events/:id/join (public). The capacity and
// duplicate-email checks run in the same transaction as the insert so two
// concurrent joins cannot both pass the check.
func (h *EventHandler) JoinEvent(c *fiber.Ctx) error {
	id := c.Params("id")

	var req JoinEventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var event model.Event
	if err := h.db.First(&event, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Event not found")
		}
		return response.InternalServerError(c, "Failed to fetch event")
	}
	if !event.IsActive {
		return response.InvalidOperation(c, "Event is no longer accepting registrations")
	}

	// Registered users get linked to their account; anonymous visitors join
	// with contact details only
	var userID *uint
	if id, ok := middleware.GetUserID(c); ok {
		userID = &id
	}

	attendee := model.EventAttendee{
		EventID: event.ID,
		UserID:  userID,
		Name:    validation.SanitizeString(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
	}

	var joinErr error
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.EventAttendee{}).
			Where("event_id = ?", event.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(event.MaxAttendees) {
			joinErr = errEventFull
			return errEventFull
		}

		var existing model.EventAttendee
		findErr := tx.Where("event_id = ? AND email = ?", event.ID, req.Email).
			First(&existing).Error
		if findErr == nil {
			joinErr = errAlreadyRegistered
			return errAlreadyRegistered
		}
		if findErr != gorm.ErrRecordNotFound {
			return findErr
		}

		return tx.Create(&attendee).Error
	})
	if err != nil {
		switch joinErr {
		case errEventFull:
			return response.InvalidOperation(c, "Event has reached its maximum capacity")
		case errAlreadyRegistered:
			return response.InvalidOperation(c, "This email is already registered for the event")
		default:
			return response.InternalServerError(c, "Failed to register for event")
		}
	}

	return response.CreatedWithMessage(c, "Registered for event successfully", attendee)
}

// DeleteEvent handles DELETE /api/v1/events/:id (creator or admin)
func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var event model.Event
	if err := h.db.First(&event, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Event not found")
		}
		return response.InternalServerError(c, "Failed to fetch event")
	}

	if event.CreatedByID != user.ID && user.Role != model.RoleAdmin {
		return response.Forbidden(c, "Only the event creator or an admin can delete this event")
	}

	if err := h.db.Select("Attendees").Delete(&event).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete event")
	}

	return response.SuccessWithMessage(c, "Event deleted successfully", nil)
}
