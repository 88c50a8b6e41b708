package university

import (
	"log"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(db *gorm.DB) *UniversityHandler {
	return &UniversityHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateUniversityRequest represents the request body for creating a university
type CreateUniversityRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=255"`
	Location        string `json:"location" validate:"required,min=2,max=255"`
	Description     string `json:"description" validate:"omitempty,max=1000"`
	Website         string `json:"website" validate:"omitempty,url,max=255"`
	Logo            string `json:"logo" validate:"omitempty,max=512"`
	EstablishedYear int    `json:"established_year" validate:"omitempty,min=800,max=2100"`
	ContactEmail    string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone    string `json:"contact_phone" validate:"omitempty,max=50"`
}

// UpdateUniversityRequest represents the request body for updating a university.
// Only the fields listed here are patchable; anything else in the payload is
// dropped at decode time.
type UpdateUniversityRequest struct {
	Name            string `json:"name" validate:"omitempty,min=3,max=255"`
	Location        string `json:"location" validate:"omitempty,min=2,max=255"`
	Description     string `json:"description" validate:"omitempty,max=1000"`
	Website         string `json:"website" validate:"omitempty,url,max=255"`
	Logo            string `json:"logo" validate:"omitempty,max=512"`
	EstablishedYear int    `json:"established_year" validate:"omitempty,min=800,max=2100"`
	ContactEmail    string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone    string `json:"contact_phone" validate:"omitempty,max=50"`
	Verified        *bool  `json:"verified" validate:"omitempty"`
}

// UniversityRequestIntake represents a public request to add a university.
// This is an intake stub: the request is logged for operators, nothing is
// persisted.
type UniversityRequestIntake struct {
	Name         string `json:"name" validate:"required,min=3,max=255"`
	Location     string `json:"location" validate:"omitempty,max=255"`
	ContactEmail string `json:"contact_email" validate:"required,email,max=255"`
	Message      string `json:"message" validate:"omitempty,max=2000"`
}

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	search := c.Query("search", "")

	query := h.db.Model(&model.University{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(location) LIKE LOWER(?)",
			"%"+search+"%", "%"+search+"%")
	}

	var universities []model.University
	if err := query.Order("name ASC").Find(&universities).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch universities")
	}

	return response.Success(c, fiber.Map{
		"universities": universities,
		"count":        len(universities),
	})
}

// GetUniversity handles GET /api/v1/universities/:id
func (h *UniversityHandler) GetUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	return response.Success(c, university)
}

// CreateUniversity handles POST /api/v1/universities (admin only, enforced by
// route middleware)
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req CreateUniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Location = validation.SanitizeString(req.Location)

	// University names are unique across the platform
	var existing model.University
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return response.Conflict(c, "University with this name already exists")
	}

	university := model.University{
		Name:            req.Name,
		Location:        req.Location,
		Description:     req.Description,
		Website:         req.Website,
		Logo:            req.Logo,
		EstablishedYear: req.EstablishedYear,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		Verified:        true, // admin-created universities are verified
	}

	if err := h.db.Create(&university).Error; err != nil {
		return response.InternalServerError(c, "Failed to create university")
	}

	return response.Created(c, university)
}

// UpdateUniversity handles PUT /api/v1/universities/:id (admin only)
func (h *UniversityHandler) UpdateUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateUniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	// Update fields if provided
	if req.Name != "" {
		var existing model.University
		if err := h.db.Where("name = ? AND id != ?", req.Name, university.ID).First(&existing).Error; err == nil {
			return response.Conflict(c, "University with this name already exists")
		}
		university.Name = validation.SanitizeString(req.Name)
	}
	if req.Location != "" {
		university.Location = validation.SanitizeString(req.Location)
	}
	if req.Description != "" {
		university.Description = req.Description
	}
	if req.Website != "" {
		university.Website = req.Website
	}
	if req.Logo != "" {
		university.Logo = req.Logo
	}
	if req.EstablishedYear > 0 {
		university.EstablishedYear = req.EstablishedYear
	}
	if req.ContactEmail != "" {
		university.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != "" {
		university.ContactPhone = req.ContactPhone
	}
	if req.Verified != nil {
		university.Verified = *req.Verified
	}

	if err := h.db.Save(&university).Error; err != nil {
		return response.InternalServerError(c, "Failed to update university")
	}

	return response.SuccessWithMessage(c, "University updated successfully", university)
}

// DeleteUniversity handles DELETE /api/v1/universities/:id (admin only).
// The delete does not cascade: users, events and jobs keep their university
// reference and are orphaned until reassigned.
func (h *UniversityHandler) DeleteUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	if err := h.db.Delete(&university).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete university")
	}

	return response.SuccessWithMessage(c, "University deleted successfully", nil)
}

// RequestUniversity handles POST /api/v1/universities/request (public).
// Pure intake: the request is logged for operators to review, no University
// record is created.
func (h *UniversityHandler) RequestUniversity(c *fiber.Ctx) error {
	var req UniversityRequestIntake
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	log.Printf("[UNIVERSITY REQUEST] name=%q location=%q contact=%q message=%q",
		validation.SanitizeString(req.Name),
		validation.SanitizeString(req.Location),
		req.ContactEmail,
		validation.SanitizeString(req.Message))

	return response.SuccessWithMessage(c, "University request received. Our team will reach out to you", nil)
}
