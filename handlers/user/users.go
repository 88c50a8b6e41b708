package user

import (
	"strconv"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listings are capped so a tenant-wide query cannot dump the whole table.
const maxListSize = 50

// UserHandler handles user directory and follow-graph requests
type UserHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// UpdateUserRequest lists the patchable profile fields. Identity, role,
// email and university are deliberately absent: payloads carrying them are
// decoded without those fields ever reaching the record.
type UpdateUserRequest struct {
	Name           string         `json:"name" validate:"omitempty,min=2,max=255"`
	Bio            string         `json:"bio" validate:"omitempty,max=500"`
	Position       string         `json:"position" validate:"omitempty,max=255"`
	Company        string         `json:"company" validate:"omitempty,max=255"`
	GraduationYear int            `json:"graduation_year" validate:"omitempty,min=1900,max=2100"`
	Skills         datatypes.JSON `json:"skills" validate:"omitempty"`
	Location       string         `json:"location" validate:"omitempty,max=255"`
	Phone          string         `json:"phone" validate:"omitempty,max=50"`
	CGPA           *float64       `json:"cgpa" validate:"omitempty,min=0,max=10"`
	SocialLinks    datatypes.JSON `json:"social_links" validate:"omitempty"`
	ProfilePicture string         `json:"profile_picture" validate:"omitempty,max=512"`
}

// FollowResponse reports the direction a follow toggle resolved to
type FollowResponse struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	query := h.db.Model(&model.User{}).Preload("University")

	if universityID := c.Query("university"); universityID != "" {
		query = query.Where("university_id = ?", universityID)
	}
	if role := c.Query("role"); role != "" {
		if !model.ValidRole(role) {
			return response.BadRequest(c, "Invalid role filter")
		}
		query = query.Where("role = ?", role)
	}
	if year := c.Query("graduation_year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			query = query.Where("graduation_year = ?", y)
		}
	}
	if skill := c.Query("skill"); skill != "" {
		// Skills are stored as a JSON array of strings; substring match on the
		// serialized column works on both postgres and sqlite.
		query = query.Where("LOWER(CAST(skills AS TEXT)) LIKE LOWER(?)", "%\""+skill+"\"%")
	}

	var users []model.User
	if err := query.Order("name ASC").Limit(maxListSize).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Success(c, fiber.Map{
		"users": users,
		"count": len(users),
	})
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.Preload("University").First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	followers, following, err := h.followLists(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load follow graph")
	}

	return response.Success(c, fiber.Map{
		"user":      user,
		"followers": followers,
		"following": following,
	})
}

// UpdateUser handles PUT /api/v1/users/:id. Profiles are self-service only;
// even admins go through their own account.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	targetID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}
	if uint(targetID) != userID {
		return response.Forbidden(c, "You can only update your own profile")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	if req.Name != "" {
		user.Name = validation.SanitizeString(req.Name)
	}
	if req.Bio != "" {
		user.Bio = validation.SanitizeString(req.Bio)
	}
	if req.Position != "" {
		user.Position = validation.SanitizeString(req.Position)
	}
	if req.Company != "" {
		user.Company = validation.SanitizeString(req.Company)
	}
	if req.GraduationYear > 0 {
		user.GraduationYear = req.GraduationYear
	}
	if len(req.Skills) > 0 {
		user.Skills = req.Skills
	}
	if req.Location != "" {
		user.Location = validation.SanitizeString(req.Location)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.CGPA != nil {
		user.CGPA = *req.CGPA
	}
	if len(req.SocialLinks) > 0 {
		user.SocialLinks = req.SocialLinks
	}
	if req.ProfilePicture != "" {
		user.ProfilePicture = req.ProfilePicture
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", user)
}

// FollowUser handles POST /api/v1/users/:id/follow as a toggle. The membership
// check and the edge write run in one transaction so concurrent toggles
// cannot double-write the edge.
func (h *UserHandler) FollowUser(c *fiber.Ctx) error {
	id := c.Params("id")

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	targetID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}
	if uint(targetID) == userID {
		return response.InvalidOperation(c, "You cannot follow yourself")
	}

	var target model.User
	if err := h.db.First(&target, targetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var nowFollowing bool
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var edge model.UserFollow
		findErr := tx.Where("follower_id = ? AND following_id = ?", userID, target.ID).
			First(&edge).Error

		switch findErr {
		case nil:
			nowFollowing = false
			return tx.Where("follower_id = ? AND following_id = ?", userID, target.ID).
				Delete(&model.UserFollow{}).Error
		case gorm.ErrRecordNotFound:
			nowFollowing = true
			return tx.Create(&model.UserFollow{
				FollowerID:  userID,
				FollowingID: target.ID,
			}).Error
		default:
			return findErr
		}
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update follow state")
	}

	var followersCount int64
	if err := h.db.Model(&model.UserFollow{}).
		Where("following_id = ?", target.ID).
		Count(&followersCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to count followers")
	}

	message := "User followed"
	if !nowFollowing {
		message = "User unfollowed"
	}
	return response.SuccessWithMessage(c, message, FollowResponse{
		Following:      nowFollowing,
		FollowersCount: followersCount,
	})
}

// GetFollowers handles GET /api/v1/users/:id/followers
func (h *UserHandler) GetFollowers(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	followers, _, err := h.followLists(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load followers")
	}

	return response.Success(c, fiber.Map{
		"followers": followers,
		"count":     len(followers),
	})
}

// GetFollowing handles GET /api/v1/users/:id/following
func (h *UserHandler) GetFollowing(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	_, following, err := h.followLists(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load following")
	}

	return response.Success(c, fiber.Map{
		"following": following,
		"count":     len(following),
	})
}

// followLists resolves both sides of the follow graph for one user.
func (h *UserHandler) followLists(userID uint) (followers, following []model.User, err error) {
	err = h.db.
		Joins("JOIN user_follows ON user_follows.follower_id = users.id").
		Where("user_follows.following_id = ?", userID).
		Find(&followers).Error
	if err != nil {
		return nil, nil, err
	}

	err = h.db.
		Joins("JOIN user_follows ON user_follows.following_id = users.id").
		Where("user_follows.follower_id = ?", userID).
		Find(&following).Error
	if err != nil {
		return nil, nil, err
	}

	return followers, following, nil
}
