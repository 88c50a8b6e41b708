package post

import (
	"fmt"
	"mime/multipart"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/services/storage"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	maxListSize       = 50
	maxAttachments    = 5
	maxAttachmentSize = 50 * 1024 * 1024 // per file
)

// PostHandler handles feed post requests
type PostHandler struct {
	db        *gorm.DB
	store     storage.Store
	validator *validation.Validator
}

// NewPostHandler creates a new post handler
func NewPostHandler(db *gorm.DB, store storage.Store) *PostHandler {
	return &PostHandler{
		db:        db,
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CommentRequest represents the request body for commenting on a post
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// LikeResponse reports the direction a like toggle resolved to
type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// ListPosts handles GET /api/v1/posts
func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	query := h.db.Model(&model.Post{}).
		Preload("Author").
		Preload("Attachments").
		Preload("Comments.User")

	if universityID := c.Query("university"); universityID != "" {
		query = query.Where("university_id = ?", universityID)
	}

	var posts []model.Post
	if err := query.Order("created_at DESC").Limit(maxListSize).Find(&posts).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch posts")
	}

	return response.Success(c, fiber.Map{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost handles GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id := c.Params("id")

	var post model.Post
	if err := h.db.
		Preload("Author").
		Preload("Attachments").
		Preload("Comments.User").
		First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	return response.Success(c, post)
}

// CreatePost handles POST /api/v1/posts (authenticated multipart). Up to five
// attachments; each is classified by declared content type and stored under
// its kind prefix.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	content := c.FormValue("content")
	if content == "" {
		return response.BadRequest(c, "Post content is required")
	}

	// A bare form post without files is fine
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["attachments"]
	}
	if len(files) > maxAttachments {
		return response.BadRequest(c, fmt.Sprintf("A post can carry at most %d attachments", maxAttachments))
	}
	for _, f := range files {
		if f.Size > maxAttachmentSize {
			return response.BadRequest(c, "Attachment exceeds the 50MB per-file limit")
		}
	}

	post := model.Post{
		AuthorID:     user.ID,
		Content:      content,
		UniversityID: user.UniversityID,
	}

	// Store attachments before the record so a storage failure leaves no
	// half-written post
	var storedKeys []string
	for _, f := range files {
		contentType := f.Header.Get("Content-Type")
		kind := model.KindForContentType(contentType)

		key := storage.GenerateKey(prefixForKind(kind), f.Filename)
		src, err := f.Open()
		if err != nil {
			h.cleanupStored(c, storedKeys)
			return response.InternalServerError(c, "Failed to read attachment")
		}
		url, err := h.store.Save(c.UserContext(), key, src, contentType)
		src.Close()
		if err != nil {
			h.cleanupStored(c, storedKeys)
			return response.InternalServerError(c, "Failed to store attachment")
		}
		storedKeys = append(storedKeys, key)

		post.Attachments = append(post.Attachments, model.PostAttachment{
			Kind:     kind,
			URL:      url,
			Filename: f.Filename,
		})
	}

	if err := h.db.Create(&post).Error; err != nil {
		h.cleanupStored(c, storedKeys)
		return response.InternalServerError(c, "Failed to create post")
	}

	// Reload with the author resolved; fall back to the bare record
	_ = h.db.Preload("Author").Preload("Attachments").First(&post, post.ID).Error

	return response.Created(c, post)
}

// LikePost handles PUT /api/v1/posts/:id/like as a toggle. Membership check
// and row write share a transaction so repeated likes never double-count.
func (h *PostHandler) LikePost(c *fiber.Ctx) error {
	id := c.Params("id")

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var post model.Post
	if err := h.db.First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	var liked bool
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var like model.PostLike
		findErr := tx.Where("post_id = ? AND user_id = ?", post.ID, userID).
			First(&like).Error

		switch findErr {
		case nil:
			liked = false
			return tx.Where("post_id = ? AND user_id = ?", post.ID, userID).
				Delete(&model.PostLike{}).Error
		case gorm.ErrRecordNotFound:
			liked = true
			return tx.Create(&model.PostLike{PostID: post.ID, UserID: userID}).Error
		default:
			return findErr
		}
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update like")
	}

	var likesCount int64
	if err := h.db.Model(&model.PostLike{}).
		Where("post_id = ?", post.ID).
		Count(&likesCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to count likes")
	}

	message := "Post liked"
	if !liked {
		message = "Post unliked"
	}
	return response.SuccessWithMessage(c, message, LikeResponse{
		Liked:      liked,
		LikesCount: likesCount,
	})
}

// CommentOnPost handles POST /api/v1/posts/:id/comment. Returns the full
// refreshed comment list with author identities resolved.
func (h *PostHandler) CommentOnPost(c *fiber.Ctx) error {
	id := c.Params("id")

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var post model.Post
	if err := h.db.First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	comment := model.PostComment{
		PostID: post.ID,
		UserID: userID,
		Text:   validation.SanitizeString(req.Text),
	}
	if err := h.db.Create(&comment).Error; err != nil {
		return response.InternalServerError(c, "Failed to add comment")
	}

	var comments []model.PostComment
	if err := h.db.Preload("User").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return response.InternalServerError(c, "Failed to load comments")
	}

	return response.CreatedWithMessage(c, "Comment added", fiber.Map{
		"comments": comments,
		"count":    len(comments),
	})
}

// DeletePost handles DELETE /api/v1/posts/:id (author or admin)
func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var post model.Post
	if err := h.db.Preload("Attachments").First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	if post.AuthorID != user.ID && user.Role != model.RoleAdmin {
		return response.Forbidden(c, "Only the post author or an admin can delete this post")
	}

	if err := h.db.Select("Attachments", "Likes", "Comments").Delete(&post).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete post")
	}

	return response.SuccessWithMessage(c, "Post deleted successfully", nil)
}

// cleanupStored removes already-stored attachment files after a later failure
func (h *PostHandler) cleanupStored(c *fiber.Ctx, keys []string) {
	for _, key := range keys {
		_ = h.store.Delete(c.UserContext(), key)
	}
}

func prefixForKind(kind model.AttachmentKind) string {
	switch kind {
	case model.AttachmentKindImage:
		return storage.PrefixImages
	case model.AttachmentKindVideo:
		return storage.PrefixVideos
	default:
		return storage.PrefixDocuments
	}
}
