package job

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/services/storage"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/alumni-connect/api/utils/pdfvalidation"
	"github.com/alumni-connect/api/utils/response"
	"github.com/alumni-connect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	errJobInactive    = errors.New("job inactive")
	errAlreadyApplied = errors.New("already applied")
)

// JobHandler handles job posting and application requests
type JobHandler struct {
	db        *gorm.DB
	store     storage.Store
	validator *validation.Validator
}

// NewJobHandler creates a new job handler
func NewJobHandler(db *gorm.DB, store storage.Store) *JobHandler {
	return &JobHandler{
		db:        db,
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateJobRequest represents the request body for creating a job posting
type CreateJobRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=255"`
	Company      string   `json:"company" validate:"required,max=255"`
	Description  string   `json:"description" validate:"required"`
	Location     string   `json:"location" validate:"required,max=255"`
	Type         string   `json:"type" validate:"required"`
	Salary       string   `json:"salary" validate:"omitempty,max=100"`
	Requirements []string `json:"requirements" validate:"omitempty,dive,max=500"`
	Deadline     string   `json:"deadline" validate:"omitempty"` // YYYY-MM-DD
	CompanyLogo  string   `json:"company_logo" validate:"omitempty,max=512"`
}

// UpdateApplicationStatusRequest carries the new classification label
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListJobs handles GET /api/v1/jobs. Only active postings are listed.
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	query := h.db.Model(&model.Job{}).Preload("University").Preload("PostedBy").
		Where("is_active = ?", true)

	if universityID := c.Query("university"); universityID != "" {
		query = query.Where("university_id = ?", universityID)
	}
	if jobType := c.Query("type"); jobType != "" {
		if !model.ValidJobType(model.JobType(jobType)) {
			return response.BadRequest(c, "Invalid job type filter")
		}
		query = query.Where("type = ?", jobType)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("LOWER(location) LIKE LOWER(?)", "%"+location+"%")
	}

	var jobs []model.Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch jobs")
	}

	return response.Success(c, fiber.Map{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")

	var job model.Job
	if err := h.db.Preload("University").Preload("PostedBy").Preload("Applications").
		First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	return response.Success(c, job)
}

// CreateJob handles POST /api/v1/jobs. Students browse and apply; only
// alumni and admins post.
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	if user.Role != model.RoleAlumni && user.Role != model.RoleAdmin {
		return response.Forbidden(c, "Only alumni and admins can post jobs")
	}

	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	jobType := model.JobType(req.Type)
	if !model.ValidJobType(jobType) {
		return response.BadRequest(c, "Invalid job type")
	}

	var deadline *time.Time
	if req.Deadline != "" {
		d, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			return response.BadRequest(c, "Invalid deadline. Expected format YYYY-MM-DD")
		}
		deadline = &d
	}

	var requirements datatypes.JSON
	if len(req.Requirements) > 0 {
		raw, err := json.Marshal(req.Requirements)
		if err != nil {
			return response.BadRequest(c, "Invalid requirements list")
		}
		requirements = raw
	}

	job := model.Job{
		Title:        validation.SanitizeString(req.Title),
		Company:      validation.SanitizeString(req.Company),
		Description:  req.Description,
		Location:     validation.SanitizeString(req.Location),
		Type:         jobType,
		Salary:       req.Salary,
		Requirements: requirements,
		Deadline:     deadline,
		IsActive:     true,
		CompanyLogo:  req.CompanyLogo,
		UniversityID: user.UniversityID,
		PostedByID:   user.ID,
	}

	if err := h.db.Create(&job).Error; err != nil {
		return response.InternalServerError(c, "Failed to create job")
	}

	return response.Created(c, job)
}

// ApplyToJob handles POST /api/v1/jobs/:id/apply (public multipart). The
// resume is validated before anything is written; the duplicate-email and
// active checks share a transaction with the insert.
func (h *JobHandler) ApplyToJob(c *fiber.Ctx) error {
	id := c.Params("id")

	name := validation.SanitizeString(c.FormValue("name"))
	email := c.FormValue("email")
	coverLetter := c.FormValue("cover_letter")

	if name == "" || email == "" {
		return response.BadRequest(c, "Name and email are required")
	}
	if !validation.ValidateEmail(email) {
		return response.BadRequest(c, "Invalid email address")
	}

	var cgpa float64
	if raw := c.FormValue("cgpa"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 10 {
			return response.BadRequest(c, "CGPA must be a number between 0 and 10")
		}
		cgpa = parsed
	}

	file, err := c.FormFile("resume")
	if err != nil {
		return response.BadRequest(c, "A PDF resume is required")
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.ResumeLimits)
	if err != nil {
		return response.InternalServerError(c, "Failed to read resume")
	}
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	var job model.Job
	if err := h.db.First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	// Store the resume only after validation passed
	content, err := file.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read resume")
	}
	defer content.Close()

	key := storage.GenerateKey(storage.PrefixResumes, file.Filename)
	resumeURL, err := h.store.Save(c.UserContext(), key, content, "application/pdf")
	if err != nil {
		return response.InternalServerError(c, "Failed to store resume")
	}

	var userID *uint
	if id, ok := middleware.GetUserID(c); ok {
		userID = &id
	}

	application := model.JobApplication{
		JobID:       job.ID,
		UserID:      userID,
		Name:        name,
		Email:       email,
		Resume:      resumeURL,
		CGPA:        cgpa,
		CoverLetter: coverLetter,
		Status:      model.ApplicationStatusPending,
	}

	var applyErr error
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var current model.Job
		if err := tx.First(&current, job.ID).Error; err != nil {
			return err
		}
		if !current.IsActive {
			applyErr = errJobInactive
			return errJobInactive
		}

		var existing model.JobApplication
		findErr := tx.Where("job_id = ? AND email = ?", job.ID, email).
			First(&existing).Error
		if findErr == nil {
			applyErr = errAlreadyApplied
			return errAlreadyApplied
		}
		if findErr != gorm.ErrRecordNotFound {
			return findErr
		}

		return tx.Create(&application).Error
	})
	if err != nil {
		// The stored resume belongs to no record; best effort removal
		_ = h.store.Delete(c.UserContext(), key)

		switch applyErr {
		case errJobInactive:
			return response.InvalidOperation(c, "This job is no longer accepting applications")
		case errAlreadyApplied:
			return response.InvalidOperation(c, "An application with this email already exists for this job")
		default:
			return response.InternalServerError(c, "Failed to submit application")
		}
	}

	return response.CreatedWithMessage(c, "Application submitted successfully", application)
}

// UpdateApplicationStatus handles PUT /api/v1/jobs/:jobId/applications/:applicationId.
// Only the poster classifies applications; the status set is flat, any label
// may follow any other.
func (h *JobHandler) UpdateApplicationStatus(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	applicationID := c.Params("applicationId")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateApplicationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	status := model.ApplicationStatus(req.Status)
	if !model.ValidApplicationStatus(status) {
		return response.BadRequest(c, "Invalid application status")
	}

	var job model.Job
	if err := h.db.First(&job, jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	if job.PostedByID != user.ID {
		return response.Forbidden(c, "Only the job poster can update application status")
	}

	var application model.JobApplication
	if err := h.db.Where("job_id = ?", job.ID).First(&application, applicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Application not found")
		}
		return response.InternalServerError(c, "Failed to fetch application")
	}

	if err := h.db.Model(&application).Update("status", status).Error; err != nil {
		return response.InternalServerError(c, "Failed to update application status")
	}
	application.Status = status

	return response.SuccessWithMessage(c, "Application status updated", application)
}

// DeleteJob handles DELETE /api/v1/jobs/:id (poster or admin)
func (h *JobHandler) DeleteJob(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var job model.Job
	if err := h.db.First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Job not found")
		}
		return response.InternalServerError(c, "Failed to fetch job")
	}

	if job.PostedByID != user.ID && user.Role != model.RoleAdmin {
		return response.Forbidden(c, "Only the job poster or an admin can delete this job")
	}

	if err := h.db.Select("Applications").Delete(&job).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete job")
	}

	return response.SuccessWithMessage(c, "Job deleted successfully", nil)
}
