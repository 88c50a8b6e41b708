package router

import (
	"log"
	"os"
	"time"

	"github.com/alumni-connect/api/database"
	"github.com/alumni-connect/api/handlers"
	auth_handlers "github.com/alumni-connect/api/handlers/auth"
	chat_handlers "github.com/alumni-connect/api/handlers/chat"
	event_handlers "github.com/alumni-connect/api/handlers/event"
	job_handlers "github.com/alumni-connect/api/handlers/job"
	post_handlers "github.com/alumni-connect/api/handlers/post"
	university_handlers "github.com/alumni-connect/api/handlers/university"
	user_handlers "github.com/alumni-connect/api/handlers/user"
	"github.com/alumni-connect/api/services/storage"
	"github.com/alumni-connect/api/utils/auth"
	"github.com/alumni-connect/api/utils/cache"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires every handler group onto the fiber app.
func SetupRoutes(app *fiber.App, store database.Storage, files storage.Store) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "alumni-connect-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	universityHandler := university_handlers.NewUniversityHandler(db)
	userHandler := user_handlers.NewUserHandler(db)
	eventHandler := event_handlers.NewEventHandler(db)
	jobHandler := job_handlers.NewJobHandler(db, files)
	postHandler := post_handlers.NewPostHandler(db, files)
	chatHandler := chat_handlers.NewChatHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HealthCheck(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile route (protected)
	api.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)

	// Universities routes
	universities := api.Group("/universities")
	universities.Get("/", universityHandler.ListUniversities)                                      // Public: List universities
	universities.Post("/request", universityHandler.RequestUniversity)                             // Public: Intake stub
	universities.Get("/:id", universityHandler.GetUniversity)                                      // Public: Get university by ID
	universities.Post("/", authMiddleware.RequireAdmin(), universityHandler.CreateUniversity)      // Admin only
	universities.Put("/:id", authMiddleware.RequireAdmin(), universityHandler.UpdateUniversity)    // Admin only
	universities.Delete("/:id", authMiddleware.RequireAdmin(), universityHandler.DeleteUniversity) // Admin only

	// Users routes. Directory reads are public; mutations need identity.
	users := api.Group("/users")
	users.Get("/", userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", authMiddleware.Required(), userHandler.UpdateUser)         // Self only
	users.Post("/:id/follow", authMiddleware.Required(), userHandler.FollowUser) // Toggle
	users.Get("/:id/followers", userHandler.GetFollowers)
	users.Get("/:id/following", userHandler.GetFollowing)

	// Events routes
	events := api.Group("/events")
	events.Get("/", eventHandler.ListEvents)                                  // Public: List events
	events.Get("/:id", eventHandler.GetEvent)                                 // Public: Get event by ID
	events.Post("/", authMiddleware.Required(), eventHandler.CreateEvent)     // Protected: Create event
	events.Post("/:id/join", authMiddleware.Optional(), eventHandler.JoinEvent) // Public registration, identity linked when present
	events.Delete("/:id", authMiddleware.Required(), eventHandler.DeleteEvent)  // Creator/admin

	// Jobs routes
	jobs := api.Group("/jobs")
	jobs.Get("/", jobHandler.ListJobs)                                        // Public: List active jobs
	jobs.Get("/:id", jobHandler.GetJob)                                       // Public: Get job by ID
	jobs.Post("/", authMiddleware.Required(), jobHandler.CreateJob)           // Alumni/admin only
	jobs.Post("/:id/apply", authMiddleware.Optional(), jobHandler.ApplyToJob) // Public multipart apply
	jobs.Put("/:jobId/applications/:applicationId", authMiddleware.Required(), jobHandler.UpdateApplicationStatus) // Poster only
	jobs.Delete("/:id", authMiddleware.Required(), jobHandler.DeleteJob)      // Poster/admin

	// Posts routes. The feed is readable without a session.
	posts := api.Group("/posts")
	posts.Get("/", postHandler.ListPosts)
	posts.Get("/:id", postHandler.GetPost)
	posts.Post("/", authMiddleware.Required(), postHandler.CreatePost)
	posts.Put("/:id/like", authMiddleware.Required(), postHandler.LikePost)
	posts.Post("/:id/comment", authMiddleware.Required(), postHandler.CommentOnPost)
	posts.Delete("/:id", authMiddleware.Required(), postHandler.DeletePost)

	// Chat routes (all protected). Static segments registered before :userId
	// so they are not swallowed by the parameter route.
	chat := api.Group("/chat", authMiddleware.Required())
	chat.Post("/", chatHandler.SendMessage)
	chat.Get("/conversations", chatHandler.GetConversations)
	chat.Get("/unread/count", chatHandler.GetUnreadCount)
	chat.Put("/:messageId/read", chatHandler.MarkMessageRead)
	chat.Get("/:userId", chatHandler.GetHistory)
}
