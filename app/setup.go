package app

import (
	"fmt"
	"log"
	"os"

	"github.com/alumni-connect/api/api"
	"github.com/alumni-connect/api/config"
	"github.com/alumni-connect/api/database"
	"github.com/alumni-connect/api/router"
	"github.com/alumni-connect/api/services/cron"
	"github.com/alumni-connect/api/services/storage"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// SetupAndRunServer boots the whole stack: env, database, seed data, file
// storage, cron jobs, middleware, routes. Blocks serving until shutdown.
func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Println("Check whether Postgres is running and DB_* variables are set")
		return err
	}

	if err := store.Init(); err != nil {
		log.Println("Failed to run database migrations")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Seed reference data and the bootstrap admin
	if err := database.NewSeeder(db).SeedAll(); err != nil {
		log.Printf("Warning: seeding failed: %v", err)
	}

	// Pick the file storage backend
	files, err := buildStorage(getEnv)
	if err != nil {
		return err
	}

	// Start cron jobs unless explicitly disabled
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(db)
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Locally stored uploads are served straight from disk
	if local, ok := files.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Root())
	}

	// Setup routes
	router.SetupRoutes(app, store, files)

	return server.Run()
}

// buildStorage selects the storage backend from the environment: Spaces in
// production, local disk everywhere else.
func buildStorage(env *config.EnviornmentVariable) (storage.Store, error) {
	if env.STORAGE_BACKEND == "spaces" {
		return storage.NewSpacesStore(storage.SpacesConfig{
			AccessKey: env.SPACES_ACCESS_KEY,
			SecretKey: env.SPACES_SECRET_KEY,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
			CDNURL:    env.SPACES_CDN_URL,
		})
	}
	return storage.NewLocalStore(env.UPLOAD_DIR, "/uploads")
}
