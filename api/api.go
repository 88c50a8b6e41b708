package api

import (
	"log"

	"github.com/alumni-connect/api/database"
	"github.com/gofiber/fiber/v2"
)

// APIServer owns the fiber engine and the listen address
type APIServer struct {
	app           *fiber.App
	listenAddress string
	store         database.Storage
}

// NewAPIServer creates a server listening on the given address
func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			// A post carries up to 5 attachments of 50MB each, plus
			// multipart framing.
			BodyLimit: 256 * 1024 * 1024,
		}),
		listenAddress: listenAddress,
	}
}

// GetEngine exposes the underlying fiber app for route registration
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run starts listening; blocks until shutdown
func (s *APIServer) Run() error {
	log.Println("Starting API server")
	log.Printf("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}
