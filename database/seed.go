package database

import (
	"fmt"
	"log"

	"github.com/alumni-connect/api/config"
	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// Universities first: the admin user needs a tenant to belong to
	if err := s.SeedUniversities(); err != nil {
		return fmt.Errorf("failed to seed universities: %w", err)
	}

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedUniversities creates the default set of universities
func (s *Seeder) SeedUniversities() error {
	var count int64
	if err := s.db.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Universities already exist, skipping...")
		return nil
	}

	universities := []model.University{
		{
			Name:            "MIT - Massachusetts Institute of Technology",
			Location:        "Cambridge, MA",
			Verified:        true,
			StudentsCount:   4500,
			AlumniCount:     2800,
			EstablishedYear: 1861,
			ContactEmail:    "info@mit.edu",
			ContactPhone:    "+1-617-253-1000",
		},
		{
			Name:            "Stanford University",
			Location:        "Stanford, CA",
			Verified:        true,
			StudentsCount:   7800,
			AlumniCount:     5200,
			EstablishedYear: 1885,
			ContactEmail:    "info@stanford.edu",
			ContactPhone:    "+1-650-723-2300",
		},
		{
			Name:            "IIT Bombay",
			Location:        "Mumbai, India",
			Verified:        true,
			StudentsCount:   10200,
			AlumniCount:     8500,
			EstablishedYear: 1958,
			ContactEmail:    "info@iitb.ac.in",
			ContactPhone:    "+91-22-2576-4444",
		},
		{
			Name:            "Carnegie Mellon University",
			Location:        "Pittsburgh, PA",
			Verified:        true,
			StudentsCount:   6800,
			AlumniCount:     4100,
			EstablishedYear: 1900,
			ContactEmail:    "info@cmu.edu",
			ContactPhone:    "+1-412-268-2000",
		},
		{
			Name:            "Presidency University",
			Location:        "Bengaluru, India",
			Verified:        true,
			StudentsCount:   8500,
			AlumniCount:     3200,
			EstablishedYear: 2013,
			ContactEmail:    "info@presidencyuniversity.in",
			ContactPhone:    "+91-80-4012-9000",
		},
	}

	if err := s.db.Create(&universities).Error; err != nil {
		return err
	}

	log.Printf("Created %d universities", len(universities))
	return nil
}

// SeedAdminUser creates the default admin user from environment variables
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping...")
		return nil
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	if getEnv.ADMIN_EMAIL == "" || getEnv.ADMIN_PASSWORD == "" {
		log.Println("ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(getEnv.ADMIN_PASSWORD)
	if err != nil {
		return err
	}

	// Attach the admin to the first university on record
	var university model.University
	if err := s.db.Order("id ASC").First(&university).Error; err != nil {
		return fmt.Errorf("no university available for admin user: %w", err)
	}

	admin := model.User{
		Name:         "Platform Admin",
		Email:        getEnv.ADMIN_EMAIL,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		UniversityID: university.ID,
		IsVerified:   true,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user %s", admin.Email)
	return nil
}
