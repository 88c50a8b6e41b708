package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/auth"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.University{}, &model.User{}, &model.JWTTokenBlacklist{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) model.User {
	t.Helper()

	uni := model.University{Name: "Acme University", Location: "Testville"}
	if err := db.Create(&uni).Error; err != nil {
		t.Fatalf("failed to create university: %v", err)
	}
	u := model.User{
		Name:         "Test User",
		Email:        "user@example.com",
		PasswordHash: "irrelevant",
		Role:         role,
		UniversityID: uni.ID,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func testManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
}

// TestRequiredPassesLiveContextDownstream guards the context plumbing: the
// guard and everything behind it must see a request context that is usable
// for database calls, not the transport's own context.
func TestRequiredPassesLiveContextDownstream(t *testing.T) {
	db := setupDB(t)
	jwtManager := testManager()
	user := seedUser(t, db, model.RoleStudent)
	token, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	app := fiber.New()
	app.Get("/guarded", NewAuthMiddleware(jwtManager, db).Required(), func(c *fiber.Ctx) error {
		if err := c.UserContext().Err(); err != nil {
			t.Errorf("request context dead before handler ran: %v", err)
		}
		var u model.User
		if err := db.WithContext(c.UserContext()).First(&u, c.Locals("user_id").(uint)).Error; err != nil {
			t.Errorf("database call with request context failed: %v", err)
		}
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 through the guard, got %d", res.StatusCode)
	}
}

func TestRequiredRejectsRevokedToken(t *testing.T) {
	db := setupDB(t)
	jwtManager := testManager()
	user := seedUser(t, db, model.RoleStudent)
	token, jti, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	blacklist := auth.NewBlacklistService(db)
	if err := blacklist.RevokeToken(context.Background(), jti, user.ID, time.Now().Add(time.Hour), "logout"); err != nil {
		t.Fatalf("failed to revoke token: %v", err)
	}

	app := fiber.New()
	app.Get("/guarded", NewAuthMiddleware(jwtManager, db).Required(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", res.StatusCode)
	}
}
