package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alumni-connect/api/database"
	"github.com/alumni-connect/api/model"
	authutil "github.com/alumni-connect/api/utils/auth"
	"github.com/alumni-connect/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

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

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	handler := NewAuthHandler(db, jwtManager, nil)

	app := fiber.New()
	api := app.Group("/api/v1")
	authGroup := api.Group("/auth")
	authGroup.Post("/register", handler.Register)
	authGroup.Post("/login", handler.Login)
	authGroup.Post("/refresh", handler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), handler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), handler.ChangePassword)
	api.Get("/profile", authMiddleware.Required(), handler.GetProfile)
	return app
}

func seedUniversity(t *testing.T, db *gorm.DB) model.University {
	t.Helper()
	uni := model.University{Name: "Acme University", Location: "Testville"}
	if err := db.Create(&uni).Error; err != nil {
		t.Fatalf("failed to create university: %v", err)
	}
	return uni
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return res, env
}

func register(t *testing.T, app *fiber.App, uniID uint, name, email, password, role string) (*http.Response, envelope) {
	t.Helper()
	return doRequest(t, app, "POST", "/api/v1/auth/register", "", RegisterRequest{
		Name:         name,
		Email:        email,
		Password:     password,
		Role:         role,
		UniversityID: uniID,
	})
}

func TestRegisterLoginProfile(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)

	res, env := register(t, app, uni.ID, "Alice", "alice@example.com", "secret-password", "alumni")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register failed with status %d: %+v", res.StatusCode, env.Error)
	}
	var reg RegisterResponse
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Fatal("registration must issue both tokens")
	}
	if reg.User.Role != model.RoleAlumni {
		t.Fatalf("expected alumni role, got %s", reg.User.Role)
	}

	// The stored hash is never the raw password
	var stored model.User
	if err := db.Where("email = ?", "alice@example.com").First(&stored).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if stored.PasswordHash == "secret-password" {
		t.Fatal("password stored in plain text")
	}

	res, env = doRequest(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d: %+v", res.StatusCode, env.Error)
	}
	var login LoginResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	res, env = doRequest(t, app, "GET", "/api/v1/profile", login.AccessToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("profile fetch failed with status %d: %+v", res.StatusCode, env.Error)
	}
	var profile model.User
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.University == nil || profile.University.Name != "Acme University" {
		t.Fatalf("profile university not populated: %+v", profile.University)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)

	// Unknown university
	res, _ := register(t, app, uni.ID+100, "Bob", "bob@example.com", "secret-password", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown university, got %d", res.StatusCode)
	}

	// Admin role cannot be self-assigned
	res, _ = register(t, app, uni.ID, "Bob", "bob@example.com", "secret-password", "admin")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for admin self-registration, got %d", res.StatusCode)
	}

	// Weak password
	res, _ = register(t, app, uni.ID, "Bob", "bob@example.com", "short", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", res.StatusCode)
	}

	// Duplicate email
	res, _ = register(t, app, uni.ID, "Bob", "bob@example.com", "secret-password", "")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("first registration should succeed, got %d", res.StatusCode)
	}
	res, _ = register(t, app, uni.ID, "Bob Again", "bob@example.com", "secret-password", "")
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", res.StatusCode)
	}

	// Omitted role defaults to student
	var user model.User
	if err := db.Where("email = ?", "bob@example.com").First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Role != model.RoleStudent {
		t.Fatalf("expected default student role, got %s", user.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)
	register(t, app, uni.ID, "Alice", "alice@example.com", "secret-password", "")

	res, env := doRequest(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", res.StatusCode)
	}
	wrongPassword := env.Error.Message

	res, env = doRequest(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret-password",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", res.StatusCode)
	}
	// The same message in both cases: no account enumeration
	if env.Error.Message != wrongPassword {
		t.Fatalf("error messages differ: %q vs %q", wrongPassword, env.Error.Message)
	}
}

func TestChangePasswordInvalidatesOldTokens(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)

	_, env := register(t, app, uni.ID, "Alice", "alice@example.com", "secret-password", "")
	var reg RegisterResponse
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	oldToken := reg.AccessToken

	res, env := doRequest(t, app, "POST", "/api/v1/auth/change-password", oldToken, ChangePasswordRequest{
		OldPassword: "secret-password",
		NewPassword: "even-more-secret",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("change password failed with status %d: %+v", res.StatusCode, env.Error)
	}

	// Old token carries the stale token version
	res, _ = doRequest(t, app, "GET", "/api/v1/profile", oldToken, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale token, got %d", res.StatusCode)
	}

	// Old password no longer works, new one does
	res, _ = doRequest(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{
		Email: "alice@example.com", Password: "secret-password",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for retired password, got %d", res.StatusCode)
	}
	res, _ = doRequest(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{
		Email: "alice@example.com", Password: "even-more-secret",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login with new password failed with %d", res.StatusCode)
	}
}

func TestRefreshTokenFlow(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)

	_, env := register(t, app, uni.ID, "Alice", "alice@example.com", "secret-password", "")
	var reg RegisterResponse
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	res, env := doRequest(t, app, "POST", "/api/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: reg.RefreshToken,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("refresh failed with status %d: %+v", res.StatusCode, env.Error)
	}
	var refreshed RefreshResponse
	if err := json.Unmarshal(env.Data, &refreshed); err != nil {
		t.Fatalf("failed to decode refresh response: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("refresh must issue a fresh token pair")
	}

	// The new access token is usable
	res, _ = doRequest(t, app, "GET", "/api/v1/profile", refreshed.AccessToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("refreshed access token rejected with %d", res.StatusCode)
	}

	// An access token is not accepted as a refresh token
	res, _ = doRequest(t, app, "POST", "/api/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: reg.AccessToken,
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 when refreshing with an access token, got %d", res.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	db := setupDB(t)
	app := setupApp(t, db)
	uni := seedUniversity(t, db)

	_, env := register(t, app, uni.ID, "Alice", "alice@example.com", "secret-password", "")
	var reg RegisterResponse
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	res, _ := doRequest(t, app, "POST", "/api/v1/auth/logout", reg.AccessToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout failed with status %d", res.StatusCode)
	}

	var blacklisted int64
	if err := db.Model(&model.JWTTokenBlacklist{}).Count(&blacklisted).Error; err != nil {
		t.Fatalf("failed to count blacklist rows: %v", err)
	}
	if blacklisted != 1 {
		t.Fatalf("expected one blacklisted token, got %d", blacklisted)
	}

	res, _ = doRequest(t, app, "GET", "/api/v1/profile", reg.AccessToken, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", res.StatusCode)
	}
}
