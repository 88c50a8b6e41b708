package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
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

func setupApp(t *testing.T, db *gorm.DB) (*fiber.App, *authutil.JWTManager) {
	t.Helper()

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	handler := NewChatHandler(db)

	app := fiber.New()
	chat := app.Group("/api/v1/chat", authMiddleware.Required())
	chat.Get("/conversations", handler.GetConversations)
	chat.Get("/unread/count", handler.GetUnreadCount)
	chat.Post("/", handler.SendMessage)
	chat.Put("/:messageId/read", handler.MarkMessageRead)
	chat.Get("/:userId", handler.GetHistory)
	return app, jwtManager
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) model.User {
	t.Helper()

	var uni model.University
	if err := db.Where("name = ?", "Acme University").First(&uni).Error; err != nil {
		uni = model.University{Name: "Acme University", Location: "Testville"}
		if err := db.Create(&uni).Error; err != nil {
			t.Fatalf("failed to create university: %v", err)
		}
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         model.RoleStudent,
		UniversityID: uni.ID,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return u
}

func tokenFor(t *testing.T, jwtManager *authutil.JWTManager, u model.User) string {
	t.Helper()
	token, _, err := jwtManager.GenerateAccessToken(u.ID, u.Email, u.Role, u.TokenVersion)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
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

func unreadCount(t *testing.T, app *fiber.App, token string) int64 {
	t.Helper()
	_, env := doRequest(t, app, "GET", "/api/v1/chat/unread/count", token, nil)
	var data struct {
		Unread int64 `json:"unread"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode unread count: %v", err)
	}
	return data.Unread
}

// TestMessageDeliveryAndRead walks a two-user exchange: send, unread badge,
// history fetch marks incoming messages read, and a repeat fetch changes
// nothing.
func TestMessageDeliveryAndRead(t *testing.T) {
	db := setupDB(t)
	app, jwtManager := setupApp(t, db)

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	aliceToken := tokenFor(t, jwtManager, alice)
	bobToken := tokenFor(t, jwtManager, bob)

	res, env := doRequest(t, app, "POST", "/api/v1/chat/", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "hello",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("send failed with status %d: %+v", res.StatusCode, env.Error)
	}

	if got := unreadCount(t, app, bobToken); got != 1 {
		t.Fatalf("expected 1 unread for Bob, got %d", got)
	}
	// The sender's own badge is untouched
	if got := unreadCount(t, app, aliceToken); got != 0 {
		t.Fatalf("expected 0 unread for Alice, got %d", got)
	}

	// Bob opens the thread: the message comes back and is marked read
	historyPath := fmt.Sprintf("/api/v1/chat/%d", alice.ID)
	_, env = doRequest(t, app, "GET", historyPath, bobToken, nil)
	var data struct {
		Messages []model.Message `json:"messages"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if data.Count != 1 || data.Messages[0].Text != "hello" {
		t.Fatalf("unexpected history: %+v", data)
	}

	if got := unreadCount(t, app, bobToken); got != 0 {
		t.Fatalf("expected 0 unread after opening thread, got %d", got)
	}

	// Fetching again is a no-op
	_, _ = doRequest(t, app, "GET", historyPath, bobToken, nil)
	if got := unreadCount(t, app, bobToken); got != 0 {
		t.Fatalf("repeat fetch changed unread count to %d", got)
	}

	// Alice's conversation list shows Bob with the last message
	_, env = doRequest(t, app, "GET", "/api/v1/chat/conversations", aliceToken, nil)
	var convData struct {
		Conversations []Conversation `json:"conversations"`
		Count         int            `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &convData); err != nil {
		t.Fatalf("failed to decode conversations: %v", err)
	}
	if convData.Count != 1 {
		t.Fatalf("expected one conversation, got %d", convData.Count)
	}
	conv := convData.Conversations[0]
	if conv.User.ID != bob.ID || conv.LastMessage.Text != "hello" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestConversationsKeepLatestMessagePerCounterpart(t *testing.T) {
	db := setupDB(t)
	app, jwtManager := setupApp(t, db)

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	carol := seedUser(t, db, "Carol", "carol@example.com")
	aliceToken := tokenFor(t, jwtManager, alice)

	send := func(token string, to uint, text string) {
		res, env := doRequest(t, app, "POST", "/api/v1/chat/", token, SendMessageRequest{ReceiverID: to, Text: text})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("send %q failed with status %d: %+v", text, res.StatusCode, env.Error)
		}
		// sqlite timestamps have second precision in some configurations;
		// force distinct created_at ordering explicitly
		time.Sleep(5 * time.Millisecond)
	}
	send(aliceToken, bob.ID, "bob one")
	send(aliceToken, carol.ID, "carol one")
	send(tokenFor(t, jwtManager, bob), alice.ID, "bob two")

	_, env := doRequest(t, app, "GET", "/api/v1/chat/conversations", aliceToken, nil)
	var data struct {
		Conversations []Conversation `json:"conversations"`
		Count         int            `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode conversations: %v", err)
	}
	if data.Count != 2 {
		t.Fatalf("expected two conversations, got %d", data.Count)
	}
	// Most recent activity first, each with its latest message
	if data.Conversations[0].User.ID != bob.ID || data.Conversations[0].LastMessage.Text != "bob two" {
		t.Fatalf("expected Bob thread first with latest message, got %+v", data.Conversations[0])
	}
	if data.Conversations[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread from Bob, got %d", data.Conversations[0].UnreadCount)
	}
	if data.Conversations[1].User.ID != carol.ID || data.Conversations[1].LastMessage.Text != "carol one" {
		t.Fatalf("expected Carol thread second, got %+v", data.Conversations[1])
	}
}

func TestSelfMessageRejected(t *testing.T) {
	db := setupDB(t)
	app, jwtManager := setupApp(t, db)

	alice := seedUser(t, db, "Alice", "alice@example.com")
	res, env := doRequest(t, app, "POST", "/api/v1/chat/", tokenFor(t, jwtManager, alice), SendMessageRequest{
		ReceiverID: alice.ID,
		Text:       "note to self",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-message, got %d", res.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "INVALID_OPERATION" {
		t.Fatalf("expected INVALID_OPERATION, got %+v", env.Error)
	}
}

func TestMarkMessageReadReceiverOnly(t *testing.T) {
	db := setupDB(t)
	app, jwtManager := setupApp(t, db)

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	carol := seedUser(t, db, "Carol", "carol@example.com")

	msg := model.Message{SenderID: alice.ID, ReceiverID: bob.ID, Text: "for bob"}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	path := fmt.Sprintf("/api/v1/chat/%d/read", msg.ID)

	// Neither the sender nor a third party may mark it
	for _, u := range []model.User{alice, carol} {
		res, _ := doRequest(t, app, "PUT", path, tokenFor(t, jwtManager, u), nil)
		if res.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 for %s, got %d", u.Name, res.StatusCode)
		}
	}

	res, _ := doRequest(t, app, "PUT", path, tokenFor(t, jwtManager, bob), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("receiver mark-read failed with %d", res.StatusCode)
	}
	var reloaded model.Message
	if err := db.First(&reloaded, msg.ID).Error; err != nil {
		t.Fatalf("failed to reload message: %v", err)
	}
	if !reloaded.Read {
		t.Fatal("message not marked read")
	}

	// Marking again is harmless
	res, _ = doRequest(t, app, "PUT", path, tokenFor(t, jwtManager, bob), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("repeat mark-read failed with %d", res.StatusCode)
	}
}
