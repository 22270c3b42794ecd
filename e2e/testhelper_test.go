package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/spynners/api/internal/auth"
	"github.com/spynners/api/internal/client"
	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/handler"
	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/store"
	ws "github.com/spynners/api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// setupApp creates a Fiber app identical to main.go but with an in-memory
// store and unconfigured external clients, so every service falls back to
// its mock behavior. Requires a localhost Redis; tests skip without one.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — DB 15 to avoid collision with dev data)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available on localhost:6379: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	// External clients — all unconfigured so mock fallbacks kick in
	acrClient := client.NewACRClient(&config.ACRCloudConfig{})
	placesClient := client.NewPlacesClient(&config.PlacesConfig{})
	base44Client := client.NewBase44Client(&config.Base44Config{})

	// Long recognition interval so no background cycle fires mid-test
	spynCfg := config.SpynConfig{
		RecognitionInterval: time.Hour,
		RecordingDuration:   8 * time.Second,
		MaxSessionDuration:  5 * time.Hour,
	}

	// Services (nil storage → data-URL fallbacks)
	recognizer := service.NewCatalogRecognizer(acrClient, st)
	offlineQueue := store.NewOfflineQueue(st)
	sessionService := service.NewSessionService(spynCfg, recognizer, offlineQueue,
		placesClient, base44Client, base44Client, hub, redisClient, asynqClient)
	recognitionService := service.NewRecognitionService(recognizer, redisClient)
	authService := service.NewAuthService(st, config.JWTConfig{Secret: testJWTSecret, Expiration: 1})
	trackService := service.NewTrackService(st, nil)
	chatService := service.NewChatService(st, nil)
	playlistService := service.NewPlaylistService(st)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	spynHandler := handler.NewSpynHandler(sessionService, validate)
	recognizeHandler := handler.NewRecognizeHandler(recognitionService, validate)
	placesHandler := handler.NewPlacesHandler(placesClient, base44Client, validate)
	trackHandler := handler.NewTrackHandler(trackService, validate)
	chatHandler := handler.NewChatHandler(chatService, validate)
	playlistHandler := handler.NewPlaylistHandler(playlistService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"acrcloud": false,
				"places":   false,
				"base44":   false,
				"r2":       false,
				"redis":    true,
			},
		})
	})

	authGroup := app.Group("/api/auth")
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)

	api := app.Group("/api", authMiddleware.Authenticate())
	api.Get("/auth/me", authHandler.Me)

	spyn := api.Group("/spyn")
	spyn.Post("/start", spynHandler.Start)
	spyn.Post("/sample", spynHandler.Sample)
	spyn.Get("/session", spynHandler.Session)
	spyn.Get("/session/:sessionId", spynHandler.StoredSession)
	spyn.Post("/end", spynHandler.End)
	spyn.Post("/reset", spynHandler.Reset)
	spyn.Post("/network", spynHandler.Network)
	spyn.Post("/sync", spynHandler.Sync)
	spyn.Get("/offline/pending", spynHandler.Pending)

	// Very high rate limits so tests don't get blocked
	recognize := api.Group("/recognize", rateLimiter.RecognizeLimit(10000))
	recognize.Post("/", recognizeHandler.Recognize)
	recognize.Get("/history", recognizeHandler.History)

	api.Get("/places/nearby", rateLimiter.PlacesLimit(10000), placesHandler.Nearby)
	api.Post("/notify-producer", placesHandler.NotifyProducer)

	tracks := api.Group("/tracks")
	tracks.Post("/upload", rateLimiter.UploadLimit(10000), trackHandler.Upload)
	tracks.Get("/", trackHandler.List)
	tracks.Post("/:trackId/play", trackHandler.Play)

	chat := api.Group("/chat", rateLimiter.ChatLimit(10000))
	chat.Post("/send", chatHandler.Send)
	chat.Get("/messages/:contactId", chatHandler.Messages)
	chat.Post("/voice", chatHandler.Voice)

	playlists := api.Group("/playlists")
	playlists.Post("/", playlistHandler.Create)
	playlists.Get("/", playlistHandler.List)
	playlists.Post("/:playlistId/tracks", playlistHandler.AddTrack)

	return &testApp{app: app}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, userID+"@example.com", "dj", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request authenticated as the given user.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body, userID string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t, userID),
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
