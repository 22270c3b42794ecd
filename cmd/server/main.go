package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/spynners/api/internal/client"
	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/handler"
	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/store"
	"github.com/spynners/api/internal/worker"
	ws "github.com/spynners/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Open the local SQLite store (catalog, users, offline queue)
	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	acrClient := client.NewACRClient(&cfg.ACRCloud)
	placesClient := client.NewPlacesClient(&cfg.Places)
	base44Client := client.NewBase44Client(&cfg.Base44)

	var storage client.StorageClient
	if r2, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("Warning: R2 not configured, uploads fall back to data URLs: %v", err)
	} else {
		storage = r2
	}

	// Initialize services
	recognizer := service.NewCatalogRecognizer(acrClient, st)
	offlineQueue := store.NewOfflineQueue(st)
	sessionService := service.NewSessionService(cfg.Spyn, recognizer, offlineQueue,
		placesClient, base44Client, base44Client, hub, redisClient, asynqClient)
	recognitionService := service.NewRecognitionService(recognizer, redisClient)
	authService := service.NewAuthService(st, cfg.JWT)
	trackService := service.NewTrackService(st, storage)
	chatService := service.NewChatService(st, storage)
	playlistService := service.NewPlaylistService(st)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	spynHandler := handler.NewSpynHandler(sessionService, validate)
	recognizeHandler := handler.NewRecognizeHandler(recognitionService, validate)
	placesHandler := handler.NewPlacesHandler(placesClient, base44Client, validate)
	trackHandler := handler.NewTrackHandler(trackService, validate)
	chatHandler := handler.NewChatHandler(chatService, validate)
	playlistHandler := handler.NewPlaylistHandler(playlistService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"acrcloud": acrClient.IsConfigured(),
				"places":   cfg.Places.APIKey != "",
				"base44":   cfg.Base44.BaseURL != "",
				"r2":       storage != nil,
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// Public auth routes
	auth := app.Group("/api/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)

	// Authenticated API routes
	api := app.Group("/api", authMiddleware.Authenticate())
	api.Get("/auth/me", authHandler.Me)

	// SPYN session routes
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

	// One-shot recognition
	recognize := api.Group("/recognize", rateLimiter.RecognizeLimit(cfg.RateLimit.RecognizePerMin))
	recognize.Post("/", recognizeHandler.Recognize)
	recognize.Get("/history", recognizeHandler.History)

	// Venue lookup and producer notifications
	api.Get("/places/nearby", rateLimiter.PlacesLimit(cfg.RateLimit.PlacesPerMin), placesHandler.Nearby)
	api.Post("/notify-producer", placesHandler.NotifyProducer)

	// Track catalog routes
	tracks := api.Group("/tracks")
	tracks.Post("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), trackHandler.Upload)
	tracks.Get("/", trackHandler.List)
	tracks.Post("/:trackId/play", trackHandler.Play)

	// Chat routes
	chat := api.Group("/chat", rateLimiter.ChatLimit(cfg.RateLimit.ChatPerMin))
	chat.Post("/send", chatHandler.Send)
	chat.Get("/messages/:contactId", chatHandler.Messages)
	chat.Post("/voice", chatHandler.Voice)

	// Playlist routes
	playlists := api.Group("/playlists")
	playlists.Post("/", playlistHandler.Create)
	playlists.Get("/", playlistHandler.List)
	playlists.Post("/:playlistId/tracks", playlistHandler.AddTrack)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/spyn/:sessionId", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionId")
		// Note: In production, validate the token from query param
		// token := c.Query("token")
		hub.HandleConnection(c, sessionID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, offlineQueue, recognizer, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, queue *store.OfflineQueue, recognizer *service.CatalogRecognizer, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"spyn": 10,
			},
		},
	)

	syncWorker := worker.NewSyncWorker(queue, recognizer, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeSpynSync, syncWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
