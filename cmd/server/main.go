package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/actions"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/alert"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/database"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/handlers"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/ingest"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/middleware"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/registry"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/services"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 SMARTECOBIN TELEMETRY CORE STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Database migrations failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	if err := database.SeedUsers(db); err != nil {
		log.Fatalf("❌ User seeding failed: %v", err)
	}
	if err := database.SeedBins(db); err != nil {
		log.Fatalf("❌ Bin seeding failed: %v", err)
	}

	// Stores
	binStore := database.NewBinStore(db)
	readingStore := database.NewReadingStore(db)
	notificationStore := database.NewNotificationStore(db)
	actionStore := database.NewActionStore(db)
	tokenStore := database.NewFCMTokenStore(db)

	// Registry: load persisted snapshots, then the in-memory state is
	// authoritative and writes through to Postgres.
	reg := registry.New(binStore)
	bins, err := binStore.LoadBins()
	if err != nil {
		log.Fatalf("❌ Failed to load bins: %v", err)
	}
	reg.Load(bins)
	log.Printf("✅ Registry loaded %d bins", len(bins))

	// Alert thresholds (hot-reloadable)
	alertConfigPath := os.Getenv("ALERTS_CONFIG")
	if alertConfigPath == "" {
		alertConfigPath = "configs/alerts.yaml"
	}
	loader := alert.NewLoader(alertConfigPath)
	if stop, err := loader.Watch(); err != nil {
		log.Printf("⚠️  Alert config watch disabled: %v", err)
	} else {
		defer stop()
	}
	engine := alert.NewEngine(loader)

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	if fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); fcmCredsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}
		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Notification delivery pipeline
	notifier := services.NewPushNotifier(fcmService, tokenStore, wsHub)
	dispatcher := alert.NewDispatcher(notificationStore, notifier, 256)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Core components
	ingestor := ingest.New(reg, engine, dispatcher, readingStore, wsHub)
	arbiter := actions.New(reg, dispatcher, actionStore, wsHub)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Telemetry ingest (device publishers, no user auth)
		r.Post("/sensor/readings", handlers.IngestReading(ingestor))

		// Bin state queries (dashboards, no auth required)
		r.Get("/bins", handlers.GetBins(reg))
		r.Get("/bins/{id}", handlers.GetBin(reg))

		// Notification history
		r.Get("/notifications", handlers.GetNotifications(notificationStore))

		// Action submission: anonymous callers act as the public role,
		// authenticated callers carry their own.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth)
			r.Post("/actions", handlers.SubmitAction(arbiter))
		})

		// Staff endpoints (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)

			r.Get("/auth/status", handlers.GetAuthStatus(db))
			r.Post("/auth/fcm-token", handlers.RegisterFCMToken(tokenStore))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleOfficer, models.RoleAdmin))

				r.Post("/bins", handlers.CreateBin(reg))
				r.Delete("/bins/{id}", handlers.DeleteBin(reg))
				r.Get("/bins/{id}/actions", handlers.GetBinActions(actionStore))
			})
		})
	})

	// Get port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}
