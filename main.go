package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/bernhaaard/3d-tic-tac-toe/backend/config"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/db"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/handlers"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/jobs"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/middlewares"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/server"
	"github.com/bernhaaard/3d-tic-tac-toe/backend/websocket"
)

func main() {
	log.Println("Starting 3D tic-tac-toe backend server...")

	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.LoadConfig()
	config.LoadOAuthConfig()

	dbUri := config.GetEnv("DB_URI", "")
	port := config.GetEnv("PORT", "8080")

	dbMaxOpenConns := config.GetEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	dbMaxIdleConns := config.GetEnvAsInt("DB_MAX_IDLE_CONNS", 25)
	dbConnMaxLifetimeMin := config.GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	err = db.InitDB(dbUri, dbMaxOpenConns, dbMaxIdleConns, dbConnMaxLifetimeMin)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is an optional cache in front of Postgres, so a failed init
	// only logs.
	if err := db.InitRedis(); err != nil {
		log.Printf("Redis unavailable, session lookups fall back to Postgres: %v", err)
	}
	defer db.CloseRedis()

	jobs.StartSessionCleanupCron()

	connectionManager := websocket.NewConnectionManager()
	sessionManager := server.NewSessionManager()

	r := chi.NewRouter()
	r.Use(middlewares.EnableCORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.CreateUpgrader()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Error during connection upgrade:", err)
			return
		}

		websocket.HandleConnection(conn, connectionManager, sessionManager)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", handlers.HandleSignup)
		r.Post("/auth/login", handlers.MakeHandleLogin(connectionManager))
		r.Post("/auth/logout", handlers.HandleLogout)
		r.Get("/auth/me", handlers.HandleMe)

		r.Get("/auth/google/login", handlers.HandleGoogleLogin)
		r.Get("/auth/google/callback", handlers.HandleGoogleCallback)
		r.Post("/auth/google/complete", handlers.HandleCompleteGoogleSignup)

		r.Get("/games", handlers.HandleGameHistory)
		r.Get("/games/{gameID}", handlers.HandleGetBoard)
		r.Get("/leaderboard", handlers.HandleLeaderboard)
		r.Get("/sessions", handlers.HandleSessionHistory)
	})

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	log.Printf("Server is listening on port %s\n", port)

	// Start server in a separate goroutine
	go func() {
		err = httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Server is shutting down gracefully...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
