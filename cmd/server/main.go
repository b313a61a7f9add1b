package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"codecourse/internal/config"
	"codecourse/internal/database"
	"codecourse/internal/handlers"
	"codecourse/internal/pictures"
	"codecourse/internal/policy"
	"codecourse/internal/repository"
	"codecourse/internal/security"
	"codecourse/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load templates
	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// Reset tokens are signed with a configured secret so links survive
	// restarts; without one, an ephemeral secret keeps development working
	secret := []byte(cfg.ResetTokenSecret)
	if len(secret) == 0 {
		secret = randomSecret()
		log.Println("Warning: RESET_TOKEN_SECRET not set, reset links will not survive a restart")
	}
	tokens := security.NewResetTokenIssuer(secret, cfg.ResetTokenMaxAge)

	// Email delivery is optional; without a sender address the reset flow
	// still issues tokens but sends nothing
	mailer, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.ResetTokenMaxAge, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if mailer.IsEnabled() {
		log.Printf("Email delivery enabled (from: %s)", cfg.SESFromEmail)
	} else {
		log.Println("Email delivery disabled")
	}

	picStore := pictures.NewStore(cfg.StaticFilesPath)
	gate := policy.NewGate()

	// Initialize services
	authService := service.NewAuthService(db, picStore, tokens, mailer, cfg.SessionDuration, cfg.RememberDuration)
	contentService := service.NewContentService(db, picStore, gate, cfg.PageSize)

	// Credential endpoints share one limiter
	loginLimiter := security.NewRateLimiter(10, time.Minute)

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, gate, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, templates)
	profileHandler := handlers.NewProfileHandler(authService, contentService, templates, cfg.UploadMaxSize)
	courseHandler := handlers.NewCourseHandler(contentService, templates, cfg.UploadMaxSize)
	lessonHandler := handlers.NewLessonHandler(authService, contentService, gate, templates, cfg.UploadMaxSize)
	uploadHandler := handlers.NewUploadHandler(picStore, cfg.UploadMaxSize)
	adminHandler := handlers.NewAdminHandler(contentService, repository.NewUserRepository(db), templates)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("GET /{$}", middleware.OptionalAuth(lessonHandler.Home))
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /reset_password", authHandler.ShowForgotPassword)
	mux.HandleFunc("POST /reset_password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("GET /reset_password/{token}", authHandler.ShowResetPassword)
	mux.HandleFunc("POST /reset_password/{token}", authHandler.ResetPassword)

	// Catalogue routes
	mux.HandleFunc("GET /courses", middleware.OptionalAuth(courseHandler.ShowCourses))
	mux.HandleFunc("GET /courses/new", middleware.RequireAuth(courseHandler.ShowNewCourse))
	mux.HandleFunc("POST /courses/new", middleware.RequireAuth(courseHandler.CreateCourse))
	mux.HandleFunc("GET /courses/{courseSlug}", middleware.OptionalAuth(courseHandler.ShowCourse))
	mux.HandleFunc("GET /courses/{courseSlug}/{lessonSlug}", middleware.OptionalAuth(lessonHandler.ViewLesson))
	mux.HandleFunc("GET /author/{username}", middleware.OptionalAuth(profileHandler.ShowAuthor))

	// Protected routes
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(profileHandler.Dashboard))
	mux.HandleFunc("GET /account", middleware.RequireAuth(profileHandler.ShowAccount))
	mux.HandleFunc("POST /account", middleware.RequireAuth(profileHandler.UpdateAccount))
	mux.HandleFunc("GET /lessons/new", middleware.RequireAuth(lessonHandler.ShowNewLesson))
	mux.HandleFunc("POST /lessons/new", middleware.RequireAuth(lessonHandler.CreateLesson))
	mux.HandleFunc("GET /lessons/{id}/edit", middleware.RequireAuth(lessonHandler.ShowEditLesson))
	mux.HandleFunc("POST /lessons/{id}/update", middleware.RequireAuth(lessonHandler.UpdateLesson))
	mux.HandleFunc("POST /lessons/{id}/delete", middleware.RequireAuth(lessonHandler.DeleteLesson))
	mux.HandleFunc("POST /upload-image", middleware.RequireAuth(uploadHandler.UploadImage))

	// Admin routes
	mux.HandleFunc("GET /admin/dashboard", middleware.RequireAdmin(adminHandler.Dashboard))
	mux.HandleFunc("GET /admin/users", middleware.RequireAdmin(adminHandler.ShowUsers))
	mux.HandleFunc("POST /admin/users/{id}/admin", middleware.RequireAdmin(adminHandler.SetUserAdmin))
	mux.HandleFunc("GET /admin/courses", middleware.RequireAdmin(adminHandler.ShowCourses))
	mux.HandleFunc("POST /admin/courses/{id}/delete", middleware.RequireAdmin(adminHandler.DeleteCourse))
	mux.HandleFunc("GET /admin/lessons", middleware.RequireAdmin(adminHandler.ShowLessons))
	mux.HandleFunc("POST /admin/lessons/{id}/delete", middleware.RequireAdmin(adminHandler.DeleteLesson))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	patterns := []string{
		filepath.Join(templatesPath, "*.tmpl"),
		filepath.Join(templatesPath, "auth/*.tmpl"),
		filepath.Join(templatesPath, "admin/*.tmpl"),
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		// Lesson content comes from the rich-text editor and renders as HTML
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}

// randomSecret generates an ephemeral signing secret
func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	return []byte(hex.EncodeToString(b))
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}
	}
}
