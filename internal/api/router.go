package api

import (
	"net/http"
	"time"

	"cptracker/internal/api/handler"
	"cptracker/internal/api/middleware"
	"cptracker/internal/app/scheduler"
	"cptracker/internal/app/service"
	"cptracker/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	studentService *service.StudentService,
	syncService *service.SyncService,
	reminderService *service.ReminderService,
	inactivityService *service.InactivityService,
	sched *scheduler.Scheduler,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a token when present, puts claims in context. Enforcement
	// happens per-route in middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterRoutes(auth)
		})

		// Student roster, snapshots and reminders (authenticated)
		studentHandler := handler.NewStudentHandler(studentService, syncService, reminderService)
		inactivityHandler := handler.NewInactivityHandler(inactivityService, sched)
		v1.Route("/students", func(students chi.Router) {
			students.Use(middleware.Authenticator)
			inactivityHandler.RegisterRoutes(students)
			studentHandler.RegisterRoutes(students)
		})
	})

	return r
}
