package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/handler"
	"github.com/dmceachern/rebook/internal/ics"
	"github.com/dmceachern/rebook/internal/middleware"
	"github.com/dmceachern/rebook/internal/revenue"
	"github.com/dmceachern/rebook/internal/store"
	"github.com/dmceachern/rebook/internal/sync"
	ws "github.com/dmceachern/rebook/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	svc          *family.Service
	scheduler    *sync.Scheduler
	authH        *handler.AuthHandler
	familyH      *handler.FamilyHandler
	appointmentH *handler.AppointmentHandler
	clientH      *handler.ClientHandler
	templateH    *handler.TemplateHandler
	calendarH    *handler.CalendarHandler
	revenueH     *handler.RevenueHandler
	syncH        *handler.SyncHandler
	sessionStore *store.SessionStore
	adminStore   *store.AdminStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, syncCron string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	appointmentStore := store.NewAppointmentStore(db)
	clientStore := store.NewClientStore(db)
	templateStore := store.NewTemplateStore(db)
	adminStore := store.NewAdminStore(db)
	sessionStore := store.NewSessionStore(db)

	svc := family.NewService(familyStore, appointmentStore, clientStore, templateStore, logger.With("component", "family"))
	feed := ics.NewFeed(svc)
	estimator := revenue.NewEstimator(familyStore, appointmentStore, svc, logger)
	scheduler := sync.NewScheduler(svc, syncCron, logger)

	return &Server{
		db:           db,
		hub:          hub,
		svc:          svc,
		scheduler:    scheduler,
		authH:        handler.NewAuthHandler(adminStore, sessionStore, logger.With("component", "auth")),
		familyH:      handler.NewFamilyHandler(svc, feed, hub, logger.With("component", "family_handler")),
		appointmentH: handler.NewAppointmentHandler(svc, hub, logger.With("component", "appointment_handler")),
		clientH:      handler.NewClientHandler(clientStore, logger.With("component", "client")),
		templateH:    handler.NewTemplateHandler(templateStore, logger.With("component", "template")),
		calendarH:    handler.NewCalendarHandler(svc, familyStore, appointmentStore, logger.With("component", "calendar")),
		revenueH:     handler.NewRevenueHandler(estimator, logger.With("component", "revenue")),
		syncH:        handler.NewSyncHandler(scheduler, logger.With("component", "sync_handler")),
		sessionStore: sessionStore,
		adminStore:   adminStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// Scheduler returns the sync scheduler so main can start and stop it.
func (s *Server) Scheduler() *sync.Scheduler {
	return s.scheduler
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.adminStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Family lifecycle
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("PUT /api/families/{id}/rule", s.familyH.UpdateRule)
	mux.HandleFunc("POST /api/families/{id}/stop", s.familyH.Stop)
	mux.HandleFunc("POST /api/families/{id}/restart", s.familyH.Restart)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)
	mux.HandleFunc("GET /api/families/{id}/occurrences", s.familyH.Occurrences)
	mux.HandleFunc("GET /api/families/{id}/calendar.ics", s.familyH.CalendarFeed)

	// Appointment instances
	mux.HandleFunc("POST /api/appointments/{id}/confirm", s.appointmentH.Confirm)
	mux.HandleFunc("POST /api/appointments/{id}/skip", s.appointmentH.Skip)
	mux.HandleFunc("POST /api/appointments/{id}/reschedule", s.appointmentH.Reschedule)
	mux.HandleFunc("POST /api/appointments/{id}/complete", s.appointmentH.Complete)

	// Month views
	mux.HandleFunc("GET /api/calendar", s.calendarH.Month)
	mux.HandleFunc("GET /api/revenue", s.revenueH.Month)
	mux.HandleFunc("POST /api/sync", s.syncH.Run)

	// Client CRUD
	mux.HandleFunc("POST /api/clients", s.clientH.Create)
	mux.HandleFunc("GET /api/clients", s.clientH.List)
	mux.HandleFunc("GET /api/clients/{id}", s.clientH.Get)
	mux.HandleFunc("PUT /api/clients/{id}", s.clientH.Update)
	mux.HandleFunc("DELETE /api/clients/{id}", s.clientH.Delete)

	// Service template CRUD
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("GET /api/templates/{id}", s.templateH.Get)
	mux.HandleFunc("PUT /api/templates/{id}", s.templateH.Update)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)
}
