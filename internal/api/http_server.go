package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/config"
	"slotbook/internal/service"

	"github.com/rs/zerolog"
)

// Services bundles the operations the HTTP API exposes.
type Services struct {
	Users     *service.UserService
	Slots     *service.SlotService
	Bookings  *service.BookingService
	Reconcile *service.ReconcileService
	Queries   *service.QueryService
}

// Pinger reports store readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer exposes the booking API over JSON.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     Services
	ready   Pinger
	server  *http.Server
	handler http.Handler
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, svc Services, tokens *auth.TokenManager, ready Pinger, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, svc: svc, ready: ready, logger: logger, now: time.Now}

	mux := http.NewServeMux()
	srv.routes(mux)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(newRateLimiter(cfg.RateLimit), handler)
	handler = NewAuthenticator(tokens).Wrap(handler)
	handler = recoverMiddleware(handler)
	handler = loggingMiddleware(logger, handler)
	srv.handler = handler

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/slots", s.handleListSlots)
	mux.HandleFunc("POST /api/slots", requireAdmin(s.handleCreateSlot))
	mux.HandleFunc("PUT /api/slots/{id}", requireAdmin(s.handleUpdateSlot))
	mux.HandleFunc("DELETE /api/slots/{id}", requireAdmin(s.handleDeleteSlot))
	mux.HandleFunc("GET /api/admin/slots", requireAdmin(s.handleAdminSlots))
	mux.HandleFunc("GET /api/user/slots", requireUser(s.handleUserSlots))
	mux.HandleFunc("GET /api/user/slots/available", requireUser(s.handleAvailableSlots))

	mux.HandleFunc("POST /api/bookings", requireUser(s.handleCreateBooking))
	mux.HandleFunc("PATCH /api/bookings/{id}", requireUser(s.handleUpdateBooking))
	mux.HandleFunc("DELETE /api/bookings/{id}", requireUser(s.handleDeleteBooking))
	mux.HandleFunc("GET /api/bookings/user", requireUser(s.handleUserBookings))

	mux.HandleFunc("GET /api/admin/bookings", requireAdmin(s.handleAdminBookings))
	mux.HandleFunc("GET /api/admin/bookings/confirmed", requireAdmin(s.handleConfirmedBookings))
	mux.HandleFunc("GET /api/admin/bookings/export", requireAdmin(s.handleExportBookings))
	mux.HandleFunc("PATCH /api/admin/bookings/{id}/status", requireAdmin(s.handleSetStatus))

	mux.HandleFunc("GET /api/users/profile", requireUser(s.handleGetProfile))
	mux.HandleFunc("PATCH /api/users/profile", requireUser(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/admin/users", requireAdmin(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/users", requireAdmin(s.handleCreateUser))
	mux.HandleFunc("PUT /api/admin/users/{id}", requireAdmin(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", requireAdmin(s.handleDeleteUser))
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.PingContext(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
