package api

import (
	"net/http"
	"strings"
	"time"

	"carrental/internal/auth"
	"carrental/internal/config"
	"carrental/internal/metrics"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type Deps struct {
	Config   *config.Config
	Logger   *zerolog.Logger
	Tokens   *auth.TokenManager
	Auth     Authenticator
	Cars     CarCatalog
	Bookings BookingManager
}

// NewRouter wires every route and wraps them in logging, panic recovery and CORS.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config

	authH := NewAuthHandler(d.Auth)
	carH := NewCarHandler(d.Cars, cfg.MaxFileSize)
	bookingH := NewBookingHandler(d.Bookings)
	healthH := NewHealthHandler(cfg.Env)

	authenticate := auth.Authenticate(d.Tokens, writeError)
	requireAdmin := auth.RequireAdmin(writeError)
	limit := auth.NewRateLimiter(cfg.AuthRatePerSec, cfg.AuthRateBurst).Middleware(writeError)

	user := func(h http.HandlerFunc) http.Handler { return authenticate(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authenticate(requireAdmin(h)) }

	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	r.NotFoundHandler = http.HandlerFunc(routeNotFound)

	r.HandleFunc("/api/health", healthH.Check).Methods(http.MethodGet)

	r.Handle("/api/auth/register", limit(http.HandlerFunc(authH.Register))).Methods(http.MethodPost)
	r.Handle("/api/auth/login", limit(http.HandlerFunc(authH.Login))).Methods(http.MethodPost)
	r.Handle("/api/auth/profile", user(authH.Profile)).Methods(http.MethodGet)
	r.Handle("/api/auth/profile", user(authH.UpdateProfile)).Methods(http.MethodPut)
	r.Handle("/api/auth/change-password", user(authH.ChangePassword)).Methods(http.MethodPut)

	r.HandleFunc("/api/cars", carH.List).Methods(http.MethodGet)
	r.Handle("/api/cars", admin(carH.Create)).Methods(http.MethodPost)
	r.HandleFunc("/api/cars/{id:[0-9]+}", carH.Get).Methods(http.MethodGet)
	r.Handle("/api/cars/{id:[0-9]+}", admin(carH.Update)).Methods(http.MethodPut)
	r.Handle("/api/cars/{id:[0-9]+}", admin(carH.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/api/cars/{id:[0-9]+}/check-availability", carH.CheckAvailability).Methods(http.MethodPost)

	r.Handle("/api/bookings", user(bookingH.Create)).Methods(http.MethodPost)
	r.Handle("/api/bookings", user(bookingH.List)).Methods(http.MethodGet)
	r.Handle("/api/bookings/{id:[0-9]+}/cancel", user(bookingH.Cancel)).Methods(http.MethodPut)

	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(cfg.UploadPath)))))
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var h http.Handler = r
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: d.Logger}),
		handlers.PrintRecoveryStack(!cfg.IsProduction()),
	)(h)
	h = hlog.NewHandler(*d.Logger)(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.FrontendURL}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowCredentials(),
	)(h)
	return h
}

func routeNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, Response{Message: "Route not found"})
}

// noListing hides directory indexes under /uploads.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			routeNotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type recoveryLogger struct {
	log *zerolog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.log.Error().Interface("panic", v).Msg("recovered from panic")
}
