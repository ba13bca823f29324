package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selvamresidency/hotel-backend/api/controllers"
	"github.com/selvamresidency/hotel-backend/api/middleware"
	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	pkgredis "github.com/selvamresidency/hotel-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Redis may be nil, which
// disables rate limiting and idempotency.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Inventory inventory.Service
	Bookings  bookings.Service
	Redis     *pkgredis.Client
	// Health lists the dependencies pinged by /health/ready.
	Health   map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	loc, err := cfg.App.Location()
	if err != nil {
		// config.Load already rejected unknown zones
		loc = time.UTC
	}

	var (
		idemStore pkgredis.IdempotencyStore
		rateStore middleware.RateLimiterStore
	)
	if deps.Redis != nil {
		idemStore = deps.Redis
		rateStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	bookingPolicy := middleware.NewRateLimitPolicy(
		"booking",
		cfg.RateLimit.BookingWindow,
		cfg.RateLimit.BookingIPLimit,
		cfg.RateLimit.BookingEmailLimit,
	)
	loginPolicy := middleware.NewRateLimitPolicy(
		"admin-login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		0,
	)
	idempotency := middleware.Idempotency(idemStore, cfg.Redis.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rooms", controllers.ListRooms(deps.Inventory, logg))
		r.Get("/availability", controllers.DayAvailability(deps.Inventory, loc, logg))
		r.Get("/rooms/{roomId}/availability", controllers.RoomAvailability(deps.Inventory, loc, logg))
		r.Get("/rooms/{roomId}/quote", controllers.RoomQuote(deps.Inventory, logg))
		r.With(
			middleware.RateLimit(bookingPolicy, rateStore, logg),
			idempotency,
		).Post("/bookings", controllers.CreateBooking(deps.Bookings, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, rateStore, logg)).
			Post("/auth/login", controllers.AdminLogin(cfg.Admin, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Admin, logg))
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
			r.Use(idempotency)

			r.Get("/ping", controllers.AdminPing())
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", controllers.AdminListBookings(deps.Bookings, logg))
				r.Get("/stats", controllers.AdminBookingStats(deps.Bookings, logg))
				r.Get("/{bookingId}", controllers.AdminGetBooking(deps.Bookings, logg))
				r.Delete("/{bookingId}", controllers.AdminDeleteBooking(deps.Bookings, logg))
				r.Post("/{bookingId}/approve", controllers.AdminApproveBooking(deps.Bookings, logg))
				r.Post("/{bookingId}/reject", controllers.AdminRejectBooking(deps.Bookings, logg))
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/days/{date}", controllers.AdminGetDay(deps.Inventory, logg))
				r.Put("/days/{date}", controllers.AdminSaveDay(deps.Inventory, logg))
				r.Delete("/days/{date}", controllers.AdminResetDay(deps.Inventory, logg))
				r.Post("/bulk", controllers.AdminBulkUpdate(deps.Inventory, logg))
			})
		})
	})

	return r
}
