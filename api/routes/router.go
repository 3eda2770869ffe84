package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bbt3-alx/akera-backend/api/controllers"
	"github.com/Bbt3-alx/akera-backend/api/middleware"
	"github.com/Bbt3-alx/akera-backend/internal/actors"
	"github.com/Bbt3-alx/akera-backend/internal/buyops"
	"github.com/Bbt3-alx/akera-backend/internal/exchanges"
	"github.com/Bbt3-alx/akera-backend/internal/partners"
	"github.com/Bbt3-alx/akera-backend/internal/payments"
	"github.com/Bbt3-alx/akera-backend/internal/sells"
	"github.com/Bbt3-alx/akera-backend/internal/shipping"
	"github.com/Bbt3-alx/akera-backend/pkg/config"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
	"github.com/Bbt3-alx/akera-backend/pkg/metrics"
	pkgredis "github.com/Bbt3-alx/akera-backend/pkg/redis"
)

// Services groups the domain services the router exposes.
type Services struct {
	Actors    actors.Service
	Partners  partners.Service
	BuyOps    buyops.Service
	Shipping  shipping.Service
	Payments  payments.Service
	Sells     sells.Service
	Exchanges exchanges.Service
}

// NewRouter assembles the full HTTP surface. readiness holds the
// dependencies /health/ready pings by name.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	store pkgredis.IdempotencyStore,
	idempotencyMetrics *metrics.IdempotencyMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.CompanyContext(logg))
		r.Use(middleware.Idempotency(store, cfg.Idempotency.TTL, idempotencyMetrics, logg))

		// Accountants can read and record; tombstones, restores and
		// cancellations stay with admins and managers.
		canErase := middleware.RequireRoles(logg, enums.ManagerRoleAdmin, enums.ManagerRoleManager)

		r.Get("/me", controllers.Me(svcs.Actors, logg))

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", controllers.PartnerCreate(svcs.Partners, logg))
			r.Get("/", controllers.PartnerList(svcs.Partners, logg))
			r.Get("/{partnerID}", controllers.PartnerGet(svcs.Partners, logg))
			r.Patch("/{partnerID}", controllers.PartnerUpdate(svcs.Partners, logg))
			r.With(canErase).Delete("/{partnerID}", controllers.PartnerDelete(svcs.Partners, logg))
			r.With(canErase).Post("/{partnerID}/restore", controllers.PartnerRestore(svcs.Partners, logg))
		})

		r.Route("/buy-operations", func(r chi.Router) {
			r.Post("/", controllers.BuyOperationCreate(svcs.BuyOps, logg))
			r.Get("/", controllers.BuyOperationList(svcs.BuyOps, logg))
			r.Get("/{operationID}", controllers.BuyOperationGet(svcs.BuyOps, logg))
			r.Patch("/{operationID}", controllers.BuyOperationUpdate(svcs.BuyOps, logg))
			r.With(canErase).Delete("/{operationID}", controllers.BuyOperationDelete(svcs.BuyOps, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.ShipmentCreate(svcs.Shipping, logg))
			r.Get("/", controllers.ShipmentList(svcs.Shipping, logg))
			r.Get("/{shipmentID}", controllers.ShipmentGet(svcs.Shipping, logg))
			r.Patch("/{shipmentID}/status", controllers.ShipmentUpdateStatus(svcs.Shipping, logg))
			r.With(canErase).Post("/{shipmentID}/cancel", controllers.ShipmentCancel(svcs.Shipping, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentCreate(svcs.Payments, logg))
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.With(canErase).Post("/{paymentID}/cancel", controllers.PaymentCancel(svcs.Payments, logg))
		})

		r.Route("/sell-operations", func(r chi.Router) {
			r.Post("/", controllers.SellCreate(svcs.Sells, logg))
			r.Get("/", controllers.SellList(svcs.Sells, logg))
			r.Get("/{sellID}", controllers.SellGet(svcs.Sells, logg))
			r.Patch("/{sellID}", controllers.SellUpdate(svcs.Sells, logg))
			r.With(canErase).Delete("/{sellID}", controllers.SellDelete(svcs.Sells, logg))
		})

		r.Route("/usd-customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(svcs.Exchanges, logg))
			r.Get("/", controllers.CustomerList(svcs.Exchanges, logg))
			r.Get("/{customerID}", controllers.CustomerGet(svcs.Exchanges, logg))
			r.Patch("/{customerID}", controllers.CustomerUpdate(svcs.Exchanges, logg))
			r.With(canErase).Delete("/{customerID}", controllers.CustomerDelete(svcs.Exchanges, logg))
			r.With(canErase).Post("/{customerID}/restore", controllers.CustomerRestore(svcs.Exchanges, logg))
		})

		r.Route("/dollar-exchanges", func(r chi.Router) {
			r.Post("/", controllers.ExchangeCreate(svcs.Exchanges, logg))
			r.Get("/", controllers.ExchangeList(svcs.Exchanges, logg))
			r.Get("/{exchangeID}", controllers.ExchangeGet(svcs.Exchanges, logg))
			r.Patch("/{exchangeID}", controllers.ExchangeUpdate(svcs.Exchanges, logg))
			r.With(canErase).Delete("/{exchangeID}", controllers.ExchangeDelete(svcs.Exchanges, logg))
			r.With(canErase).Post("/{exchangeID}/restore", controllers.ExchangeRestore(svcs.Exchanges, logg))
		})
	})

	return r
}
