package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mypackmx/logistics-backend/api/controllers"
	webhookcontrollers "github.com/mypackmx/logistics-backend/api/controllers/webhooks"
	"github.com/mypackmx/logistics-backend/api/middleware"
	"github.com/mypackmx/logistics-backend/internal/auth"
	"github.com/mypackmx/logistics-backend/internal/branches"
	checkoutsvc "github.com/mypackmx/logistics-backend/internal/checkout"
	"github.com/mypackmx/logistics-backend/internal/pricing"
	routesvc "github.com/mypackmx/logistics-backend/internal/routes"
	"github.com/mypackmx/logistics-backend/internal/shipments"
	stripewebhook "github.com/mypackmx/logistics-backend/internal/webhooks/stripe"
	"github.com/mypackmx/logistics-backend/pkg/auth/session"
	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	pkgredis "github.com/mypackmx/logistics-backend/pkg/redis"
)

type stripeClient interface {
	SigningSecret() string
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	SessionManager   session.AccessSessionChecker
	IdempotencyStore pkgredis.IdempotencyStore

	AuthService     auth.Service
	PricingService  pricing.Service
	CheckoutService checkoutsvc.Service
	ShipmentService shipments.Service
	RouteService    routesvc.Service
	BranchService   branches.Service

	StripeClient         stripeClient
	StripeWebhookService *stripewebhook.Service

	// Readiness probes, keyed by dependency name.
	Pingers map[string]controllers.Pinger
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/tracking/{trackingNumber}", controllers.PublicTracking(d.ShipmentService, logg))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhookService, d.StripeClient, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(d.IdempotencyStore, logg)).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
	})

	// Quoting stays public so visitors can price a shipment before they
	// create an account.
	r.Post("/api/v1/quotes", controllers.Quote(d.PricingService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
		r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/logout", controllers.AuthLogout(d.AuthService, logg))
			r.Post("/checkout", controllers.Checkout(d.CheckoutService, logg))

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", controllers.MyShipments(d.ShipmentService, logg))
				r.Get("/{shipmentID}", controllers.MyShipmentDetail(d.ShipmentService, logg))
			})

			r.With(middleware.RequireAnyRole(logg, string(enums.UserRoleEmployee), string(enums.UserRoleAdmin))).
				Post("/agent/scan", controllers.AgentScan(d.ShipmentService, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/pending", controllers.AdminShipmentsByAssignment(d.ShipmentService, enums.AssignmentStatusPending, logg))
				r.Get("/active", controllers.AdminShipmentsByAssignment(d.ShipmentService, enums.AssignmentStatusActive, logg))
				r.Get("/completed", controllers.AdminShipmentsByAssignment(d.ShipmentService, enums.AssignmentStatusCompleted, logg))
				r.Post("/{shipmentID}/assign-route", controllers.AdminAssignRoute(d.ShipmentService, logg))
				r.Post("/{shipmentID}/status", controllers.AdminAdvanceStatus(d.ShipmentService, logg))
				r.Post("/status/bulk", controllers.AdminBulkAdvanceStatus(d.ShipmentService, logg))
			})

			r.Route("/pricing-rules", func(r chi.Router) {
				r.Get("/", controllers.AdminListPricingRules(d.PricingService, logg))
				r.Post("/", controllers.AdminCreatePricingRule(d.PricingService, logg))
				r.Put("/{ruleID}", controllers.AdminUpdatePricingRule(d.PricingService, logg))
				r.Patch("/{ruleID}/active", controllers.AdminSetPricingRuleActive(d.PricingService, logg))
			})

			r.Route("/insurance-rates", func(r chi.Router) {
				r.Get("/", controllers.AdminListInsuranceRates(d.PricingService, logg))
				r.Post("/", controllers.AdminCreateInsuranceRate(d.PricingService, logg))
				r.Put("/{rateID}", controllers.AdminUpdateInsuranceRate(d.PricingService, logg))
				r.Patch("/{rateID}/active", controllers.AdminSetInsuranceRateActive(d.PricingService, logg))
			})

			r.Route("/routes", func(r chi.Router) {
				r.Get("/", controllers.AdminListRoutes(d.RouteService, logg))
				r.Post("/", controllers.AdminCreateRoute(d.RouteService, logg))
				r.Get("/{routeID}", controllers.AdminGetRoute(d.RouteService, logg))
				r.Put("/{routeID}", controllers.AdminUpdateRoute(d.RouteService, logg))
				r.Patch("/{routeID}/active", controllers.AdminSetRouteActive(d.RouteService, logg))
			})

			r.Route("/branches", func(r chi.Router) {
				r.Get("/", controllers.AdminListBranches(d.BranchService, logg))
				r.Post("/", controllers.AdminCreateBranch(d.BranchService, logg))
				r.Get("/{branchID}", controllers.AdminGetBranch(d.BranchService, logg))
				r.Put("/{branchID}", controllers.AdminUpdateBranch(d.BranchService, logg))
				r.Patch("/{branchID}/active", controllers.AdminSetBranchActive(d.BranchService, logg))
			})
		})
	})

	return r
}
