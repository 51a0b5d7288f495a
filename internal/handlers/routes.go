package handlers

import (
	"net/http"
	"time"

	"github.com/shopkit/shopkit/internal/middleware"
	"github.com/shopkit/shopkit/internal/ratelimit"
	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/models"
)

// RouterDeps carries everything the route table needs. Handlers own no
// state beyond their services.
type RouterDeps struct {
	Config        *models.Config
	Logger        models.Logger
	Storage       models.CacheStorage
	Limiter       *ratelimit.Limiter
	Registry      *ratelimit.Registry
	Auth          *services.AuthService
	JWT           *services.JWTService
	Users         *services.UserService
	Products      *services.ProductService
	Payments      *services.PaymentService
	Subscriptions *services.SubscriptionService
	Webhooks      *WebhookHandler
}

// RegisterPolicies is the rate limit policy table: one explicit entry per
// limited route, validated eagerly so a bad policy fails at startup, not
// under load. Routes absent from this table are unlimited.
func RegisterPolicies(registry *ratelimit.Registry) {
	authPolicy := ratelimit.Policy{
		Window:  15 * time.Minute,
		Max:     5,
		Scope:   ratelimit.ScopeIP,
		Message: "Too many authentication attempts, please try again later.",
	}
	registry.MustRegister("POST /api/v1/auth/sign-in", authPolicy)
	registry.MustRegister("POST /api/v1/auth/sign-up", authPolicy)

	registry.MustRegister("POST /api/v1/auth/email-verification", ratelimit.Policy{
		Window:  15 * time.Minute,
		Max:     3,
		Scope:   ratelimit.ScopeIdentity,
		Message: "Too many verification emails requested, please try again later.",
	})
	registry.MustRegister("POST /api/v1/auth/change-password", ratelimit.Policy{
		Window: 15 * time.Minute,
		Max:    5,
		Scope:  ratelimit.ScopeIdentity,
	})

	catalogWrite := ratelimit.Policy{
		Window: time.Minute,
		Max:    60,
		Scope:  ratelimit.ScopeIdentity,
	}
	registry.MustRegister("POST /api/v1/products", catalogWrite)
	registry.MustRegister("PATCH /api/v1/products/{id}", catalogWrite)
	registry.MustRegister("POST /api/v1/products/{id}/stock", catalogWrite)
	registry.MustRegister("DELETE /api/v1/products/{id}", catalogWrite)

	registry.MustRegister("POST /api/v1/payments/intents", ratelimit.Policy{
		Window: time.Minute,
		Max:    30,
		Scope:  ratelimit.ScopeIdentity,
	})
}

// NewRouter assembles the full request pipeline: CORS and tenant
// resolution globally, then per-route rate limiting, authentication and
// RBAC in that order.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	cookieName := deps.Config.Session.CookieName

	authH := NewAuthHandler(deps.Config, deps.Auth, deps.Users, deps.Logger)
	productH := NewProductHandler(deps.Products, deps.Logger)
	paymentH := NewPaymentHandler(deps.Payments, deps.Logger)
	subscriptionH := NewSubscriptionHandler(deps.Subscriptions, deps.Logger)
	adminH := NewAdminHandler(deps.Storage, deps.Logger)

	limited := func(routeID string) func(http.Handler) http.Handler {
		return middleware.RateLimit(deps.Limiter, deps.Registry, deps.Logger, routeID)
	}
	requireAuth := middleware.Auth(deps.Auth, deps.JWT, cookieName)
	optionalAuth := middleware.OptionalAuth(deps.Auth, deps.JWT, cookieName)
	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleStaff)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	verifiedOnly := middleware.RequireVerifiedEmail(deps.Users)

	handle := func(routeID string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
		mux.Handle(routeID, middleware.Chain(h, mws...))
	}

	// Auth
	handle("POST /api/v1/auth/sign-up", authH.SignUp, limited("POST /api/v1/auth/sign-up"))
	handle("POST /api/v1/auth/sign-in", authH.SignIn, limited("POST /api/v1/auth/sign-in"))
	handle("POST /api/v1/auth/sign-out", authH.SignOut, requireAuth)
	handle("GET /api/v1/auth/me", authH.Me, requireAuth)
	handle("POST /api/v1/auth/email-verification", authH.SendEmailVerification,
		requireAuth, limited("POST /api/v1/auth/email-verification"))
	handle("GET /api/v1/auth/verify-email", authH.VerifyEmail)
	handle("POST /api/v1/auth/change-password", authH.ChangePassword,
		requireAuth, limited("POST /api/v1/auth/change-password"))

	// Catalog: public cached reads, staff-gated writes.
	handle("GET /api/v1/products", productH.List, optionalAuth)
	handle("GET /api/v1/products/{id}", productH.Get, optionalAuth)
	handle("POST /api/v1/products", productH.Create,
		requireAuth, staffOnly, limited("POST /api/v1/products"))
	handle("PATCH /api/v1/products/{id}", productH.Update,
		requireAuth, staffOnly, limited("PATCH /api/v1/products/{id}"))
	handle("POST /api/v1/products/{id}/stock", productH.AdjustStock,
		requireAuth, staffOnly, limited("POST /api/v1/products/{id}/stock"))
	handle("DELETE /api/v1/products/{id}", productH.Delete,
		requireAuth, staffOnly, limited("DELETE /api/v1/products/{id}"))

	// Payments
	handle("POST /api/v1/payments/intents", paymentH.CreateIntent,
		requireAuth, verifiedOnly, limited("POST /api/v1/payments/intents"))
	handle("GET /api/v1/payments", paymentH.List, requireAuth)
	handle("GET /api/v1/payments/{id}", paymentH.Get, requireAuth)
	handle("POST /api/v1/payments/{id}/refund", paymentH.Refund, requireAuth, staffOnly)
	handle("POST /api/v1/webhooks/payment", deps.Webhooks.HandlePaymentWebhook)

	// Subscriptions
	handle("POST /api/v1/subscriptions", subscriptionH.Create, requireAuth, verifiedOnly)
	handle("GET /api/v1/subscriptions", subscriptionH.List, requireAuth)
	handle("GET /api/v1/subscriptions/{id}", subscriptionH.Get, requireAuth)
	handle("POST /api/v1/subscriptions/{id}/cancel", subscriptionH.Cancel, requireAuth)

	// Admin
	handle("POST /api/v1/admin/cache/reset", adminH.ResetCache, requireAuth, adminOnly)

	return middleware.Chain(mux,
		middleware.Cors(deps.Config.Security.TrustedOrigins),
		middleware.Tenant(),
	)
}
