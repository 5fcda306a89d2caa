package httpserver

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/phenrril/prostore/internal/adapters/payments/stripe"
	"github.com/phenrril/prostore/internal/usecase"
)

// StripeWebhook verifies Stripe event deliveries.
type StripeWebhook interface {
	VerifyWebhook(payload []byte, signature string) (*stripe.WebhookEvent, error)
}

type Deps struct {
	Products *usecase.ProductUC
	Carts    *usecase.CartUC
	Orders   *usecase.OrderUC
	Payments *usecase.PaymentUC
	Reviews  *usecase.ReviewUC
	Users    *usecase.UserUC
	Pages    *PageCache

	OAuth         *oauth2.Config
	StripeWebhook StripeWebhook

	SessionKey string
	JWTSecret  string
	Secure     bool
}

type Server struct {
	mux      *http.ServeMux
	products *usecase.ProductUC
	carts    *usecase.CartUC
	orders   *usecase.OrderUC
	payments *usecase.PaymentUC
	reviews  *usecase.ReviewUC
	users    *usecase.UserUC
	pages    *PageCache

	oauthCfg      *oauth2.Config
	stripeWebhook StripeWebhook

	cookies   signer
	jwtSecret []byte
	secure    bool
	now       func() time.Time
}

func New(d Deps) http.Handler {
	return newServer(d).handler()
}

func newServer(d Deps) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		products:      d.Products,
		carts:         d.Carts,
		orders:        d.Orders,
		payments:      d.Payments,
		reviews:       d.Reviews,
		users:         d.Users,
		pages:         d.Pages,
		oauthCfg:      d.OAuth,
		stripeWebhook: d.StripeWebhook,
		cookies:       signer{key: []byte(d.SessionKey)},
		jwtSecret:     []byte(d.JWTSecret),
		secure:        d.Secure,
		now:           time.Now,
	}
	if s.pages == nil {
		s.pages = NewPageCache(time.Minute)
	}
	s.routes()
	return s
}

func (s *Server) handler() http.Handler {
	return Chain(s.mux,
		Recovery,
		RequestID,
		Logging,
		s.SessionCart,
		s.Authenticate,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, "ok", nil)
	})

	// catalog
	s.mux.HandleFunc("GET /api/products", s.apiProducts)
	s.mux.HandleFunc("GET /api/products/latest", s.apiLatestProducts)
	s.mux.HandleFunc("GET /api/products/featured", s.apiFeaturedProducts)
	s.mux.HandleFunc("GET /api/products/{slug}", s.apiProductBySlug)
	s.mux.HandleFunc("GET /api/categories", s.apiCategories)

	// reviews
	s.mux.HandleFunc("GET /api/products/{id}/reviews", s.apiProductReviews)
	s.mux.HandleFunc("GET /api/products/{id}/reviews/mine", requireUser(s.apiMyReview))
	s.mux.HandleFunc("POST /api/reviews", requireUser(s.apiUpsertReview))

	// cart
	s.mux.HandleFunc("GET /api/cart", s.apiCart)
	s.mux.HandleFunc("POST /api/cart/items", s.apiCartAdd)
	s.mux.HandleFunc("DELETE /api/cart/items/{productId}", s.apiCartRemove)

	// auth
	s.mux.HandleFunc("POST /api/auth/signup", s.apiSignUp)
	s.mux.HandleFunc("POST /api/auth/signin", s.apiSignIn)
	s.mux.HandleFunc("POST /api/auth/signout", s.apiSignOut)
	s.mux.HandleFunc("GET /auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)

	// profile
	s.mux.HandleFunc("GET /api/user", requireUser(s.apiMe))
	s.mux.HandleFunc("PUT /api/user/address", requireUser(s.apiUpdateAddress))
	s.mux.HandleFunc("PUT /api/user/payment-method", requireUser(s.apiUpdatePaymentMethod))
	s.mux.HandleFunc("PUT /api/user/profile", requireUser(s.apiUpdateProfile))

	// orders and payments
	s.mux.HandleFunc("POST /api/orders", requireUser(s.apiCreateOrder))
	s.mux.HandleFunc("GET /api/orders/mine", requireUser(s.apiMyOrders))
	s.mux.HandleFunc("GET /api/orders/{id}", requireUser(s.apiOrderByID))
	s.mux.HandleFunc("POST /api/orders/{id}/pay", requireUser(s.apiStartPayment))
	s.mux.HandleFunc("POST /api/orders/{id}/approve", requireUser(s.apiApprovePayment))
	s.mux.HandleFunc("POST /webhooks/stripe", s.webhookStripe)

	// admin
	s.mux.HandleFunc("GET /api/admin/summary", requireAdmin(s.apiAdminSummary))
	s.mux.HandleFunc("GET /api/admin/orders", requireAdmin(s.apiAdminOrders))
	s.mux.HandleFunc("GET /api/admin/orders/export", requireAdmin(s.handleAdminExportOrders))
	s.mux.HandleFunc("DELETE /api/admin/orders/{id}", requireAdmin(s.apiAdminDeleteOrder))
	s.mux.HandleFunc("POST /api/admin/orders/{id}/paid", requireAdmin(s.apiAdminMarkPaid))
	s.mux.HandleFunc("POST /api/admin/orders/{id}/delivered", requireAdmin(s.apiAdminDeliver))
	s.mux.HandleFunc("POST /api/admin/products", requireAdmin(s.apiAdminCreateProduct))
	s.mux.HandleFunc("PUT /api/admin/products/{id}", requireAdmin(s.apiAdminUpdateProduct))
	s.mux.HandleFunc("DELETE /api/admin/products/{id}", requireAdmin(s.apiAdminDeleteProduct))
	s.mux.HandleFunc("DELETE /api/admin/products/{id}/images", requireAdmin(s.apiAdminRemoveImage))
	s.mux.HandleFunc("DELETE /api/admin/products/{id}/banner", requireAdmin(s.apiAdminRemoveBanner))
	s.mux.HandleFunc("GET /api/admin/users", requireAdmin(s.apiAdminUsers))
	s.mux.HandleFunc("PUT /api/admin/users/{id}", requireAdmin(s.apiAdminUpdateUser))
	s.mux.HandleFunc("DELETE /api/admin/users/{id}", requireAdmin(s.apiAdminDeleteUser))
}
