package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/prostore/internal/adapters/httpserver"
	"github.com/phenrril/prostore/internal/adapters/notify"
	"github.com/phenrril/prostore/internal/adapters/payments/paypal"
	"github.com/phenrril/prostore/internal/adapters/payments/stripe"
	"github.com/phenrril/prostore/internal/adapters/repo/postgres"
	"github.com/phenrril/prostore/internal/config"
	"github.com/phenrril/prostore/internal/domain"
	"github.com/phenrril/prostore/internal/usecase"
)

type App struct {
	Cfg *config.Config
	DB  *gorm.DB

	ProductUC *usecase.ProductUC
	CartUC    *usecase.CartUC
	OrderUC   *usecase.OrderUC
	PaymentUC *usecase.PaymentUC
	ReviewUC  *usecase.ReviewUC
	UserUC    *usecase.UserUC

	Pages         *httpserver.PageCache
	OAuthConfig   *oauth2.Config
	StripeWebhook httpserver.StripeWebhook
}

func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("app: config and db are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prodRepo := postgres.NewProductRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	reviewRepo := postgres.NewReviewRepo(db)
	userRepo := postgres.NewUserRepo(db)

	pages := httpserver.NewPageCache(5 * time.Minute)

	var channels notify.Fanout
	if cfg.SMTPEnabled() {
		channels = append(channels, notify.NewEmailNotifier(notify.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.SenderEmail,
		}))
	} else {
		log.Warn().Msg("SMTP not configured, purchase receipts will not be mailed")
	}
	if cfg.TelegramEnabled() {
		channels = append(channels, notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatIDs))
	}
	var notifier domain.Notifier = notify.Nop{}
	if len(channels) > 0 {
		notifier = channels
	}

	var providers []domain.PaymentProvider
	if cfg.PayPalEnabled() {
		providers = append(providers, paypal.NewGateway(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalAPIURL, cfg.Currency))
	} else {
		log.Warn().Msg("PayPal credentials missing, PayPal payments disabled")
	}
	var stripeGW *stripe.Gateway
	if cfg.StripeEnabled() {
		stripeGW = stripe.NewGateway(cfg.StripeSecretKey, cfg.Currency, cfg.StripeWebhookSecret)
		providers = append(providers, stripeGW)
	} else {
		log.Warn().Msg("Stripe key missing, Stripe payments disabled")
	}

	a := &App{Cfg: cfg, DB: db, Pages: pages}
	a.ProductUC = &usecase.ProductUC{Products: prodRepo, Pages: pages, PageSize: cfg.PageSize}
	a.CartUC = &usecase.CartUC{Carts: cartRepo, Products: prodRepo, Pages: pages}
	a.OrderUC = &usecase.OrderUC{Orders: orderRepo, Carts: cartRepo, Users: userRepo, Notifier: notifier, PageSize: cfg.PageSize}
	a.PaymentUC = usecase.NewPaymentUC(orderRepo, a.OrderUC, providers...)
	a.PaymentUC.Products = prodRepo
	a.ReviewUC = &usecase.ReviewUC{Reviews: reviewRepo, Products: prodRepo, Pages: pages}
	a.UserUC = &usecase.UserUC{Users: userRepo, Carts: cartRepo, PageSize: cfg.PageSize}
	if stripeGW != nil {
		a.StripeWebhook = stripeGW
	}

	if cfg.GoogleEnabled() {
		a.OAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products:      a.ProductUC,
		Carts:         a.CartUC,
		Orders:        a.OrderUC,
		Payments:      a.PaymentUC,
		Reviews:       a.ReviewUC,
		Users:         a.UserUC,
		Pages:         a.Pages,
		OAuth:         a.OAuthConfig,
		StripeWebhook: a.StripeWebhook,
		SessionKey:    a.Cfg.SessionKey,
		JWTSecret:     a.Cfg.JWTSecret,
		Secure:        !a.Cfg.IsDev(),
	})
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Product{}, &domain.Cart{}, &domain.Order{}, &domain.OrderItem{}, &domain.Review{},
	); err != nil {
		return err
	}
	return migrateExtras(db)
}

// migrateExtras applies what AutoMigrate cannot express. The name index only speeds up search;
// the stock check backs the oversell guard and must be in place.
func migrateExtras(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products (LOWER(name))").Error; err != nil {
		log.Warn().Err(err).Msg("product name index not created")
	}
	if err := db.Exec("ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock").Error; err != nil {
		return fmt.Errorf("drop stock check: %w", err)
	}
	if err := db.Exec("ALTER TABLE products ADD CONSTRAINT chk_products_stock CHECK (stock >= 0)").Error; err != nil {
		return fmt.Errorf("add stock check: %w", err)
	}
	return nil
}

// Seed inserts the sample catalog and the two default accounts. Existing rows are left alone.
func (a *App) Seed(ctx context.Context) error {
	var n int64
	if err := a.DB.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		for _, p := range sampleProducts() {
			p := p
			if err := a.DB.WithContext(ctx).Create(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Slug, err)
			}
		}
	}
	users := []struct {
		name, email, pass string
		role              domain.Role
	}{
		{"Admin", a.Cfg.AdminEmail, a.Cfg.AdminPassword, domain.RoleAdmin},
		{"Jane", "user@example.com", a.Cfg.AdminPassword, domain.RoleUser},
	}
	for _, su := range users {
		if err := a.DB.WithContext(ctx).Model(&domain.User{}).Where("LOWER(email) = LOWER(?)", su.email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(su.pass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := domain.User{ID: uuid.New(), Name: su.name, Email: su.email, PasswordHash: string(hash), Role: su.role}
		if err := a.DB.WithContext(ctx).Create(&u).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", su.email, err)
		}
	}
	log.Info().Msg("seed complete")
	return nil
}

func sampleProducts() []domain.Product {
	banner1, banner2 := "/images/banner-1.jpg", "/images/banner-2.jpg"
	mk := func(name, slug, cat, brand, price, rating string, reviews, stock int, featured bool, banner *string) domain.Product {
		return domain.Product{
			ID:          uuid.New(),
			Name:        name,
			Slug:        slug,
			Category:    cat,
			Brand:       brand,
			Description: name + " in a comfortable everyday fit",
			Images:      []string{"/images/sample-products/" + slug + "-1.jpg", "/images/sample-products/" + slug + "-2.jpg"},
			Price:       decimal.RequireFromString(price),
			Rating:      decimal.RequireFromString(rating),
			NumReviews:  reviews,
			Stock:       stock,
			IsFeatured:  featured,
			Banner:      banner,
		}
	}
	return []domain.Product{
		mk("Polo Sporting Stretch Shirt", "polo-sporting-stretch-shirt", "Men's Dress Shirts", "Polo", "59.99", "4.5", 10, 5, true, &banner1),
		mk("Brooks Brothers Long Sleeved Shirt", "brooks-brothers-long-sleeved-shirt", "Men's Dress Shirts", "Brooks Brothers", "85.90", "4.2", 8, 10, true, &banner2),
		mk("Tommy Hilfiger Classic Fit Dress Shirt", "tommy-hilfiger-classic-fit-dress-shirt", "Men's Dress Shirts", "Tommy Hilfiger", "99.95", "4.9", 3, 0, false, nil),
		mk("Calvin Klein Slim Fit Stretch Shirt", "calvin-klein-slim-fit-stretch-shirt", "Men's Dress Shirts", "Calvin Klein", "39.95", "3.6", 5, 10, false, nil),
		mk("Polo Ralph Lauren Oxford Shirt", "polo-ralph-lauren-oxford-shirt", "Men's Dress Shirts", "Polo", "79.99", "4.7", 18, 6, false, nil),
		mk("Polo Classic Pink Hoodie", "polo-classic-pink-hoodie", "Men's Sweatshirts", "Polo", "99.99", "4.6", 12, 8, false, nil),
	}
}
