package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/mailer"
	"storefront/internal/observability"
	"storefront/internal/payments"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// 管理画面用のJWT（adminToken Cookieに入る）
type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID string, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "storefront order & cart API",
		// サブコマンド無しはserve
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create tables and indexes",
				Action: migrate,
			},
			{
				Name:   "dedupe-carts",
				Usage:  "merge duplicated cart lines for every user",
				Action: dedupeCarts,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// 設定・ロガー・DBをまとめて用意する
func bootstrap() (config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	gormDB, err := db.Connect(cfg.DSN(), logger)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("connect db: %w", err)
	}
	return cfg, logger, gormDB, nil
}

func migrate(c *cli.Context) error {
	_, logger, gormDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migration finished")
	return nil
}

func dedupeCarts(c *cli.Context) error {
	_, logger, gormDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := observability.WithLogger(c.Context, logger)
	cartUC := usecase.NewCartUsecase(infraRepo.NewCartItemGormRepository(gormDB))

	n, err := cartUC.DeduplicateAll(ctx)
	if err != nil {
		return err
	}
	logger.Info("cart dedupe finished", zap.Int64("deleted", n))
	return nil
}

func createAdmin(c *cli.Context) error {
	_, logger, gormDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registerUC := auth.NewRegisterAdminUsecase(infraRepo.NewUserGormRepository(gormDB), auth.NewBcryptPasswordHasher(12))
	u, err := registerUC.Execute(c.Context, auth.RegisterAdminInput{
		Email:    c.String("email"),
		Name:     c.String("name"),
		Password: c.String("password"),
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin created", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, gormDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	clock := &realClock{}

	notifier, err := newMailer(cfg)
	if err != nil {
		return err
	}
	provider := newPaymentProvider(cfg)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo)
	orderUC := usecase.NewOrderUsecase(
		txm,
		orderRepo,
		usecase.PricingRules{
			ShippingFee:           cfg.ShippingFee,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			TaxRateBps:            cfg.TaxRateBps,
		},
		usecase.ULIDOrderCodes{},
		validator.NewCheckoutValidator(),
		notifier,
	)
	paymentUC := usecase.NewPaymentUsecase(provider, cfg.HomeCurrency, cfg.PaymentTimeout, clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, infraRepo.NewAuditLogGormRepository(gormDB))
	analyticsUC := usecase.NewAnalyticsUsecase(orderRepo, userRepo, productRepo, clock, cfg.LowStockThreshold)
	loginUC := auth.NewAdminLoginUsecase(
		userRepo,
		auth.NewBcryptPasswordVerifier(),
		&jwtIssuer{secret: []byte(cfg.JWTSecret), accessTTL: cfg.AdminTokenTTL},
		validator.NewLoginValidator(),
		clock,
	)

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}

	//Handler生成
	e := server.New(server.Handlers{
		Health:    handler.NewHealthHandler(sqlDB),
		Cart:      handler.NewCartHandler(cartUC),
		Orders:    handler.NewOrderHandler(orderUC),
		Payments:  handler.NewPaymentHandler(paymentUC),
		AdminAuth: handler.NewAdminAuthHandler(loginUC, cfg.IsProd()),
		Admin:     handler.NewAdminOrderHandler(adminOrderUC),
		Analytics: handler.NewAnalyticsHandler(analyticsUC),
	}, cfg.JWTSecret, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, e, ":"+cfg.Port, logger)
}

func newMailer(cfg config.Config) (mailer.Mailer, error) {
	if !cfg.MailEnabled() {
		return mailer.NopMailer{}, nil
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		Username:      cfg.SMTPUsername,
		Password:      cfg.SMTPPassword,
		From:          cfg.MailFrom,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newPaymentProvider(cfg config.Config) payments.Provider {
	if cfg.PaymentProvider == "stripe" {
		return payments.NewStripeProvider(payments.StripeConfig{
			SecretKey:      cfg.StripeSecretKey,
			PublishableKey: cfg.StripePublishableKey,
		})
	}
	return payments.NewRazorpayProvider(payments.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.PaymentTimeout,
	})
}
