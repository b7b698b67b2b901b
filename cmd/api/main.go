package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ignaciocastillo/erp-api/internal/application/auth"
	"github.com/ignaciocastillo/erp-api/internal/application/billing"
	"github.com/ignaciocastillo/erp-api/internal/application/usecase"
	"github.com/ignaciocastillo/erp-api/internal/infrastructure/postgres"
	"github.com/ignaciocastillo/erp-api/internal/infrastructure/renderer"
	httpRouter "github.com/ignaciocastillo/erp-api/internal/interfaces/http"
	"github.com/ignaciocastillo/erp-api/pkg/config"
	"github.com/ignaciocastillo/erp-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Renderer: servicio externo si hay API key, generador local si no
	// (desarrollo sin credenciales).
	var invoiceRenderer billing.InvoiceRenderer
	if cfg.Render.APIKey != "" {
		invoiceRenderer = renderer.NewHTTPRenderer(cfg.Render.Endpoint, cfg.Render.APIKey, cfg.Render.Timeout)
		log.Info().Str("endpoint", cfg.Render.Endpoint).Msg("render externo habilitado")
	} else {
		invoiceRenderer = renderer.NewMarotoRenderer()
		log.Warn().Msg("sin RENDER_API_KEY: se usará el generador local de PDF")
	}

	commitInvoiceUC := billing.NewCommitInvoiceUseCase(
		txRunner, customerRepo, invoiceRepo, invoiceRenderer,
		billing.SellerConfig{
			From:     cfg.Render.From,
			Logo:     cfg.Render.Logo,
			Notes:    cfg.Render.Notes,
			Currency: cfg.Render.Currency,
		},
	)
	customerUC := billing.NewCustomerUseCase(customerRepo, invoiceRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // el commit incluye el render externo (hasta 30 s)
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ERP Facturación API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		CustomerUC:    customerUC,
		ProductUC:     productUC,
		CommitInvoice: commitInvoiceUC,
		ProductRepo:   productRepo,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
