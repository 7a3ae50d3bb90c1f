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
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/application/inventory"
	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/application/reservation"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Suministros-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Suministros-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Suministros-api/internal/interfaces/http"
	"github.com/jhoicas/Suministros-api/pkg/config"
	"github.com/jhoicas/Suministros-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("backend", cfg.Ledger.Backend).
		Dur("lock_timeout", cfg.Ledger.LockTimeout).
		Msg("iniciando aplicación")

	ctx := context.Background()
	clock := ports.SystemClock{}

	// Persistencia: PostgreSQL (producción) o memoria de proceso (desarrollo/demos).
	var txRunner ports.TxRunner
	switch cfg.Ledger.Backend {
	case config.BackendMemory:
		log.Warn().Msg("backend en memoria: los datos se pierden al reiniciar")
		txRunner = memory.NewTxRunner(memory.NewStore(cfg.Ledger.LockTimeout))
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
	}

	// Carritos: Redis si está configurado (compartido entre instancias), si no en memoria.
	var carts reservation.CartStore
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer client.Close()
		carts = infraredis.NewCartStore(client, cfg.Redis.CartTTL)
	} else {
		carts = memory.NewCartStore()
	}

	appLog := log.Component("application")
	ledger := allocation.NewLedger(txRunner, clock, appLog)
	stock := inventory.NewBatchPool(txRunner, clock, appLog, cfg.Ledger.LowStockThreshold)
	credits := credit.NewPool(txRunner, clock, appLog)
	machine := fulfillment.NewStateMachine(txRunner, clock, ledger, stock, credits, appLog)
	gate := reservation.NewGate(ledger, machine, carts, clock, appLog)

	// PDF: boleta de requisición
	slips := infrapdf.NewSlipGenerator(cfg.App.OrgName)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Suministros API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "backend": cfg.Ledger.Backend})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Gate:      gate,
		Machine:   machine,
		Ledger:    ledger,
		Stock:     stock,
		Credits:   credits,
		Slips:     slips,
		JWTSecret: cfg.JWT.Secret,
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
