package main

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"funplay-claim-service/chain"
	"funplay-claim-service/config"
	"funplay-claim-service/handlers"
	"funplay-claim-service/logger"
	"funplay-claim-service/middleware"
	"funplay-claim-service/models"
	"funplay-claim-service/services"
	"funplay-claim-service/utils"
	"funplay-claim-service/workers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: production reads the environment directly.
		_, _ = os.Stderr.WriteString("no .env file found, reading environment variables directly\n")
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Initialize(logger.Configuration{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		LogFile: cfg.LogFile,
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	var receipts services.ReceiptArchiver
	if cfg.Receipts.Enabled() {
		archive, err := utils.NewR2ReceiptArchive(ctx, utils.R2Config{
			AccountID:       cfg.Receipts.AccountID,
			AccessKeyID:     cfg.Receipts.AccessKeyID,
			AccessKeySecret: cfg.Receipts.AccessKeySecret,
			Bucket:          cfg.Receipts.Bucket,
		})
		if err != nil {
			logger.Fatal("failed to initialize R2 receipt archive", zap.Error(err))
		}
		receipts = archive
	}

	claims := services.NewClaimService(services.NewClaimTracker(db), nil, receipts, cfg.Chain.TokenSymbol)
	if executor := newExecutor(ctx, cfg.Chain); executor != nil {
		claims.Executor = executor
	}
	rewards := services.NewRewardService(db)

	reconciler := workers.NewClaimReconciler(claims, cfg.Reconciler)
	if err := reconciler.Start(ctx); err != nil {
		logger.Fatal("failed to start claim reconciler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    64 * 1024,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Chain.ConfirmTimeout + 30*time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, X-Request-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "ok", "claims_enabled": claims.Executor != nil})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayServiceToken))

	session := middleware.SessionAuthMiddleware(services.NewAuthServiceClient(cfg.AuthURL, cfg.AuthAPIKey))
	handlers.SetupClaimRoutes(app, claims, rewards, session)
	handlers.SetupAdminRoutes(app, claims, rewards, reconciler, session)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("claim service running",
		zap.String("port", cfg.Port),
		zap.Bool("claims_enabled", claims.Executor != nil),
		zap.Bool("receipts_enabled", receipts != nil),
		zap.Bool("gateway_auth", cfg.GatewayServiceToken != ""))

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(cfg.Chain.ConfirmTimeout); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := reconciler.Shutdown(); err != nil {
		logger.Warn("reconciler shutdown", zap.Error(err))
	}
}

// newExecutor builds the only component that can sign. Without a usable key or RPC
// endpoint the service still serves reads and answers claims with a configuration error.
func newExecutor(ctx context.Context, cfg config.ChainConfig) *chain.Executor {
	if cfg.RPCURL == "" || cfg.TokenAddress == "" {
		logger.Warn("chain RPC or token address not configured, claims are disabled")
		return nil
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		logger.Error("token contract address is malformed, claims are disabled",
			zap.String("token_address", cfg.TokenAddress))
		return nil
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		logger.Error("failed to dial chain RPC, claims are disabled", zap.Error(err))
		return nil
	}

	token, err := chain.NewERC20Token(common.HexToAddress(cfg.TokenAddress), client)
	if err != nil {
		logger.Error("failed to bind token contract, claims are disabled", zap.Error(err))
		return nil
	}

	executor, err := chain.NewExecutor(token, client, chain.Config{
		ChainID:         big.NewInt(cfg.ChainID),
		PrivateKey:      cfg.AdminPrivateKey,
		DefaultDecimals: cfg.DefaultDecimals,
		ConfirmTimeout:  cfg.ConfirmTimeout,
		PollInterval:    cfg.PollInterval,
	})
	if err != nil {
		logger.Error("admin wallet unavailable, claims are disabled", zap.Error(err))
		return nil
	}

	logger.Info("chain executor ready",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("token", token.Address().Hex()),
		zap.String("admin_wallet", executor.AdminAddress()))
	return executor
}
