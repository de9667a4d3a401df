package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spotix/config"
	"spotix/internal/handlers"
	"spotix/internal/services"
	"spotix/internal/services/gateway"
	"spotix/internal/services/gateway/agent"
	"spotix/internal/services/gateway/monnify"
	"spotix/internal/services/gateway/paystack"
	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"
	"spotix/monitoring"
	"spotix/security"
	"spotix/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// kobo converts agent-reported naira amounts to kobo.
var kobo = decimal.NewFromInt(100)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		// A missing gateway secret must stop startup, not surface on the
		// first webhook.
		log.Fatalf("configuration: %v", err)
	}

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores and rails.
	pbStore := store.NewPBStore(app)
	registry := gateway.NewRegistry()
	factory := gateway.NewFactory()

	paystackGW, err := factory.CreateGateway(ctx, gateway.ProviderPaystack, &paystack.Config{
		SecretKey:        cfg.Paystack.SecretKey,
		WebhookSecret:    cfg.Paystack.WebhookSecret,
		BaseURL:          cfg.Paystack.BaseURL,
		CallbackURL:      cfg.Paystack.CallbackURL,
		Timeout:          cfg.GatewayTimeout,
		ColdStartTimeout: cfg.GatewayColdStartTimeout,
	})
	if err != nil {
		return err
	}
	registry.RegisterGateway(paystackGW)
	registry.RegisterGateway(gateway.NewWalletRail())

	if cfg.MonnifyEnabled() {
		monnifyGW, err := factory.CreateGateway(ctx, gateway.ProviderMonnify, &monnify.Config{
			APIKey:       cfg.Monnify.APIKey,
			SecretKey:    cfg.Monnify.SecretKey,
			ContractCode: cfg.Monnify.ContractCode,
			BaseURL:      cfg.Monnify.BaseURL,
			Timeout:      cfg.GatewayTimeout,
		})
		if err != nil {
			return err
		}
		registry.RegisterGateway(monnifyGW)
	}

	// Services.
	notifyService := services.NewNotifyService(app, cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey)
	settlementService := services.NewSettlementService(pbStore, cfg, notifyService)
	verifyService := services.NewVerifyService(registry, settlementService, redisClient, cfg)
	discountService := services.NewDiscountService(pbStore, cfg)
	paymentService := services.NewPaymentService(pbStore, registry, discountService, redisClient, cfg)
	pinGuard := security.NewPinGuard(redisClient, cfg.PinMaxAttempts, cfg.PinAttemptWindow, cfg.PinLockout)

	if cfg.AgentEnabled() {
		agentGW, err := factory.CreateGateway(ctx, gateway.ProviderAgent, &agent.Config{
			SubscribeKey: cfg.Agent.SubscribeKey,
			SecretKey:    cfg.Agent.SecretKey,
			UUID:         cfg.Agent.UUID,
			Channel:      cfg.Agent.Channel,
			CipherKey:    cfg.Agent.CipherKey,
		})
		if err != nil {
			return err
		}
		registry.RegisterGateway(agentGW)
		go consumeAgentConfirmations(ctx, agentGW, settlementService)
	}

	// Handlers.
	paymentHandler := handlers.NewPaymentHandler(pbStore, paymentService, verifyService)
	webhookHandler := handlers.NewWebhookHandler(settlementService, cfg)
	ticketHandler := handlers.NewTicketHandler(pbStore, settlementService, verifyService, pinGuard)
	referralHandler := handlers.NewReferralHandler(pbStore, discountService)
	adminHandler := handlers.NewAdminHandler(pbStore, settlementService)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort)
		go monitoring.NewMonitor(redisClient).Start(ctx)
	}

	go handleShutdown(cancel, registry)

	setupUserHooks(app, pbStore, discountService)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Payment endpoints
		e.Router.POST("/api/v1/payments", paymentHandler.InitializePayment)
		e.Router.GET("/api/v1/payments/verify", paymentHandler.VerifyPayment)
		e.Router.GET("/api/v1/payments/{reference}", paymentHandler.GetPaymentSession)

		// Webhooks
		e.Router.POST("/api/v1/webhooks/paystack", webhookHandler.Paystack)
		e.Router.POST("/api/v1/webhooks/monnify", webhookHandler.Monnify)

		// Tickets
		e.Router.POST("/api/v1/tickets", ticketHandler.CompletePurchase)
		e.Router.GET("/api/v1/tickets/{ticketId}", ticketHandler.GetTicket)

		// Referrals
		e.Router.POST("/api/v1/referrals/withdraw", referralHandler.Withdraw)
		e.Router.GET("/api/v1/referrals/{code}", referralHandler.Ledger)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/unsettled", adminHandler.GetUnsettled)
		e.Router.POST("/api/v1/admin/reconcile", adminHandler.Reconcile)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// consumeAgentConfirmations funnels realtime agent confirmations into
// the idempotent settle path.
func consumeAgentConfirmations(ctx context.Context, rail gateway.GatewayInterface, settler services.Settler) {
	txChannel := make(chan *status.Transaction, 8)
	rail.SetTransactionChannel(txChannel)
	for {
		select {
		case t := <-txChannel:
			slog.Info("agent confirmation received",
				"reference", t.Reference, "agent", t.AgentID, "amount", t.Amount)

			sctx, scancel := context.WithTimeout(ctx, 30*time.Second)
			_, err := settler.Settle(sctx, t.Reference, &services.SettleContext{
				AmountPaid: t.Amount.Mul(kobo).IntPart(),
				Channel:    t.Channel,
				Method:     models.MethodAgent,
			})
			scancel()
			if err != nil {
				slog.Error("agent confirmation settle failed",
					"reference", t.Reference, "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

// setupUserHooks creates the wallet record on signup and credits the
// referrer when a referral code was supplied.
func setupUserHooks(app *pocketbase.PocketBase, pbStore store.Store, discountService *services.DiscountService) {
	app.OnRecordCreateRequest("users").BindFunc(func(e *core.RecordRequestEvent) error {
		if err := e.Next(); err != nil {
			return err
		}
		ctx := e.Request.Context()
		userID := e.Record.Id

		if err := pbStore.SaveWallet(ctx, &models.Wallet{UserID: userID}); err != nil {
			slog.Error("signup: wallet creation failed", "user", userID, "error", err)
		}

		if code := e.Record.GetString("referred_by"); code != "" {
			if err := discountService.CreditReferral(ctx, code, userID); err != nil {
				// Bad referral codes never block signup.
				slog.Warn("signup: referral credit failed",
					"user", userID, "code", code, "error", err)
			}
		}
		return nil
	})
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server", "error", err)
	}
}

// handleShutdown handles graceful shutdown.
func handleShutdown(cancel context.CancelFunc, registry *gateway.Registry) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")

	ctx, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()
	registry.Close(ctx)
	cancel()
}
