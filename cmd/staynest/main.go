package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staynest/internal/app/commands"
	bookingapp "staynest/internal/app/handlers/booking"
	listingapp "staynest/internal/app/handlers/listings"
	paymentapp "staynest/internal/app/handlers/payment"
	"staynest/internal/app/middleware"
	appoutbox "staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/queries"
	authsvc "staynest/internal/app/services/auth"
	"staynest/internal/app/uow"
	domainauth "staynest/internal/domain/auth"
	domainuser "staynest/internal/domain/user"
	s3archive "staynest/internal/infra/archive/s3"
	"staynest/internal/infra/broker/kafka"
	"staynest/internal/infra/config"
	mongodb "staynest/internal/infra/db/mongo"
	"staynest/internal/infra/gateway/chapa"
	ginserver "staynest/internal/infra/http/gin"
	"staynest/internal/infra/notify"
	"staynest/internal/infra/obs"
	infraoutbox "staynest/internal/infra/outbox"
	"staynest/internal/infra/security"
	"staynest/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	deps, cleanup, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		return application{}, nil, err
	}

	gateway := buildGateway(cfg)

	authService := &authsvc.Service{
		Users:      deps.users,
		Sessions:   deps.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	commands.Register(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Logger:     logger,
	})
	commands.Register(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{
		UoWFactory: deps.factory,
		Logger:     logger,
	})
	commands.Register(commandBus, paymentapp.InitiatePaymentCommand{}.Key(), &paymentapp.InitiatePaymentHandler{
		UoWFactory: deps.factory,
		Gateway:    gateway,
		Archiver:   deps.archiver,
		Outbox:     deps.outbox,
		Logger:     logger,
	})
	commands.Register(commandBus, paymentapp.VerifyPaymentCommand{}.Key(), &paymentapp.VerifyPaymentHandler{
		UoWFactory: deps.factory,
		Gateway:    gateway,
		Notifier:   deps.notifier,
		Archiver:   deps.archiver,
		Outbox:     deps.outbox,
		Logger:     logger,
	})
	commands.Register(commandBus, paymentapp.PaymentCallbackCommand{}.Key(), &paymentapp.PaymentCallbackHandler{
		UoWFactory: deps.factory,
		Notifier:   deps.notifier,
		Archiver:   deps.archiver,
		Outbox:     deps.outbox,
		Logger:     logger,
	})

	queries.Register(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: deps.factory})
	queries.Register(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: deps.factory})
	queries.Register(queryBus, paymentapp.PaymentStatusQuery{}.Key(), &paymentapp.PaymentStatusHandler{UoWFactory: deps.factory})
	queries.Register(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: deps.factory})
	queries.Register(queryBus, listingapp.ListListingsQuery{}.Key(), &listingapp.ListListingsHandler{UoWFactory: deps.factory})
	queries.Register(queryBus, listingapp.HostListingsQuery{}.Key(), &listingapp.HostListingsHandler{UoWFactory: deps.factory})

	// Booking and listing writes run inside a middleware-managed transaction.
	// Payment commands open their own units so the gateway call happens
	// outside any transaction.
	txCommands := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(deps.idempotency, nil),
		middleware.Transaction(deps.factory, nil),
		middleware.OutboxFlush(deps.outbox),
	)
	paymentCommands := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(deps.idempotency, nil),
		middleware.OutboxFlush(deps.outbox),
	)
	queryPipeline := middleware.ChainQueries(queryBus)

	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: txCommands, Queries: queryPipeline, Logger: logger},
		Payment:        ginserver.PaymentHandler{Commands: paymentCommands, Queries: queryPipeline, Logger: logger},
		Listing:        ginserver.ListingHandler{Commands: txCommands, Queries: queryPipeline, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	return application{handlers: handlers, ready: deps.ready}, cleanup, nil
}

type infraDeps struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	idempotency middleware.IdempotencyStore
	outbox      appoutbox.Outbox
	notifier    policies.Notifier
	archiver    policies.GatewayArchiver
	ready       func() error
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (infraDeps, func(), error) {
	if cfg.StorageMode == "mongo" {
		return buildMongoInfrastructure(ctx, cfg, logger)
	}
	return buildMemoryInfrastructure(cfg, logger)
}

func buildMemoryInfrastructure(cfg config.Config, logger *slog.Logger) (infraDeps, func(), error) {
	store := memory.NewStore()
	deps := infraDeps{
		factory:     memory.NewFactory(store),
		users:       memory.UserDirectory{Store: store},
		sessions:    memory.NewSessionStore(),
		idempotency: memory.NewIdempotencyStore(),
		outbox:      memory.NewOutbox(),
		notifier:    notify.LogNotifier{Logger: logger},
		archiver:    buildArchiver(cfg, logger),
		ready:       func() error { return nil },
	}
	return deps, func() {}, nil
}

func buildMongoInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (infraDeps, func(), error) {
	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return infraDeps{}, nil, err
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		logger.Warn("index creation failed", "error", err)
	}

	outboxStore := infraoutbox.NewStore(client.DB)
	deps := infraDeps{
		factory:     mongodb.NewFactory(client.DB),
		users:       mongodb.NewUserRepository(client.DB),
		sessions:    memory.NewSessionStore(),
		idempotency: mongodb.NewIdempotencyStore(client.DB),
		outbox:      outboxStore,
		notifier:    notify.LogNotifier{Logger: logger},
		archiver:    buildArchiver(cfg, logger),
		ready:       func() error { return client.Ping(context.Background()) },
	}

	cleanup := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return infraDeps{}, nil, err
		}
		deps.notifier = &notify.KafkaNotifier{
			Producer:    producer,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Logger:      logger,
		}
		worker := &infraoutbox.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      "app://staynest",
			Backoff:     []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
		cleanup = func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close failed", "error", err)
			}
		}
	}
	return deps, cleanup, nil
}

func buildArchiver(cfg config.Config, logger *slog.Logger) policies.GatewayArchiver {
	if cfg.S3Endpoint == "" {
		return s3archive.NoopArchiver{}
	}
	archiver, err := s3archive.NewArchiver(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
	if err != nil {
		logger.Warn("gateway archive disabled", "error", err)
		return s3archive.NoopArchiver{}
	}
	return archiver
}

func buildGateway(cfg config.Config) policies.PaymentGateway {
	opts := []chapa.Option{}
	if cfg.ChapaTimeout > 0 {
		opts = append(opts, chapa.WithTimeout(cfg.ChapaTimeout))
	}
	return chapa.NewClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey, opts...)
}
