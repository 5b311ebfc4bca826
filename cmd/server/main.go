package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/config"
	"github.com/iliyamo/conference-registration/internal/database"
	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/event"
	"github.com/iliyamo/conference-registration/internal/eventstore"
	"github.com/iliyamo/conference-registration/internal/handler"
	"github.com/iliyamo/conference-registration/internal/pricing"
	"github.com/iliyamo/conference-registration/internal/queue"
	"github.com/iliyamo/conference-registration/internal/readmodel"
	"github.com/iliyamo/conference-registration/internal/router"
	"github.com/iliyamo/conference-registration/internal/saga"
	"github.com/iliyamo/conference-registration/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("mysql: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	bus := queue.NewBus(cfg.AMQPURL)
	defer bus.Close()
	if err := bus.DeclareTopology(); err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}

	// Stores and repositories.
	store := eventstore.NewMySQLStore(db)
	orders := eventstore.NewRepository(store, bus, event.AggregateOrder, domain.NewOrderFromHistory)
	availability := eventstore.NewRepository(store, bus, event.AggregateAvailability, domain.NewSeatsAvailabilityFromHistory)
	assignments := eventstore.NewRepository(store, bus, event.AggregateSeatAssignments, domain.NewSeatAssignmentsFromHistory)

	confRepo := conference.NewRepo(db)
	confReader := conference.NewCachedReader(confRepo, rdb, cfg.ConferenceCacheTTL, "conference")
	pricingSvc := pricing.NewService(confReader)

	drafts := readmodel.NewDraftOrderProjector(db)
	seatsView := readmodel.NewConferenceSeatsProjector(db)

	// Saga processor and its durable expiration timer.
	sagaStore := saga.NewMySQLStore(db)
	processor := saga.NewProcessor(sagaStore, bus)
	poller := saga.NewPoller(sagaStore, processor, cfg.SagaPollInterval)
	go poller.Run(ctx)

	// Consumers.  Each holds its own connection and reconnects on its own.
	orderWorker := worker.NewOrderWorker(orders, pricingSvc)
	availabilityWorker := worker.NewAvailabilityWorker(availability)
	assignmentsWorker := worker.NewAssignmentsWorker(orders, assignments)
	sagaWorker := worker.NewSagaWorker(processor)
	viewsWorker := worker.NewViewsWorker(drafts, seatsView)

	consumers := []struct {
		queue   string
		handler queue.Handler
	}{
		{queue.OrderCommandQueue, orderWorker.Handle},
		{queue.AvailabilityCommandQueue, availabilityWorker.Handle},
		{queue.AssignmentsCommandQueue, assignmentsWorker.Handle},
		{queue.AssignmentsEventsQueue, assignmentsWorker.HandleOrderConfirmed},
		{queue.SagaQueue, sagaWorker.Handle},
		{queue.ViewsQueue, viewsWorker.Handle},
	}
	for _, c := range consumers {
		go func(queueName string, h queue.Handler) {
			if err := queue.Consume(ctx, cfg.AMQPURL, queueName, h); err != nil {
				log.Printf("consumer %s stopped: %v", queueName, err)
			}
		}(c.queue, c.handler)
	}

	// HTTP surface.
	e := echo.New()
	e.HideBanner = true
	pub := handler.NewPublicHandler(confRepo, confReader, seatsView)
	orderHandler := handler.NewOrderHandler(bus, confReader, drafts)
	ownerHandler := handler.NewOwnerHandler(confRepo, confReader, bus, cfg.JWTSecret, cfg.OwnerTokenTTLMin, cfg.BcryptCost)
	router.RegisterRoutes(e, pub, orderHandler, ownerHandler, config.LoadRateLimitConfig(), rdb, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Printf("http server stopped: %v", err)
	}
}
