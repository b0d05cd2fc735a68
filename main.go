package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/glassline/glassline/internal/mongo"
	"github.com/glassline/glassline/internal/orders"
	"github.com/glassline/glassline/pkg"
)

const (
	appNamespace = "GLASSLINE"
	appName      = "orders"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	// One reconciler per scope: the global dispatcher view always, plus a
	// team-restricted view when configured.
	scopes := []orders.Scope{orders.GlobalScope()}
	teamName, _ := config.GetString("team.name")
	if teamName != "" {
		teamOwner, _ := config.GetString("team.owner")
		scopes = append(scopes, orders.TeamScope(teamName, teamOwner))
	}

	cache := orders.NewCategoryCache(orderRepo, scopes, logger)
	notifier := orders.NewEventNotifier(pub, logger)

	subscribers := make([]*orders.ProgressSubscriber, 0, len(scopes))
	for _, scope := range scopes {
		subscribers = append(subscribers, orders.NewProgressSubscriber(sub, cache, notifier, scope, logger))
	}

	hd := orders.HandlerDeps{
		Cache: cache,
		Repo:  orderRepo,
	}
	handler := orders.NewHandler(hd, config, logger)

	warmHooks := aqm.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			return cache.Warm(ctx)
		},
	}

	publisherLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		aqm.LifecycleHooks{OnStop: baseRepo.Stop},
		warmHooks,
	}
	for _, s := range subscribers {
		lifecycles = append(lifecycles, s)
	}
	lifecycles = append(lifecycles, publisherLifecycle, subLifecycle)

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
