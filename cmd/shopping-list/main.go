package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/shopping-list/internal/config"
	"github.com/iyhunko/shopping-list/internal/engine"
	httpAPI "github.com/iyhunko/shopping-list/internal/http"
	"github.com/iyhunko/shopping-list/internal/http/controller"
	"github.com/iyhunko/shopping-list/internal/logger"
	"github.com/iyhunko/shopping-list/internal/metrics"
	"github.com/iyhunko/shopping-list/internal/notify"
	"github.com/iyhunko/shopping-list/internal/preferences"
	"github.com/iyhunko/shopping-list/internal/repository"
	reposql "github.com/iyhunko/shopping-list/internal/repository/sql"
	"github.com/iyhunko/shopping-list/internal/scheduler"
	"github.com/iyhunko/shopping-list/internal/service"
	sqspkg "github.com/iyhunko/shopping-list/internal/sqs"
)

const (
	outboxInterval  = 2 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)
	logger.InitJSONLogger(conf.DebugMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := metrics.StartMetricsServer(conf)

	locale, err := conf.List.Language()
	handleErr("parsing locale", err)

	var background sync.WaitGroup

	// Store (optional)
	var (
		db    *sql.DB
		store engine.Store
		pager controller.Pager
	)
	if conf.Store.Enabled() {
		db, err = reposql.StartDB(ctx, conf.Store)
		handleErr("starting database", err)

		var tx repository.Transactor
		if conf.AWS.Enabled() {
			// events are only written when someone publishes them
			tx = reposql.NewTransactionalRepository(db)
		}
		productService := service.NewProductService(reposql.NewProductRepository(db), tx)
		store, pager = productService, productService
	} else {
		slog.Info("store credentials missing, running without a store")
	}

	eng := engine.New(store, engine.Options{
		DefaultCategory:   conf.List.DefaultCategory,
		DefaultCategories: conf.List.DefaultCategories,
		Locale:            locale,
		WriteTimeout:      conf.List.WriteTimeout,
	})

	// Preferences
	var prefStore preferences.Store = preferences.NewMemoryStore()
	if conf.Redis.Enabled() {
		prefStore = preferences.NewRedisStore(preferences.NewRedisClient(conf.Redis))
	}
	settings := preferences.New(prefStore, conf.List.DefaultMargin)
	if err := settings.Load(ctx); err != nil {
		slog.Warn("failed to load preferences, using defaults", slog.Any("err", err))
	}

	// SQS outbox publisher
	var sqsConsumer *sqspkg.Consumer
	if db != nil && conf.AWS.Enabled() {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		handleErr("creating SQS client", err)

		outboxWorker := service.NewOutboxWorker(reposql.NewEventRepository(db), sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL), outboxInterval)
		background.Add(1)
		go func() {
			defer background.Done()
			outboxWorker.Start(ctx)
		}()
		sqsConsumer = sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL)
	}

	// Initial fetch and change notifications
	if store != nil {
		background.Add(1)
		go func() {
			defer background.Done()
			_ = eng.Refresh(ctx)
		}()

		if sub := subscriber(conf, sqsConsumer); sub != nil {
			background.Add(1)
			go func() {
				defer background.Done()
				if err := eng.Watch(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("change subscription stopped", slog.Any("err", err))
				}
			}()
		}
	}

	sched, err := scheduler.New(ctx, eng, conf.List.ResetSchedule, conf.List.RefreshSchedule)
	handleErr("scheduling jobs", err)
	sched.Start()

	// HTTP server
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAPI.InitRouter(
		gin.New(),
		controller.New(eng),
		controller.NewProductController(eng, settings),
		controller.NewPreferencesController(settings),
		controller.NewStoreController(pager),
	)
	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to stop HTTP server", slog.Any("err", err))
	}
	cancel()
	sched.Stop()
	background.Wait()
	eng.Wait()
	if db != nil {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to stop metrics server", slog.Any("err", err))
	}
}

// subscriber picks the change notification backend. Nil means no live updates.
func subscriber(conf *config.Config, consumer *sqspkg.Consumer) engine.Subscriber {
	switch conf.Notify {
	case config.NotifyPostgres:
		dsn, err := conf.Store.DSN()
		handleErr("building listener DSN", err)
		return notify.NewListener(dsn)
	case config.NotifySQS:
		if consumer == nil {
			slog.Warn("SQS notifications selected but no queue is configured")
			return nil
		}
		return consumer
	default:
		return nil
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("error while "+msg, slog.Any("err", err))
		os.Exit(1)
	}
}
