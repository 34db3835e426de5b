package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/minishop/internal/httpserver"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/internal/search"
	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/pkg/config"
	pkgdb "github.com/Skotchmaster/minishop/pkg/db"
	"github.com/Skotchmaster/minishop/pkg/logging"
	loggingmw "github.com/Skotchmaster/minishop/pkg/middleware/logging"
	"github.com/Skotchmaster/minishop/pkg/mykafka"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	cfg := config.Load(*envFile)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	var events service.Publisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mykafka.EnsureTopics(topicCtx, cfg.KafkaBrokers[0], service.TopicItemEvents, service.TopicCartEvents); err != nil {
			logger.Warn("kafka_topics_not_ensured", "error", err)
		}
		cancel()

		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var index service.ItemIndex
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		index, err = openIndex(esCtx, cfg)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		logger.Info("search_index_enabled", "index", cfg.ESIndex)
	}

	catalog := &service.CatalogService{Repo: store, Events: events, Index: index}
	cart := &service.CartService{Repo: store, Events: events}

	if cfg.SeedDemo {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := catalog.Seed(seedCtx)
		cancel()
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	deps := &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: cart},
	}
	if db != nil {
		deps.Ready = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if db != nil {
		_ = pkgdb.Close(db)
	}

	logger.Info("server_stopped")
}

// openStore returns the repository for cfg.StoreDriver. db is nil for the
// in-memory store.
func openStore(ctx context.Context, cfg config.Config) (repo.Repository, *gorm.DB, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return repo.NewMemoryRepo(), nil, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(openCtx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	r := &repo.GormRepo{DB: db}
	if err := r.Migrate(openCtx); err != nil {
		_ = pkgdb.Close(db)
		return nil, nil, err
	}
	return r, db, nil
}

func openIndex(ctx context.Context, cfg config.Config) (*search.ESIndex, error) {
	client, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		return nil, err
	}
	x := &search.ESIndex{Client: client, Index: cfg.ESIndex}
	if err := x.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return x, nil
}
