package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Item{},
		&model.StockCompensation{},
		&model.Order{},
		&model.PendingDecision{},
		&model.Transaction{},
	); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notification pipeline: outbox stream -> relay -> Kafka -> worker.
	producer := notify.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	relay := notify.NewRelay(rdb, producer, log, cfg.NotifyStream, cfg.NotifyGroup, cfg.NotifyConsumer)
	go relay.Run(ctx)
	worker := notify.NewWorker(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
	defer worker.Close()
	go worker.Run(ctx)

	inventory := store.NewInventoryStore(db)
	lifecycle := service.NewLifecycle(
		db,
		inventory,
		store.NewOrderStore(db),
		store.NewDecisionStore(db),
		store.NewTransactionStore(db),
		store.NewUserStore(db),
		notify.NewOutbox(rdb, cfg.NotifyStream),
		log,
	)

	r := gin.Default()
	router.Setup(r, router.Deps{
		Lifecycle:     lifecycle,
		Inventory:     inventory,
		Redis:         rdb,
		BuyRateLimit:  cfg.BuyRateLimit,
		BuyRateWindow: cfg.BuyRateWindow,
	})

	log.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("http server", zap.Error(err))
	}
}
