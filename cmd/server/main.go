package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fmaric77/polmatch-sub004/internal/api"
	"github.com/fmaric77/polmatch-sub004/internal/auth"
	"github.com/fmaric77/polmatch-sub004/internal/config"
	"github.com/fmaric77/polmatch-sub004/internal/crypto"
	"github.com/fmaric77/polmatch-sub004/internal/events"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/logger"
	"github.com/fmaric77/polmatch-sub004/internal/metrics"
	"github.com/fmaric77/polmatch-sub004/internal/presence"
	"github.com/fmaric77/polmatch-sub004/internal/repository"
	"github.com/fmaric77/polmatch-sub004/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	metrics.Init()

	mc, err := repository.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mc.Disconnect(ctx)
	}()
	db := mc.Database(cfg.Mongo.Database)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(idxCtx, db); err != nil {
		idxCancel()
		zl.Fatalw("ensure indexes", "err", err)
	}
	idxCancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zl.Fatalw("redis connect", "err", err)
	}
	pingCancel()
	defer rdb.Close()

	validator, err := auth.NewValidator(cfg.Auth.JWTAlg, cfg.Auth.JWTSecret, cfg.Auth.JWTPublicKeyPath)
	if err != nil {
		zl.Fatalw("init token validator", "err", err)
	}

	key, err := cfg.ContentKeyBytes()
	if err != nil {
		zl.Fatalw("content key", "err", err)
	}
	codec, err := crypto.NewCodec(key)
	if err != nil {
		zl.Fatalw("init content codec", "err", err)
	}

	instanceID := cfg.App.InstanceID
	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	h := hub.New(zl, 30*time.Second, 10*time.Second)
	pres := presence.NewStore(rdb, cfg.Redis.Prefix)

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, instanceID)
	defer producer.Close()
	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, instanceID, zl)
	defer consumer.Close()

	convs := repository.NewConversationRepo(db)
	msgs := repository.NewMessageRepo(db)
	groups := repository.NewGroupRepo(db)
	invs := repository.NewInvitationRepo(db)

	messageSvc := service.NewMessageService(convs, msgs, groups, codec, h, producer, zl)
	invitationSvc := service.NewInvitationService(invs, groups, h, producer, zl)
	callSvc := service.NewCallService(h, producer, zl)

	srv := api.NewServer(validator, h, pres, messageSvc, invitationSvc, callSvc, cfg.Limits.SendPerMinute, zl)

	busCtx, busCancel := context.WithCancel(context.Background())
	defer busCancel()
	go consumer.Run(busCtx, func(userID string, f hub.Frame) {
		h.PushToUser(userID, f)
	})

	go func() {
		zl.Infow("listening", "port", cfg.App.Port, "instance", instanceID)
		if err := srv.Listen(cfg.App.Port); err != nil {
			zl.Fatalw("server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Infow("shutting down")
	busCancel()
	if err := srv.Shutdown(); err != nil {
		zl.Errorw("shutdown", "err", err)
	}
}
