// Command repair scans the conversations collection for documents that are
// not conversation metadata and relocates them: message-shaped documents move
// to the messages collection, unclassifiable ones to quarantine. Run it once
// against a store that accumulated misfiled rows; a clean store is a no-op.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/fmaric77/polmatch-sub004/internal/config"
	"github.com/fmaric77/polmatch-sub004/internal/logger"
	"github.com/fmaric77/polmatch-sub004/internal/repository"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 10*time.Minute, "pass deadline")
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

	mc, err := repository.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	db := mc.Database(cfg.Mongo.Database)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rep, err := repository.RelocateMisfiledRecords(ctx, db)
	if err != nil {
		zl.Fatalw("relocate pass", "scanned", rep.Scanned, "err", err)
	}
	zl.Infow("relocate pass complete",
		"scanned", rep.Scanned,
		"relocated", rep.Relocated,
		"quarantined", rep.Quarantined,
	)

	disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer disconnectCancel()
	_ = mc.Disconnect(disconnectCtx)
}
