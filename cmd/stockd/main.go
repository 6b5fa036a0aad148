package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stockops/internal/bulk"
	"stockops/internal/cache"
	"stockops/internal/httpapi"
	"stockops/internal/metrics"
	"stockops/internal/notify"
	"stockops/internal/order"
	"stockops/internal/refresh"
	"stockops/internal/storeapi"
)

// Config holds CLI flags for stockd.
type Config struct {
	Listen         string
	StoreBase      string
	RefreshSec     int
	CacheBackend   string // memory|pebble|badger
	CacheDir       string
	NotifySink     string // file|kafka|both|none
	NotifyDir      string
	KafkaBootstrap string
	TopicStatus    string
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("stockd failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Listen, "listen", ":8080", "listen address")
	flag.StringVar(&cfg.StoreBase, "store-base", "http://localhost:9090", "remote store base URL")
	flag.IntVar(&cfg.RefreshSec, "refresh-interval", 60, "source refresh interval seconds")
	flag.StringVar(&cfg.CacheBackend, "cache-backend", "memory", "stock cache backend: memory|pebble|badger")
	flag.StringVar(&cfg.CacheDir, "cache-dir", "./data/stockd", "cache data directory")
	flag.StringVar(&cfg.NotifySink, "notify-sink", "file", "status notifications sink: file|kafka|both|none")
	flag.StringVar(&cfg.NotifyDir, "notify-dir", "./journal", "directory for the file notification journal")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.TopicStatus, "topic-status", "stockops.order-status", "kafka topic for status-change events")
	flag.Parse()
	return cfg
}

func run(cfg Config) error {
	log.Printf("starting stockd listen=%s store=%s cache=%s refresh=%ds",
		cfg.Listen, cfg.StoreBase, cfg.CacheBackend, cfg.RefreshSec)

	mets := metrics.NewRegistry()

	var store cache.Store
	switch cfg.CacheBackend {
	case "pebble":
		ps, err := cache.NewPebbleStore(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("init pebble: %w", err)
		}
		defer ps.Close()
		store = ps
	case "badger":
		bs, err := cache.NewBadgerStore(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("init badger: %w", err)
		}
		defer bs.Close()
		store = bs
	default:
		store = cache.NewMemory()
	}

	pub, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	client := storeapi.New(cfg.StoreBase, nil)
	fulfill := order.NewFulfillment(client, pub, mets)
	coord := bulk.NewCoordinator(client, mets)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresher := refresh.New(client, store, mets)
	go refresher.Run(ctx, time.Duration(cfg.RefreshSec)*time.Second)

	mux := http.NewServeMux()
	httpapi.New(client, fulfill, store, coord, mets).Routes(mux)
	mux.Handle("GET /metrics", mets.Handler())

	srv := &http.Server{Addr: cfg.Listen, Handler: httpapi.Logging(mux)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func buildNotifier(cfg Config) (notify.Writer, error) {
	var sinks []notify.Writer
	if cfg.NotifySink == "file" || cfg.NotifySink == "both" {
		fw, err := notify.NewFileWriter(cfg.NotifyDir, "order-status.jsonl")
		if err != nil {
			return nil, fmt.Errorf("init file notifier: %w", err)
		}
		sinks = append(sinks, fw)
	}
	if cfg.NotifySink == "kafka" || cfg.NotifySink == "both" {
		if cfg.KafkaBootstrap == "" {
			return nil, fmt.Errorf("kafka notify sink requires -kafka-bootstrap")
		}
		sinks = append(sinks, notify.NewKafkaWriter(cfg.KafkaBootstrap, cfg.TopicStatus))
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return notify.NewMultiWriter(sinks...), nil
}
