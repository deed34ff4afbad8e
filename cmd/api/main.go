package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/persist"
	"github.com/safar/storefront/internal/seed"
	"github.com/safar/storefront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	kv, closeKV, err := openStorage(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Open %s storage: %v", cfg.Storage.Backend, err)
	}
	defer closeKV()

	adapter := persist.NewAdapter(kv, persist.Options{
		Key:          cfg.Storage.Key,
		WriteTimeout: cfg.Storage.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.WriteTimeout)
	state := adapter.Load(ctx)
	cancel()

	products, err := seed.Load(cfg.Store.SeedFile)
	if err != nil {
		log.Fatalf("Load catalog: %v", err)
	}
	customers, err := seed.LoadCustomers(cfg.Store.CustomersFile)
	if err != nil {
		log.Fatalf("Load customers: %v", err)
	}

	shipping := store.ShippingPolicy{
		FreeThreshold: cfg.Store.FreeShippingThreshold,
		StandardFee:   cfg.Store.StandardShippingFee,
	}
	s, err := store.New(store.Options{
		Products:        products,
		Customers:       customers,
		Initial:         &state,
		Persister:       adapter,
		NotificationTTL: cfg.Store.NotificationTTL,
		Shipping:        &shipping,
		Markup:          cfg.Store.PriceMarkup,
	})
	if err != nil {
		log.Fatalf("Create store: %v", err)
	}

	log.Printf("Loaded %d products, %d customers, %d cart lines, %d wishlist items from %s storage",
		len(products), len(customers), len(state.Cart), len(state.Wishlist), cfg.Storage.Backend)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(s),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	s.Close()
	if err := adapter.Close(); err != nil {
		log.Printf("Flush persisted state: %v", err)
	}

	log.Printf("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config) (persist.KV, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return persist.NewMemoryKV(), func() {}, nil

	case "file":
		kv, err := persist.NewFileKV(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil

	case "redis":
		client, err := database.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return persist.NewRedisKV(client), func() { client.Close() }, nil

	case "postgres":
		db, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.CheckKVStore(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return persist.NewPostgresKV(db), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
