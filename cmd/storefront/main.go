package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DavidEng0805/web-final-re-exam/internal/cart"
	"github.com/DavidEng0805/web-final-re-exam/internal/catalog"
	"github.com/DavidEng0805/web-final-re-exam/internal/consumer"
	"github.com/DavidEng0805/web-final-re-exam/internal/httpapi"
	"github.com/DavidEng0805/web-final-re-exam/internal/kv"
)

type Config struct {
	HTTPPort        string
	CatalogURL      string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	CartKey         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogURL:      getEnv("CATALOG_URL", "https://dummyjson.com"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CartKey:         getEnv("CART_KEY", "cart"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence: Redis when reachable, otherwise the in-memory store.
	// The cart must stay usable either way.
	var store kv.Store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s, cart will not survive restarts: %v", cfg.RedisAddr, err)
		redisClient.Close()
		store = kv.NewMemoryStore()
	} else {
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		defer redisClient.Close()
		store = kv.NewRedisStore(redisClient)
	}

	cartStore := cart.NewStore(ctx, store, cfg.CartKey)
	defer cartStore.Close()

	catalogClient := catalog.NewClient(cfg.CatalogURL)
	log.Printf("Using catalog at %s", cfg.CatalogURL)

	cartHandler := httpapi.NewCartHandler(cartStore, catalogClient)
	productHandler := httpapi.NewProductHandler(catalogClient)
	invoiceHandler := httpapi.NewInvoiceHandler(cartStore)

	router := httpapi.NewRouter(cartHandler, productHandler, invoiceHandler, cfg.RequestTimeout)

	if len(cfg.KafkaBrokers) > 0 {
		checkoutConsumer := consumer.NewConsumer(cartStore, cfg.CartKey, cfg.KafkaBrokers...)
		defer checkoutConsumer.Close()
		go checkoutConsumer.Run(ctx)
		log.Printf("Listening for checkout-completed events on %v", cfg.KafkaBrokers)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
