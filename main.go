package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"example.com/placefeed/cmd/server"
	"example.com/placefeed/cmd/worker"
	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/cache"
	config "example.com/placefeed/internal/init"
	"example.com/placefeed/internal/logger"
	"example.com/placefeed/internal/middleware"
	"example.com/placefeed/internal/models"
	"example.com/placefeed/internal/service"
	"example.com/placefeed/internal/store"
	"github.com/joho/godotenv"
)

var logg = logger.New()

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Initialize application configuration
	cfg := config.Init()
	mode := cfg.Mode

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Store connection failed: %v", err)
	}
	defer st.Close()

	// Configure Kafka client parameters
	kafkaCfg := appkafka.KafkaConfig{
		Brokers:      []string{cfg.KafkaBroker},
		Topic:        cfg.KafkaTopic,
		Partition:    cfg.KafkaPartition,
		GroupID:      cfg.KafkaGroupID,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
	}

	// Run application depending on selected mode
	switch mode {
	case "server":
		var publisher appkafka.Publisher = appkafka.NopPublisher{}
		if cfg.KafkaEnabled {
			kafkaWriter, err := appkafka.NewKafkaWriter(kafkaCfg)
			if err != nil {
				log.Fatalf("Kafka writer init failed: %v", err)
			}
			defer kafkaWriter.Close()
			publisher = appkafka.NewPublisher(kafkaWriter)
		} else {
			logg.Info("main", "Kafka disabled, activity events are dropped")
		}

		var profiles service.ProfileCache
		if cfg.RedisAddr != "" {
			rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				log.Fatalf("Redis init failed: %v", err)
			}
			defer rdb.Close()
			profiles = cache.NewViewCache[models.Profile](rdb, "profile", cfg.ProfileCacheTTL)
		}

		auth := middleware.NewAuth(jwtSecret(cfg), cfg.JWTTTL)
		s := server.New(
			service.NewAccountService(st, publisher, auth, profiles, cfg.BcryptCost),
			service.NewPostService(st, publisher),
			auth,
		)
		server.Run(ctx, s, server.Options{
			Addr:     cfg.ServerAddr,
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		})
	case "worker":
		if !cfg.KafkaEnabled {
			log.Fatalf("worker mode requires Kafka (KAFKA_ENABLED=false)")
		}
		// Start the worker that reads activity events and reconciles comment lists
		kafkaReader := appkafka.NewKafkaReader(kafkaCfg)
		defer kafkaReader.Close()
		w := worker.New(st, kafkaReader, 0, 0)
		w.Run(ctx)
	default:
		log.Fatalf("unknown mode: %s", mode)
	}

	log.Println("Shutdown completed")
}

func openStore(ctx context.Context, cfg *config.Config) (store.StoreInterface, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		st, err := store.NewMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverCassandra, "":
		st, err := store.New(cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// jwtSecret falls back to a per-process random secret, so tokens do not survive restarts.
func jwtSecret(cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate JWT secret: %v", err)
	}
	logg.Warn("main", "JWT_SECRET not set, using a random secret", nil)
	return hex.EncodeToString(buf)
}
