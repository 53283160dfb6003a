package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kpiotrowski/flashforge/internal/config"
	"github.com/kpiotrowski/flashforge/internal/db"
	"github.com/kpiotrowski/flashforge/internal/flashcard"
	"github.com/kpiotrowski/flashforge/internal/generation"
	"github.com/kpiotrowski/flashforge/internal/httpapi"
	"github.com/kpiotrowski/flashforge/internal/httpapi/handlers"
	"github.com/kpiotrowski/flashforge/internal/models"
	"github.com/kpiotrowski/flashforge/internal/store/rabbitmq"
	"github.com/kpiotrowski/flashforge/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.Migrate(gdb,
		&models.User{},
		&generation.Source{},
		&generation.Generation{},
		&generation.ErrorLog{},
		&generation.Job{},
		&flashcard.Collection{},
		&flashcard.Flashcard{},
	)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(ctx); err != nil {
			log.Printf("redis unreachable, generation rate limit disabled: %v", err)
			rds = nil
		}
		cancel()
	}

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit connect: %v", err)
	}
	defer pub.Close()

	h := handlers.NewHandler(gdb, cfg, rds, pub)
	if !h.Gateway.CheckHealth(context.Background()) {
		log.Printf("gateway health probe failed: %v", h.Gateway.LastError())
	}

	r := httpapi.NewRouter(h)
	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
