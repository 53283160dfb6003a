package handlers

import (
	"time"

	"github.com/kpiotrowski/flashforge/internal/ai"
	"github.com/kpiotrowski/flashforge/internal/config"
	"github.com/kpiotrowski/flashforge/internal/email"
	"github.com/kpiotrowski/flashforge/internal/flashcard"
	"github.com/kpiotrowski/flashforge/internal/generation"
	"github.com/kpiotrowski/flashforge/internal/store/rabbitmq"
	"github.com/kpiotrowski/flashforge/internal/store/redisstore"
	"gorm.io/gorm"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Redis       *redisstore.Store
	Rabbit      *rabbitmq.Publisher
	SMTPSetting email.SMTPConfig

	Gateway *ai.Client
	GenSvc  *generation.Service
	GenRepo *generation.Repo
	Cards   *flashcard.Repo
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub *rabbitmq.Publisher) *Handler {
	gateway := ai.NewClient(
		cfg.OpenRouterBaseURL,
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterModel,
		cfg.OpenRouterSiteURL,
		cfg.OpenRouterAppName,
		cfg.GatewayMaxRetries,
		time.Duration(cfg.GatewayTimeoutSec)*time.Second,
	)
	genRepo := generation.NewRepo(db)
	genSvc := generation.NewService(genRepo, gateway, cfg.OpenRouterAPIKey, cfg.OpenRouterModel)

	return &Handler{
		DB:     db,
		Cfg:    cfg,
		Redis:  rds,
		Rabbit: pub,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Gateway: gateway,
		GenSvc:  genSvc,
		GenRepo: genRepo,
		Cards:   flashcard.NewRepo(db),
	}
}
