package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mediarelay/internal/config"
	"mediarelay/internal/middleware"
	"mediarelay/internal/pending"
	"mediarelay/internal/repository"
	"mediarelay/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	registry *pending.Registry
	uploads  *repository.UploadRepository
	db       *pgxpool.Pool
	cache    *redis.Client
	store    *storage.ObjectStore
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	registry *pending.Registry,
	uploads *repository.UploadRepository,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		registry: registry,
		uploads:  uploads,
		db:       db,
		cache:    cache,
		store:    store,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Signature(h.cfg.Security.SignatureSecret))
	v1.GET("/uploads", h.ListUploads)
}
