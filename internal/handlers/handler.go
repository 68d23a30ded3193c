package handlers

import (
	"log/slog"

	"github.com/msibtain/wp-user-activity/internal/config"
	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handler struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *gorm.DB
	rdb       *redis.Client
	activity  *services.ActivityService
	reports   *services.ReportService
	exporter  *services.ExportService
	directory services.UserDirectory
	resolver  services.ContentResolver
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	rdb *redis.Client,
	activity *services.ActivityService,
	reports *services.ReportService,
	exporter *services.ExportService,
	directory services.UserDirectory,
	resolver services.ContentResolver,
) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		activity:  activity,
		reports:   reports,
		exporter:  exporter,
		directory: directory,
		resolver:  resolver,
	}
}
