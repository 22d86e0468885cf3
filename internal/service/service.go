package service

import (
	"go.uber.org/zap"

	"crownside/backend/config"
	"crownside/backend/internal/repository"
	"crownside/backend/pkg/jwt"
	"crownside/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Availability AvailabilityService
	Calendar     CalendarService
	Comment      CommentService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	grid := GridLayout{
		StartHour:     cfg.Grid.StartHour,
		EndHour:       cfg.Grid.EndHour,
		PixelsPerHour: cfg.Grid.PixelsPerHour,
	}

	availability := NewAvailabilityService(repo, grid, cfg.Booking.DefaultSlotMinutes, cfg.Booking.AvailabilityCacheSize, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, rdb, logger),
		Availability: availability,
		Calendar:     NewCalendarService(repo, availability, grid, cfg.Booking.DefaultSlotMinutes, logger),
		Comment:      NewCommentService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
