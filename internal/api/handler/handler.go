package handler

import "crownside/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Availability *AvailabilityHandler
	Calendar     *CalendarHandler
	Comment      *CommentHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Availability: NewAvailabilityHandler(svc.Availability),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Comment:      NewCommentHandler(svc.Comment),
		Export:       NewExportHandler(svc.Export),
	}
}
