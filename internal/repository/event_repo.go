package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crownside/backend/internal/model"
)

// EventRepository 日历事件数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.CalendarEvent) error
	GetByID(ctx context.Context, id string) (*model.CalendarEvent, error)
	ListByStylistAndRange(ctx context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error)
	// ListOverlapping 查询与 [start, end) 重叠的已确认事件
	ListOverlapping(ctx context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error)
	Update(ctx context.Context, event *model.CalendarEvent) error
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) ListByStylistAndRange(ctx context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND status = ? AND starts_at >= ? AND starts_at < ?",
			stylistID, model.EventStatusConfirmed, start, end).
		Order("starts_at ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) ListOverlapping(ctx context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	// 重叠条件：已有事件开始早于区间结束，且结束晚于区间开始
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND status = ?", stylistID, model.EventStatusConfirmed).
		Where("starts_at < ? AND starts_at + (duration_minutes || ' minutes')::interval > ?", end, start).
		Find(&events).Error
	return events, err
}

func (r *eventRepo) Update(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}
