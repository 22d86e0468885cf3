package repository

import (
	"context"

	"gorm.io/gorm"

	"crownside/backend/internal/model"
)

// ScheduleRepository 每周排班数据访问接口
type ScheduleRepository interface {
	ListByStylist(ctx context.Context, stylistID string) ([]model.WeeklyScheduleEntry, error)
	// ReplaceForStylist 在单个事务中整组替换造型师的 7 条排班记录
	ReplaceForStylist(ctx context.Context, stylistID string, entries []model.WeeklyScheduleEntry) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) ListByStylist(ctx context.Context, stylistID string) ([]model.WeeklyScheduleEntry, error) {
	var entries []model.WeeklyScheduleEntry
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Order("day_of_week ASC").
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) ReplaceForStylist(ctx context.Context, stylistID string, entries []model.WeeklyScheduleEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stylist_id = ?", stylistID).
			Delete(&model.WeeklyScheduleEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}
