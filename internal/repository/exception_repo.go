package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crownside/backend/internal/model"
)

// ExceptionRepository 日期例外数据访问接口
type ExceptionRepository interface {
	ListByStylistAndRange(ctx context.Context, stylistID string, start, end time.Time) ([]model.DateException, error)
	GetByStylistAndDate(ctx context.Context, stylistID string, date time.Time) (*model.DateException, error)
	// Upsert 按 (stylist_id, date) 覆盖写入：同日期已存在时替换而非重复
	Upsert(ctx context.Context, ex *model.DateException) error
	Delete(ctx context.Context, id string) error
}

type exceptionRepo struct {
	db *gorm.DB
}

// NewExceptionRepo 创建 ExceptionRepository 实例
func NewExceptionRepo(db *gorm.DB) ExceptionRepository {
	return &exceptionRepo{db: db}
}

func (r *exceptionRepo) ListByStylistAndRange(ctx context.Context, stylistID string, start, end time.Time) ([]model.DateException, error) {
	var exceptions []model.DateException
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND date >= ? AND date <= ?", stylistID, start, end).
		Order("date ASC").
		Find(&exceptions).Error
	return exceptions, err
}

func (r *exceptionRepo) GetByStylistAndDate(ctx context.Context, stylistID string, date time.Time) (*model.DateException, error) {
	var ex model.DateException
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND date = ?", stylistID, date).
		First(&ex).Error
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (r *exceptionRepo) Upsert(ctx context.Context, ex *model.DateException) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stylist_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_off", "start_time", "end_time", "reason", "updated_at", "updated_by",
			}),
		}).
		Create(ex).Error
}

func (r *exceptionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		Delete(&model.DateException{}).Error
}
