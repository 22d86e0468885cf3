package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crownside/backend/internal/model"
)

// CommentCursor 键集分页游标（created_at + comment_id 复合键，保证稳定排序）
type CommentCursor struct {
	CreatedAt time.Time
	ID        string
}

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	// ListRoots 根评论页，按创建时间倒序
	ListRoots(ctx context.Context, cursor *CommentCursor, limit int) ([]model.Comment, error)
	// ListReplies 指定父级下的回复页，按创建时间正序
	ListReplies(ctx context.Context, parentID string, cursor *CommentCursor, limit int) ([]model.Comment, error)
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	// CreateWithCounter 在单个事务中插入评论并递增父级 reply_count
	CreateWithCounter(ctx context.Context, comment *model.Comment) error
	// MarkRemoved 软移除：保留节点，置 is_removed
	MarkRemoved(ctx context.Context, id string, removedBy string) error
	// Like 在单个事务中插入点赞并递增 like_count；已点赞时返回 false
	Like(ctx context.Context, commentID, userID string) (bool, error)
	// Unlike 在单个事务中删除点赞并递减 like_count；未点赞时返回 false
	Unlike(ctx context.Context, commentID, userID string) (bool, error)
}

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) ListRoots(ctx context.Context, cursor *CommentCursor, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	db := r.db.WithContext(ctx).
		Preload("Author").
		Where("parent_id IS NULL")
	if cursor != nil {
		db = db.Where("(created_at, comment_id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	err := db.Order("created_at DESC, comment_id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) ListReplies(ctx context.Context, parentID string, cursor *CommentCursor, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	db := r.db.WithContext(ctx).
		Preload("Author").
		Where("parent_id = ?", parentID)
	if cursor != nil {
		db = db.Where("(created_at, comment_id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	err := db.Order("created_at ASC, comment_id ASC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("comment_id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) CreateWithCounter(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if comment.ParentID == nil {
			return nil
		}
		return tx.Model(&model.Comment{}).
			Where("comment_id = ?", *comment.ParentID).
			UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error
	})
}

func (r *commentRepo) MarkRemoved(ctx context.Context, id string, removedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("comment_id = ?", id).
		Updates(map[string]interface{}{
			"is_removed": true,
			"updated_by": removedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *commentRepo) Like(ctx context.Context, commentID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.CommentLike{}).
			Where("comment_id = ? AND user_id = ?", commentID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil // 已点赞，幂等返回
		}
		if err := tx.Create(&model.CommentLike{
			CommentID: commentID,
			UserID:    userID,
		}).Error; err != nil {
			return err
		}
		liked = true
		return tx.Model(&model.Comment{}).
			Where("comment_id = ?", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	return liked, err
}

func (r *commentRepo) Unlike(ctx context.Context, commentID, userID string) (bool, error) {
	unliked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			Delete(&model.CommentLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // 未点赞，幂等返回
		}
		unliked = true
		return tx.Model(&model.Comment{}).
			Where("comment_id = ? AND like_count > 0", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	return unliked, err
}
