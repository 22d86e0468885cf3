package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/model"
	"crownside/backend/internal/repository"
)

// ── 评论模块业务错误 ──

var (
	ErrCommentNotFound    = errors.New("评论不存在")
	ErrCommentParentGone  = errors.New("父评论不存在")
	ErrCommentNotOwner    = errors.New("无权操作该评论")
	ErrCommentBadCursor   = errors.New("分页游标无效")
	ErrCommentAlreadyGone = errors.New("评论已被移除")
)

// removedPlaceholder 软移除后的占位正文（节点保留以维持回复树形结构）
const removedPlaceholder = "[该评论已被移除]"

const defaultCommentPageSize = 20

// ── CommentService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 列表侧采用"根评论 + 按父级懒加载回复"模型，数据形态允许
//     任意层级 parent_id 链，回复页对任何评论均可展开。
//   - 游标为 created_at+comment_id 复合键的 base64 编码，
//     根评论新在前、回复旧在前。
//   - 计数器（reply_count/like_count）与写操作同事务递增，
//     失败时增量随事务整体回滚，正负增量互为逆元不会漂移。
// ─────────────────────────────────────────────────────────────

// CommentService 评论模块业务接口
type CommentService interface {
	// List 拉取根评论页或指定父级的回复页
	List(ctx context.Context, req *dto.ListCommentsRequest) ([]dto.CommentResponse, string, error)
	// Create 发表评论或回复
	Create(ctx context.Context, req *dto.CreateCommentRequest, authorID string) (*dto.CommentResponse, error)
	// Remove 软移除（作者或管理员）
	Remove(ctx context.Context, commentID string, callerID string, callerRole string) error
	// Like 点赞（幂等）
	Like(ctx context.Context, commentID string, userID string) (*dto.CommentResponse, error)
	// Unlike 取消点赞（幂等）
	Unlike(ctx context.Context, commentID string, userID string) (*dto.CommentResponse, error)
}

type commentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *commentService) List(ctx context.Context, req *dto.ListCommentsRequest) ([]dto.CommentResponse, string, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultCommentPageSize
	}

	cursor, err := decodeCursor(req.Cursor)
	if err != nil {
		return nil, "", ErrCommentBadCursor
	}

	var comments []model.Comment
	if req.ParentID == "" {
		comments, err = s.repo.Comment.ListRoots(ctx, cursor, limit+1)
	} else {
		comments, err = s.repo.Comment.ListReplies(ctx, req.ParentID, cursor, limit+1)
	}
	if err != nil {
		s.logger.Error("查询评论失败", zap.Error(err))
		return nil, "", err
	}

	// 多取一条判断是否还有下一页
	nextCursor := ""
	if len(comments) > limit {
		comments = comments[:limit]
		last := comments[len(comments)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.CommentID)
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, toCommentResponse(&comments[i]))
	}
	return result, nextCursor, nil
}

// ────────────────────── Create ──────────────────────

func (s *commentService) Create(ctx context.Context, req *dto.CreateCommentRequest, authorID string) (*dto.CommentResponse, error) {
	if req.ParentID != nil {
		parent, err := s.repo.Comment.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentParentGone
			}
			s.logger.Error("查询父评论失败", zap.Error(err))
			return nil, err
		}
		if parent.IsRemoved {
			return nil, ErrCommentParentGone
		}
	}

	comment := &model.Comment{
		AuthorID: authorID,
		ParentID: req.ParentID,
		Body:     req.Body,
	}
	comment.CreatedBy = &authorID
	comment.UpdatedBy = &authorID

	if err := s.repo.Comment.CreateWithCounter(ctx, comment); err != nil {
		s.logger.Error("创建评论失败", zap.Error(err))
		return nil, err
	}

	resp := toCommentResponse(comment)
	return &resp, nil
}

// ────────────────────── Remove ──────────────────────

func (s *commentService) Remove(ctx context.Context, commentID string, callerID string, callerRole string) error {
	comment, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.Error(err))
		return err
	}

	if comment.IsRemoved {
		return ErrCommentAlreadyGone
	}
	if comment.AuthorID != callerID && callerRole != model.RoleAdmin {
		return ErrCommentNotOwner
	}

	if err := s.repo.Comment.MarkRemoved(ctx, commentID, callerID); err != nil {
		s.logger.Error("移除评论失败", zap.String("comment_id", commentID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Like / Unlike ──────────────────────

func (s *commentService) Like(ctx context.Context, commentID string, userID string) (*dto.CommentResponse, error) {
	return s.toggleLike(ctx, commentID, userID, true)
}

func (s *commentService) Unlike(ctx context.Context, commentID string, userID string) (*dto.CommentResponse, error) {
	return s.toggleLike(ctx, commentID, userID, false)
}

func (s *commentService) toggleLike(ctx context.Context, commentID string, userID string, like bool) (*dto.CommentResponse, error) {
	if _, err := s.repo.Comment.GetByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.Error(err))
		return nil, err
	}

	var err error
	if like {
		_, err = s.repo.Comment.Like(ctx, commentID, userID)
	} else {
		_, err = s.repo.Comment.Unlike(ctx, commentID, userID)
	}
	if err != nil {
		s.logger.Error("点赞操作失败", zap.String("comment_id", commentID), zap.Error(err))
		return nil, err
	}

	// 回读最新计数
	comment, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(comment)
	return &resp, nil
}

// ── 内部辅助方法 ──

func toCommentResponse(c *model.Comment) dto.CommentResponse {
	body := c.Body
	if c.IsRemoved {
		body = removedPlaceholder
	}
	resp := dto.CommentResponse{
		ID:         c.CommentID,
		ParentID:   c.ParentID,
		AuthorID:   c.AuthorID,
		Body:       body,
		ReplyCount: c.ReplyCount,
		LikeCount:  c.LikeCount,
		IsRemoved:  c.IsRemoved,
		CreatedAt:  c.CreatedAt,
	}
	if c.Author != nil {
		resp.AuthorName = c.Author.Name
	}
	return resp
}

// ── 游标编解码 ──

// encodeCursor created_at(纳秒) + comment_id → base64("ts|id")
func encodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor 空串返回 nil 游标（首页）
func decodeCursor(s string) (*repository.CommentCursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("游标结构无效")
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return nil, err
	}
	return &repository.CommentCursor{
		CreatedAt: time.Unix(0, nanos),
		ID:        parts[1],
	}, nil
}
