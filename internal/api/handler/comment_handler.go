package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/service"
	"crownside/backend/pkg/response"
)

// CommentHandler 评论模块 HTTP 处理器
type CommentHandler struct {
	commentSvc service.CommentService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

// List 拉取根评论页或回复页
// GET /api/v1/comments?parent_id=&cursor=&limit=
func (h *CommentHandler) List(c *gin.Context) {
	var req dto.ListCommentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, nextCursor, err := h.commentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OKCursor(c, list, nextCursor)
}

// Create 发表评论或回复
// POST /api/v1/comments
func (h *CommentHandler) Create(c *gin.Context) {
	authorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.commentSvc.Create(c.Request.Context(), &req, authorID)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.Created(c, result)
}

// Remove 软移除评论（作者或管理员）
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Remove(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.commentSvc.Remove(c.Request.Context(), c.Param("id"), callerID, callerRole); err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, nil)
}

// Like 点赞
// PUT /api/v1/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.commentSvc.Like(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, result)
}

// Unlike 取消点赞
// DELETE /api/v1/comments/:id/like
func (h *CommentHandler) Unlike(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.commentSvc.Unlike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *CommentHandler) handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, 14001, "评论不存在")
	case errors.Is(err, service.ErrCommentParentGone):
		response.BadRequest(c, 14002, "父评论不存在或已被移除")
	case errors.Is(err, service.ErrCommentNotOwner):
		response.Forbidden(c, 14003, "无权操作该评论")
	case errors.Is(err, service.ErrCommentBadCursor):
		response.BadRequest(c, 14004, "分页游标无效")
	case errors.Is(err, service.ErrCommentAlreadyGone):
		response.Conflict(c, 14005, "评论已被移除")
	default:
		response.InternalError(c)
	}
}
