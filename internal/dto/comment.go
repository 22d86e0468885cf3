package dto

import "time"

// CreateCommentRequest 发表评论/回复请求
type CreateCommentRequest struct {
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
	Body     string  `json:"body" binding:"required,min=1,max=5000"`
}

// ListCommentsRequest 评论列表请求（游标分页）
// parent_id 为空拉取根评论，否则拉取该父级下的回复页
type ListCommentsRequest struct {
	ParentID string `form:"parent_id" binding:"omitempty,uuid"`
	Cursor   string `form:"cursor" binding:"omitempty"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// CommentResponse 评论响应
// 已移除的评论保留节点但正文替换为占位文案
type CommentResponse struct {
	ID         string    `json:"id"`
	ParentID   *string   `json:"parent_id,omitempty"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	ReplyCount int       `json:"reply_count"`
	LikeCount  int       `json:"like_count"`
	IsRemoved  bool      `json:"is_removed"`
	CreatedAt  time.Time `json:"created_at"`
}
