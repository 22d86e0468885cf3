package model

import "time"

// Comment 评论表 — 对应 comments
//
// parent_id 为空表示根评论；数据形态允许任意层级嵌套，
// 列表侧按"根评论 + 按父级懒加载回复"分页。
// 删除为软移除：节点保留以维持回复树结构，读取时正文替换为占位文案。
type Comment struct {
	CommentID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	AuthorID   string  `gorm:"type:uuid;not null"                             json:"author_id"`
	ParentID   *string `gorm:"type:uuid;index:idx_comments_parent_created"    json:"parent_id,omitempty"`
	Body       string  `gorm:"type:text;not null"                             json:"body"`
	ReplyCount int     `gorm:"not null;default:0"                             json:"reply_count"`
	LikeCount  int     `gorm:"not null;default:0"                             json:"like_count"`
	IsRemoved  bool    `gorm:"not null;default:false"                         json:"is_removed"`
	BaseModel

	// 关联
	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// CommentLike 评论点赞表 — 对应 comment_likes
type CommentLike struct {
	LikeID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"like_id"`
	CommentID string    `gorm:"type:uuid;not null;uniqueIndex:uq_like_comment_user" json:"comment_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_like_comment_user" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (CommentLike) TableName() string { return "comment_likes" }
