package model

import "time"

// DateException 日期例外表 — 对应 date_exceptions
//
// 例外永远优先于每周排班，无论放宽还是收窄时段。
// is_off=true 表示全天不可预约；为 false 时 start/end 覆盖当日工作时段。
// 同一造型师同一日期仅一条记录（新增即覆盖，由唯一索引兜底）。
type DateException struct {
	ExceptionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exception_id"`
	StylistID   string    `gorm:"type:uuid;not null;uniqueIndex:uq_exception_stylist_date" json:"stylist_id"`
	Date        time.Time `gorm:"type:date;not null;uniqueIndex:uq_exception_stylist_date" json:"date"`
	IsOff       bool      `gorm:"not null;default:true"                    json:"is_off"`
	StartTime   string    `gorm:"type:varchar(5);not null;default:'09:00'" json:"start_time"` // 仅 is_off=false 时有效
	EndTime     string    `gorm:"type:varchar(5);not null;default:'17:00'" json:"end_time"`
	Reason      string    `gorm:"type:varchar(200)"                        json:"reason,omitempty"`
	BaseModel

	// 关联
	Stylist *User `gorm:"foreignKey:StylistID;references:UserID" json:"stylist,omitempty"`
}

// TableName 指定表名
func (DateException) TableName() string { return "date_exceptions" }
