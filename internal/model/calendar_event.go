package model

import "time"

// 日历事件状态
const (
	EventStatusConfirmed = "confirmed"
	EventStatusCancelled = "cancelled"
)

// CalendarEvent 日历事件表 — 对应 calendar_events
//
// 预约（client_id 非空）与屏蔽时段（is_blockout=true）共用同一张表，
// 网格渲染端只读消费。
type CalendarEvent struct {
	EventID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	StylistID       string    `gorm:"type:uuid;not null;index:idx_events_stylist_start" json:"stylist_id"`
	ClientID        *string   `gorm:"type:uuid"                                      json:"client_id,omitempty"`
	StartsAt        time.Time `gorm:"not null;index:idx_events_stylist_start"        json:"starts_at"`
	DurationMinutes int       `gorm:"not null"                                       json:"duration_minutes"`
	IsBlockout      bool      `gorm:"not null;default:false"                         json:"is_blockout"`
	Title           string    `gorm:"type:varchar(200)"                              json:"title,omitempty"`
	ClientName      string    `gorm:"type:varchar(100)"                              json:"client_name,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'confirmed'"  json:"status"` // confirmed | cancelled
	SoftDeleteModel

	// 关联
	Stylist *User `gorm:"foreignKey:StylistID;references:UserID" json:"stylist,omitempty"`
	Client  *User `gorm:"foreignKey:ClientID;references:UserID"  json:"client,omitempty"`
}

// TableName 指定表名
func (CalendarEvent) TableName() string { return "calendar_events" }

// EndsAt 事件结束时间
func (e *CalendarEvent) EndsAt() time.Time {
	return e.StartsAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Overlaps 判断与 [start, end) 时间段是否重叠
func (e *CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartsAt.Before(end) && start.Before(e.EndsAt())
}
