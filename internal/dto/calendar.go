package dto

import "time"

// ── 日历事件 ──

// CalendarEventResponse 日历事件响应
type CalendarEventResponse struct {
	ID              string    `json:"id"`
	StylistID       string    `json:"stylist_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	IsBlockout      bool      `json:"is_blockout"`
	Title           string    `json:"title,omitempty"`
	ClientName      string    `json:"client_name,omitempty"`
	Status          string    `json:"status"`
	// 像素定位（与不可用区域共用同一每小时像素常量）
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// CreateBookingRequest 创建预约请求
type CreateBookingRequest struct {
	StylistID       string `json:"stylist_id" binding:"required,uuid"`
	StartsAt        string `json:"starts_at" binding:"required"` // RFC3339
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Title           string `json:"title" binding:"omitempty,max=200"`
}

// CreateBlockoutRequest 创建屏蔽时段请求
type CreateBlockoutRequest struct {
	StartsAt        string `json:"starts_at" binding:"required"` // RFC3339
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=5,max=1440"`
	Title           string `json:"title" binding:"omitempty,max=200"`
}

// ── 网格视图 ──

// VisibleDaysResponse 视图可见日期范围
type VisibleDaysResponse struct {
	View string   `json:"view"` // day | week | month
	Days []string `json:"days"` // YYYY-MM-DD，有序
}

// SlotClickRequest 槽位点击解析请求
// 将网格内垂直像素偏移换算为候选预约时间并做可用性预检
type SlotClickRequest struct {
	StylistID string  `json:"stylist_id" binding:"required,uuid"`
	Date      string  `json:"date" binding:"required"` // YYYY-MM-DD
	OffsetPx  float64 `json:"offset_px" binding:"min=0"`
}

// SlotClickResponse 槽位点击解析响应
type SlotClickResponse struct {
	StartsAt  time.Time `json:"starts_at"`
	Available bool      `json:"available"`
}

// RangeSnapshotResponse 区间快照：事件 + 可用性的全有或全无合并结果
type RangeSnapshotResponse struct {
	Events       []CalendarEventResponse `json:"events"`
	Availability *AvailabilityResponse   `json:"availability"`
}
