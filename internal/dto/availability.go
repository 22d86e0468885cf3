package dto

import (
	"fmt"
	"regexp"
)

// hhmmPattern HH:MM 24小时制校验（补零）
var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidHHMM 校验 HH:MM 时间串格式
// 两端补零后字典序比较即等价于分钟数比较，可用性判定依赖此前提
func ValidHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

// ── 每周排班 ──

// ScheduleEntryPayload 单条每周排班（保存请求与响应共用）
type ScheduleEntryPayload struct {
	DayOfWeek    int    `json:"day_of_week" binding:"min=0,max=6"` // 0=周日
	IsWorkingDay bool   `json:"is_working_day"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
}

// SaveScheduleRequest 整组替换每周排班请求
type SaveScheduleRequest struct {
	Schedule []ScheduleEntryPayload `json:"schedule" binding:"required"`
}

// Validate 校验业务规则：恰好 7 条、每个星期各一条、工作日时段合法
func (r *SaveScheduleRequest) Validate() error {
	if len(r.Schedule) != 7 {
		return fmt.Errorf("排班必须包含恰好 7 条记录，实际 %d 条", len(r.Schedule))
	}
	seen := make(map[int]bool, 7)
	for _, e := range r.Schedule {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return fmt.Errorf("day_of_week 必须在 0-6 之间")
		}
		if seen[e.DayOfWeek] {
			return fmt.Errorf("day_of_week=%d 重复", e.DayOfWeek)
		}
		seen[e.DayOfWeek] = true
		if !ValidHHMM(e.StartTime) || !ValidHHMM(e.EndTime) {
			return fmt.Errorf("时间必须为补零的 HH:MM 24小时制")
		}
		if e.IsWorkingDay && e.StartTime >= e.EndTime {
			return fmt.Errorf("工作日 start_time 必须早于 end_time")
		}
	}
	return nil
}

// ── 日期例外 ──

// AddExceptionRequest 新增日期例外请求（同日期已存在时覆盖）
type AddExceptionRequest struct {
	StylistID string `json:"stylist_id" binding:"omitempty,uuid"`
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	IsOff     bool   `json:"is_off"`
	StartTime string `json:"start_time" binding:"omitempty"`
	EndTime   string `json:"end_time" binding:"omitempty"`
	Reason    string `json:"reason" binding:"omitempty,max=200"`
}

// Validate 校验业务规则：非全天休息时必须提供合法覆盖时段
func (r *AddExceptionRequest) Validate() error {
	if !r.IsOff {
		if !ValidHHMM(r.StartTime) || !ValidHHMM(r.EndTime) {
			return fmt.Errorf("覆盖时段必须为补零的 HH:MM 24小时制")
		}
		if r.StartTime >= r.EndTime {
			return fmt.Errorf("start_time 必须早于 end_time")
		}
	}
	return nil
}

// ExceptionResponse 日期例外响应
type ExceptionResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	IsOff     bool   `json:"is_off"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// AvailabilityResponse GET /availability/:stylistId 响应
type AvailabilityResponse struct {
	Schedule   []ScheduleEntryPayload `json:"schedule"`
	Exceptions []ExceptionResponse    `json:"exceptions"`
}

// ── 渲染辅助 ──

// ZoneResponse 不可用区域（网格像素坐标系）
type ZoneResponse struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DayZonesResponse 单日不可用区域
type DayZonesResponse struct {
	Date  string         `json:"date"`
	Zones []ZoneResponse `json:"zones"`
}

// SlotResponse 生成的可预约档期
type SlotResponse struct {
	Start     string `json:"start"` // HH:MM
	End       string `json:"end"`
	Available bool   `json:"available"`
}
