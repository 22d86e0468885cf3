package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crownside/backend/internal/model"
)

// ── 可用性判定核心 ──────────────────────────────────────────
//
// 设计说明：
//   - 例外永远优先于每周排班，无论放宽还是收窄时段
//   - 时段为半开区间 [start, end)：恰好等于 start 可约，恰好等于 end 不可约
//   - HH:MM 两端补零，字典序比较等价于分钟数比较
//   - 无例外且无对应星期记录时视为全天不可约（宁缺勿滥：
//     预约系统中模糊的可用性绝不能当作可约处理）
// ─────────────────────────────────────────────────────────────

// daySnapshot 单日可用性快照：每周排班 + 当日例外的合并视图
type daySnapshot struct {
	Date      time.Time
	Entry     *model.WeeklyScheduleEntry // 该日期星期几对应的排班，可能为 nil
	Exception *model.DateException       // 当日例外，可能为 nil
}

// effectiveWindow 按优先级规则计算当日生效工作时段
// open=false 表示全天关闭（全天休息、非工作日或无排班记录）
func (d *daySnapshot) effectiveWindow() (start, end string, open bool) {
	if d.Exception != nil {
		if d.Exception.IsOff {
			return "", "", false
		}
		return d.Exception.StartTime, d.Exception.EndTime, true
	}
	if d.Entry == nil || !d.Entry.IsWorkingDay {
		return "", "", false
	}
	return d.Entry.StartTime, d.Entry.EndTime, true
}

// isSlotAvailable 判定当日指定时刻是否可约
func (d *daySnapshot) isSlotAvailable(timeOfDay string) bool {
	start, end, open := d.effectiveWindow()
	if !open {
		return false
	}
	return start <= timeOfDay && timeOfDay < end
}

// ── 网格像素换算 ──

// GridLayout 网格渲染常量，不可用区域与事件定位共用
type GridLayout struct {
	StartHour     int     // 渲染起始小时（含）
	EndHour       int     // 渲染结束小时（不含）
	PixelsPerHour float64 // 每小时像素高度
}

// Zone 不可用区域（网格像素坐标系，仅用于渲染）
type Zone struct {
	Top    float64
	Height float64
}

// totalHeight 整日网格高度
func (g GridLayout) totalHeight() float64 {
	return float64(g.EndHour-g.StartHour) * g.PixelsPerHour
}

// offsetFor 将当日小数小时换算为垂直像素偏移
func (g GridLayout) offsetFor(decimalHour float64) float64 {
	return (decimalHour - float64(g.StartHour)) * g.PixelsPerHour
}

// HourAtOffset 将垂直像素偏移换算回当日整点小时（槽位点击用）
func (g GridLayout) HourAtOffset(offsetPx float64) int {
	return g.StartHour + int(offsetPx/g.PixelsPerHour)
}

// unavailableZones 计算当日不可用区域列表
//
// 全天关闭 → 覆盖整个可见范围的单一区域；
// 否则按需生成开门前与收工后两段补白区域。
func (d *daySnapshot) unavailableZones(g GridLayout) []Zone {
	start, end, open := d.effectiveWindow()
	if !open {
		return []Zone{{Top: 0, Height: g.totalHeight()}}
	}

	startH := hhmmToDecimalHours(start)
	endH := hhmmToDecimalHours(end)

	var zones []Zone
	if startH > float64(g.StartHour) {
		zones = append(zones, Zone{
			Top:    0,
			Height: g.offsetFor(startH),
		})
	}
	if endH < float64(g.EndHour) {
		zones = append(zones, Zone{
			Top:    g.offsetFor(endH),
			Height: (float64(g.EndHour) - endH) * g.PixelsPerHour,
		})
	}
	return zones
}

// ── 时间串换算辅助 ──

// hhmmToDecimalHours "09:30" → 9.5；非法输入回落为 0
func hhmmToDecimalHours(s string) float64 {
	h, m, err := splitHHMM(s)
	if err != nil {
		return 0
	}
	return float64(h) + float64(m)/60.0
}

// hhmmToMinutes "09:30" → 570
func hhmmToMinutes(s string) int {
	h, m, err := splitHHMM(s)
	if err != nil {
		return 0
	}
	return h*60 + m
}

// minutesToHHMM 570 → "09:30"
func minutesToHHMM(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

func splitHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("非法时间串 %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}

// sameDate 按日粒度比较（例外日期是时区无关的日历日）
func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// buildDaySnapshot 从排班集与例外列表组装单日快照
func buildDaySnapshot(date time.Time, schedule []model.WeeklyScheduleEntry, exceptions []model.DateException) daySnapshot {
	snap := daySnapshot{Date: date}
	weekday := int(date.Weekday()) // 0=周日，与存储约定一致
	for i := range schedule {
		if schedule[i].DayOfWeek == weekday {
			snap.Entry = &schedule[i]
			break
		}
	}
	for i := range exceptions {
		if sameDate(exceptions[i].Date, date) {
			snap.Exception = &exceptions[i]
			break
		}
	}
	return snap
}
