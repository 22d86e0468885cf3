package service

import (
	"math"
	"testing"
	"time"

	"crownside/backend/internal/model"
)

// 2026-08-03 是周一
var monday = time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

func workingEntry(dow int, start, end string) model.WeeklyScheduleEntry {
	return model.WeeklyScheduleEntry{
		StylistID:    "stylist-1",
		DayOfWeek:    dow,
		IsWorkingDay: true,
		StartTime:    start,
		EndTime:      end,
	}
}

func TestEffectiveWindow_ExceptionPrecedence(t *testing.T) {
	entry := workingEntry(1, "09:00", "17:00")

	// 无例外时走每周排班
	snap := daySnapshot{Date: monday, Entry: &entry}
	start, end, open := snap.effectiveWindow()
	if !open || start != "09:00" || end != "17:00" {
		t.Fatalf("无例外时应返回排班时段，实得 %s-%s open=%v", start, end, open)
	}

	// 收窄例外优先
	narrow := &model.DateException{Date: monday, IsOff: false, StartTime: "10:00", EndTime: "12:00"}
	snap.Exception = narrow
	start, end, open = snap.effectiveWindow()
	if !open || start != "10:00" || end != "12:00" {
		t.Fatalf("收窄例外应覆盖排班，实得 %s-%s open=%v", start, end, open)
	}

	// 放宽例外同样优先（即使超出排班时段）
	widen := &model.DateException{Date: monday, IsOff: false, StartTime: "07:00", EndTime: "22:00"}
	snap.Exception = widen
	start, end, _ = snap.effectiveWindow()
	if start != "07:00" || end != "22:00" {
		t.Fatalf("放宽例外应覆盖排班，实得 %s-%s", start, end)
	}

	// 全天休息例外：即使排班为工作日也关闭
	off := &model.DateException{Date: monday, IsOff: true}
	snap.Exception = off
	if _, _, open = snap.effectiveWindow(); open {
		t.Fatal("is_off 例外应令全天关闭")
	}
}

func TestIsSlotAvailable_FailClosed(t *testing.T) {
	// 无排班记录且无例外 → 全天不可约
	snap := daySnapshot{Date: monday}
	if snap.isSlotAvailable("12:00") {
		t.Fatal("无排班记录时应视为不可约")
	}

	// 非工作日 → 不可约
	restDay := model.WeeklyScheduleEntry{DayOfWeek: 1, IsWorkingDay: false, StartTime: "09:00", EndTime: "17:00"}
	snap.Entry = &restDay
	if snap.isSlotAvailable("12:00") {
		t.Fatal("非工作日应视为不可约")
	}

	// 仅有例外也可开放（无排班记录但例外放行）
	snap.Entry = nil
	snap.Exception = &model.DateException{Date: monday, IsOff: false, StartTime: "10:00", EndTime: "14:00"}
	if !snap.isSlotAvailable("10:00") {
		t.Fatal("例外开放时段内应可约")
	}
}

func TestIsSlotAvailable_HalfOpenInterval(t *testing.T) {
	entry := workingEntry(1, "09:00", "17:00")
	snap := daySnapshot{Date: monday, Entry: &entry}

	cases := []struct {
		at   string
		want bool
	}{
		{"08:59", false},
		{"09:00", true}, // 恰好开始时刻可约
		{"12:30", true},
		{"16:59", true},
		{"17:00", false}, // 恰好结束时刻不可约
		{"17:01", false},
	}
	for _, c := range cases {
		if got := snap.isSlotAvailable(c.at); got != c.want {
			t.Errorf("时刻 %s: 期望 %v 实得 %v", c.at, c.want, got)
		}
	}
}

func TestIsSlotAvailable_LexicographicComparison(t *testing.T) {
	// 两端补零后字典序比较必须等价于时间先后：09:30 < 10:00
	entry := workingEntry(1, "09:30", "10:00")
	snap := daySnapshot{Date: monday, Entry: &entry}

	if !snap.isSlotAvailable("09:30") {
		t.Fatal("09:30 应可约")
	}
	if snap.isSlotAvailable("10:00") {
		t.Fatal("10:00 应不可约")
	}
	// 跨小时位比较：08:05 < 09:30
	if snap.isSlotAvailable("08:05") {
		t.Fatal("08:05 在开门前，应不可约")
	}
}

func TestUnavailableZones_ClosedDay(t *testing.T) {
	g := testGrid()
	snap := daySnapshot{Date: monday} // 无排班 → 关闭

	zones := snap.unavailableZones(g)
	if len(zones) != 1 {
		t.Fatalf("关闭日应返回单一区域，实得 %d 个", len(zones))
	}
	wantHeight := float64(23-6) * 80
	if zones[0].Top != 0 || zones[0].Height != wantHeight {
		t.Fatalf("关闭日区域应覆盖整个网格 (0, %.0f)，实得 (%.0f, %.0f)", wantHeight, zones[0].Top, zones[0].Height)
	}
}

func TestUnavailableZones_OpenDay(t *testing.T) {
	g := testGrid()
	entry := workingEntry(1, "09:00", "17:00")
	snap := daySnapshot{Date: monday, Entry: &entry}

	zones := snap.unavailableZones(g)
	if len(zones) != 2 {
		t.Fatalf("开放日应返回开门前/收工后两段区域，实得 %d 个", len(zones))
	}

	// 开门前：6:00-9:00 → Top 0, Height 3h * 80px
	if zones[0].Top != 0 || zones[0].Height != 240 {
		t.Errorf("开门前区域应为 (0, 240)，实得 (%.0f, %.0f)", zones[0].Top, zones[0].Height)
	}
	// 收工后：17:00-23:00 → Top 11h * 80px, Height 6h * 80px
	if zones[1].Top != 880 || zones[1].Height != 480 {
		t.Errorf("收工后区域应为 (880, 480)，实得 (%.0f, %.0f)", zones[1].Top, zones[1].Height)
	}
}

func TestUnavailableZones_HalfHourBoundary(t *testing.T) {
	g := testGrid()
	entry := workingEntry(1, "09:30", "17:00")
	snap := daySnapshot{Date: monday, Entry: &entry}

	zones := snap.unavailableZones(g)
	// 9:30 开门 → 开门前高度 3.5h * 80 = 280px，小数小时线性换算
	if math.Abs(zones[0].Height-280) > 1e-9 {
		t.Fatalf("半点开门的补白高度应为 280，实得 %.2f", zones[0].Height)
	}
}

func TestUnavailableZones_FullGridWindow(t *testing.T) {
	g := testGrid()
	// 工作时段覆盖整个可见网格 → 无补白区域
	entry := workingEntry(1, "06:00", "23:00")
	snap := daySnapshot{Date: monday, Entry: &entry}

	if zones := snap.unavailableZones(g); len(zones) != 0 {
		t.Fatalf("全网格开放时不应有补白区域，实得 %d 个", len(zones))
	}
}

func TestGridLayout_OffsetRoundTrip(t *testing.T) {
	g := testGrid()

	// 事件定位与区域边界共用同一换算：9:00 → (9-6)*80 = 240px
	if got := g.offsetFor(9); got != 240 {
		t.Fatalf("9:00 偏移应为 240，实得 %.0f", got)
	}
	// 像素点击反解：点击 250px 落在 9 点档
	if got := g.HourAtOffset(250); got != 9 {
		t.Fatalf("250px 应反解为 9 点，实得 %d", got)
	}
	// 0px 反解为网格起始小时
	if got := g.HourAtOffset(0); got != 6 {
		t.Fatalf("0px 应反解为 6 点，实得 %d", got)
	}
}

func TestBuildDaySnapshot_WeekdayMatch(t *testing.T) {
	schedule := []model.WeeklyScheduleEntry{
		workingEntry(0, "10:00", "14:00"), // 周日
		workingEntry(1, "09:00", "17:00"), // 周一
	}
	exceptions := []model.DateException{
		{Date: monday.AddDate(0, 0, 6), IsOff: true}, // 下周日
	}

	// 周一命中 day_of_week=1
	snap := buildDaySnapshot(monday, schedule, exceptions)
	if snap.Entry == nil || snap.Entry.DayOfWeek != 1 {
		t.Fatal("周一应命中 day_of_week=1 的排班")
	}
	if snap.Exception != nil {
		t.Fatal("周一不应命中下周日的例外")
	}

	// 周日（0=周日约定）命中 day_of_week=0 与当日例外
	sunday := monday.AddDate(0, 0, 6)
	snap = buildDaySnapshot(sunday, schedule, exceptions)
	if snap.Entry == nil || snap.Entry.DayOfWeek != 0 {
		t.Fatal("周日应命中 day_of_week=0 的排班")
	}
	if snap.Exception == nil || !snap.Exception.IsOff {
		t.Fatal("周日应命中当日例外")
	}
}

func TestHHMMConversions(t *testing.T) {
	if got := hhmmToDecimalHours("09:30"); got != 9.5 {
		t.Errorf("09:30 应换算为 9.5，实得 %v", got)
	}
	if got := hhmmToMinutes("09:30"); got != 570 {
		t.Errorf("09:30 应换算为 570 分钟，实得 %d", got)
	}
	if got := minutesToHHMM(570); got != "09:30" {
		t.Errorf("570 分钟应格式化为 09:30，实得 %s", got)
	}
	// 非法输入回落为 0
	if got := hhmmToDecimalHours("bogus"); got != 0 {
		t.Errorf("非法时间串应回落为 0，实得 %v", got)
	}
}
