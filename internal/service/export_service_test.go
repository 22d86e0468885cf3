package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"crownside/backend/internal/model"
)

func newTestExportService() (ExportService, *testRepos) {
	repo, mocks := newTestRepository()
	mocks.user.addUser("stylist-1", "测试造型师", model.RoleStylist)
	mocks.user.addUser("client-1", "测试客户", model.RoleClient)
	return NewExportService(repo, zap.NewNop()), mocks
}

func addConfirmedEvent(mocks *testRepos, id string, startsAt time.Time, minutes int, blockout bool) {
	clientID := "client-1"
	ev := &model.CalendarEvent{
		EventID:         id,
		StylistID:       "stylist-1",
		StartsAt:        startsAt,
		DurationMinutes: minutes,
		IsBlockout:      blockout,
		Status:          model.EventStatusConfirmed,
	}
	if blockout {
		ev.Title = "不可预约"
	} else {
		ev.ClientID = &clientID
		ev.ClientName = "测试客户"
	}
	mocks.event.events = append(mocks.event.events, ev)
}

// ── ExportBookings 测试 ──

func TestExportBookings_NoRecords(t *testing.T) {
	svc, _ := newTestExportService()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := svc.ExportBookings(context.Background(), "stylist-1", start, start.AddDate(0, 0, 7))
	if !errors.Is(err, ErrExportNoBookings) {
		t.Fatalf("无记录时应返回 ErrExportNoBookings，实得 %v", err)
	}

	_, _, err = svc.ExportBookings(context.Background(), "ghost", start, start.AddDate(0, 0, 7))
	if !errors.Is(err, ErrStylistNotFound) {
		t.Fatalf("不存在的造型师应返回 ErrStylistNotFound，实得 %v", err)
	}
}

func TestExportBookings_Success(t *testing.T) {
	svc, mocks := newTestExportService()

	addConfirmedEvent(mocks, "event-1", time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), 60, false)
	addConfirmedEvent(mocks, "event-2", time.Date(2026, 8, 4, 14, 0, 0, 0, time.UTC), 120, true)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	buf, filename, err := svc.ExportBookings(context.Background(), "stylist-1", start, start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("导出的 Excel buffer 不应为空")
	}
	if filename == "" || !strings.HasSuffix(filename, ".xlsx") {
		t.Fatalf("文件名应以 .xlsx 结尾，实得 %q", filename)
	}
	// Excel .xlsx 文件以 PK (0x504B) 开头
	header := buf.Bytes()[:2]
	if header[0] != 0x50 || header[1] != 0x4B {
		t.Fatalf("导出内容应为合法 xlsx（PK 头），实得 %x", header)
	}
}

// ── BuildICSFeed 测试 ──

func TestBuildICSFeed_OneVEventPerConfirmedEvent(t *testing.T) {
	svc, mocks := newTestExportService()

	addConfirmedEvent(mocks, "event-1", time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), 60, false)
	addConfirmedEvent(mocks, "event-2", time.Date(2026, 8, 4, 14, 0, 0, 0, time.UTC), 120, true)
	// 已取消事件不进订阅源
	cancelled := &model.CalendarEvent{
		EventID:         "event-3",
		StylistID:       "stylist-1",
		StartsAt:        time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          model.EventStatusCancelled,
	}
	mocks.event.events = append(mocks.event.events, cancelled)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	feed, err := svc.BuildICSFeed(context.Background(), "stylist-1", start, start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("生成 ICS 失败: %v", err)
	}

	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "END:VCALENDAR") {
		t.Fatal("输出应为合法 VCALENDAR")
	}
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("每个已确认事件应各生成一个 VEVENT，期望 2 实得 %d", got)
	}
	// UID 固定为 event_id@crownside，供外部客户端刷新去重
	if !strings.Contains(feed, "event-1@crownside") || !strings.Contains(feed, "event-2@crownside") {
		t.Fatal("VEVENT UID 应为 event_id@crownside")
	}
	if !strings.Contains(feed, "不可预约") {
		t.Fatal("屏蔽时段 VEVENT 应携带标题")
	}
}

func TestBuildICSFeed_RejectsNonStylist(t *testing.T) {
	svc, _ := newTestExportService()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.BuildICSFeed(context.Background(), "client-1", start, start.AddDate(0, 0, 7)); !errors.Is(err, ErrNotAStylist) {
		t.Fatalf("非造型师应返回 ErrNotAStylist，实得 %v", err)
	}
}
