package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crownside/backend/internal/model"
	"crownside/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoBookings   = errors.New("该区间内无预约记录")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 预约记录导出为 Excel (.xlsx)，一行一条预约，屏蔽时段单独标注
//   - ICS 订阅源按 RFC 5545 输出发型师的已确认事件，供外部日历客户端订阅
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportBookings 导出某发型师区间内的预约记录为 Excel
	ExportBookings(ctx context.Context, stylistID string, start, end time.Time) (*bytes.Buffer, string, error)
	// BuildICSFeed 生成发型师日历的 ICS 订阅源
	BuildICSFeed(ctx context.Context, stylistID string, start, end time.Time) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportBookings — 导出预约记录为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "预约记录"
//   - 表头: | 日期 | 开始 | 结束 | 时长(分钟) | 类型 | 客户 | 备注 |
//   - 按 starts_at 升序排列
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportBookings(ctx context.Context, stylistID string, start, end time.Time) (*bytes.Buffer, string, error) {
	// 1. 确认发型师存在
	stylist, err := s.repo.User.GetByID(ctx, stylistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStylistNotFound
		}
		s.logger.Error("查询发型师失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 查询区间内已确认事件
	events, err := s.repo.Event.ListByStylistAndRange(ctx, stylistID, start, end)
	if err != nil {
		s.logger.Error("查询预约记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(events) == 0 {
		return nil, "", ErrExportNoBookings
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	widths := []float64{12, 8, 8, 12, 10, 16, 24}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 预约记录 (%s ~ %s)",
		stylist.Name, start.Format("2006-01-02"), end.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "G1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "开始", "结束", "时长(分钟)", "类型", "客户", "备注"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), h)
	}

	// 数据行
	row := 3
	for i := range events {
		ev := &events[i]
		kind := "预约"
		client := ev.ClientName
		if ev.IsBlockout {
			kind = "屏蔽时段"
			client = "-"
		}
		values := []interface{}{
			ev.StartsAt.Format("2006-01-02"),
			ev.StartsAt.Format("15:04"),
			ev.EndsAt().Format("15:04"),
			ev.DurationMinutes,
			kind,
			client,
			ev.Title,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("预约记录_%s_%s.xlsx", stylist.Name, start.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// BuildICSFeed — 生成 ICS 日历订阅源
// ═══════════════════════════════════════════════════════════
//
// 每个已确认事件生成一个 VEVENT，UID 固定为 event_id@crownside，
// 外部日历客户端刷新时据此去重。

func (s *exportService) BuildICSFeed(ctx context.Context, stylistID string, start, end time.Time) (string, error) {
	stylist, err := s.repo.User.GetByID(ctx, stylistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStylistNotFound
		}
		s.logger.Error("查询发型师失败", zap.Error(err))
		return "", err
	}
	if stylist.Role != model.RoleStylist {
		return "", ErrNotAStylist
	}

	events, err := s.repo.Event.ListByStylistAndRange(ctx, stylistID, start, end)
	if err != nil {
		s.logger.Error("查询日历事件失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//CrownSide//Calendar//ZH")
	cal.SetName(fmt.Sprintf("%s 的日程", stylist.Name))

	for i := range events {
		ev := &events[i]
		vevent := cal.AddEvent(fmt.Sprintf("%s@crownside", ev.EventID))
		vevent.SetDtStampTime(time.Now().UTC())
		vevent.SetStartAt(ev.StartsAt.UTC())
		vevent.SetEndAt(ev.EndsAt().UTC())

		summary := ev.Title
		if summary == "" {
			if ev.IsBlockout {
				summary = "不可预约"
			} else {
				summary = fmt.Sprintf("预约 — %s", ev.ClientName)
			}
		}
		vevent.SetSummary(summary)
	}

	return cal.Serialize(), nil
}
