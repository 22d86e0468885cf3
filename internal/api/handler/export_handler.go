package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"crownside/backend/internal/model"
	"crownside/backend/internal/service"
	"crownside/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportBookings 导出预约记录
// GET /api/v1/export/bookings?stylist_id=&start=YYYY-MM-DD&end=YYYY-MM-DD
// 造型师导出本人记录；管理员可通过 stylist_id 指定任意造型师
func (h *ExportHandler) ExportBookings(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	stylistID := callerID
	if callerRole == model.RoleAdmin && c.Query("stylist_id") != "" {
		stylistID = c.Query("stylist_id")
	}

	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportBookings(c.Request.Context(), stylistID, start, end)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ICSFeed 输出日历 ICS 订阅源
// GET /api/v1/calendar/feed.ics?stylist_id=&start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ExportHandler) ICSFeed(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	stylistID := callerID
	if callerRole == model.RoleAdmin && c.Query("stylist_id") != "" {
		stylistID = c.Query("stylist_id")
	}

	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	feed, err := h.exportSvc.BuildICSFeed(c.Request.Context(), stylistID, start, end)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=calendar.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// parseDateRange 从查询参数解析 [start, end)，end 缺省为 start+30 天
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	const layout = "2006-01-02"

	startStr := c.Query("start")
	if startStr == "" {
		response.BadRequest(c, 10001, "start 不能为空")
		return time.Time{}, time.Time{}, false
	}
	start, err := time.ParseInLocation(layout, startStr, time.Local)
	if err != nil {
		response.BadRequest(c, 10001, "start 日期格式无效")
		return time.Time{}, time.Time{}, false
	}

	end := start.AddDate(0, 0, 30)
	if endStr := c.Query("end"); endStr != "" {
		end, err = time.ParseInLocation(layout, endStr, time.Local)
		if err != nil {
			response.BadRequest(c, 10001, "end 日期格式无效")
			return time.Time{}, time.Time{}, false
		}
		// [start, end) 半开区间：end 当天 24:00 前的事件均包含
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		response.BadRequest(c, 10001, "日期范围无效")
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStylistNotFound):
		response.NotFound(c, 12001, "造型师不存在")
	case errors.Is(err, service.ErrNotAStylist):
		response.BadRequest(c, 12002, "目标用户不是造型师")
	case errors.Is(err, service.ErrExportNoBookings):
		response.NotFound(c, 15001, "该区间内无预约记录")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
