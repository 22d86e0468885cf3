package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/service"
	"crownside/backend/pkg/response"
)

// CalendarHandler 日历模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// VisibleDays 计算视图可见日期范围
// GET /api/v1/calendar/view-days?view=month&date=YYYY-MM-DD
func (h *CalendarHandler) VisibleDays(c *gin.Context) {
	view := c.DefaultQuery("view", "week")
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}

	result, err := h.calendarSvc.VisibleDays(view, date)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// ListEvents 查询本人区间内事件
// GET /api/v1/calendar/events?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	stylistID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, 10001, "start 与 end 不能为空")
		return
	}

	result, err := h.calendarSvc.ListEvents(c.Request.Context(), stylistID, start, end)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// RangeSnapshot 并行获取区间内事件 + 可用性快照
// GET /api/v1/calendar/snapshot?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *CalendarHandler) RangeSnapshot(c *gin.Context) {
	stylistID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, 10001, "start 与 end 不能为空")
		return
	}

	result, err := h.calendarSvc.RangeSnapshot(c.Request.Context(), stylistID, start, end)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// ResolveSlotClick 将网格点击换算为候选时间并做可用性预检
// POST /api/v1/calendar/slot-click
func (h *CalendarHandler) ResolveSlotClick(c *gin.Context) {
	var req dto.SlotClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.calendarSvc.ResolveSlotClick(c.Request.Context(), &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// CreateBooking 客户创建预约
// POST /api/v1/bookings
func (h *CalendarHandler) CreateBooking(c *gin.Context) {
	clientID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.calendarSvc.CreateBooking(c.Request.Context(), &req, clientID)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Created(c, result)
}

// CreateBlockout 造型师创建屏蔽时段
// POST /api/v1/calendar/blockout
func (h *CalendarHandler) CreateBlockout(c *gin.Context) {
	stylistID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBlockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.calendarSvc.CreateBlockout(c.Request.Context(), &req, stylistID)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Created(c, result)
}

// CancelBooking 取消预约（预约客户或档主）
// DELETE /api/v1/bookings/:id
func (h *CalendarHandler) CancelBooking(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	eventID := c.Param("id")

	if err := h.calendarSvc.CancelBooking(c.Request.Context(), eventID, callerID); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStylistNotFound):
		response.NotFound(c, 12001, "造型师不存在")
	case errors.Is(err, service.ErrNotAStylist):
		response.BadRequest(c, 12002, "目标用户不是造型师")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12003, "日期格式无效")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 12004, "日期范围无效")
	case errors.Is(err, service.ErrInvalidView):
		response.BadRequest(c, 12007, "视图类型无效")
	case errors.Is(err, service.ErrInvalidStartsAt):
		response.BadRequest(c, 13001, "开始时间格式无效")
	case errors.Is(err, service.ErrSlotUnavailable):
		response.Conflict(c, 13002, "该时段不可预约")
	case errors.Is(err, service.ErrSlotConflict):
		response.Conflict(c, 13003, "该时段已有预约")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 13004, "预约不存在")
	case errors.Is(err, service.ErrBookingForbidden):
		response.Forbidden(c, 13005, "无权操作该预约")
	case errors.Is(err, service.ErrStaleRange):
		response.Conflict(c, 13006, "区间请求已过期，请重试")
	default:
		response.InternalError(c)
	}
}
