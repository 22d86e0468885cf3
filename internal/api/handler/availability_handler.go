package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/service"
	"crownside/backend/pkg/response"
)

// AvailabilityHandler 可用性模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// GetAvailability 获取排班 + 日期例外
// GET /api/v1/availability/:stylistId?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	stylistID := c.Param("stylistId")
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, 10001, "start 与 end 不能为空")
		return
	}

	result, err := h.availabilitySvc.GetAvailability(c.Request.Context(), stylistID, start, end)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// GetZones 获取视图内每日不可用区域（像素坐标）
// GET /api/v1/availability/:stylistId/zones?date=YYYY-MM-DD&view=week
func (h *AvailabilityHandler) GetZones(c *gin.Context) {
	stylistID := c.Param("stylistId")
	date := c.Query("date")
	view := c.DefaultQuery("view", "week")
	if date == "" {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}

	result, err := h.availabilitySvc.DayZones(c.Request.Context(), stylistID, view, date)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// GetSlots 生成当日档期
// GET /api/v1/availability/:stylistId/slots?date=YYYY-MM-DD&duration=30
func (h *AvailabilityHandler) GetSlots(c *gin.Context) {
	stylistID := c.Param("stylistId")
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}

	var query struct {
		Duration int `form:"duration" binding:"omitempty,min=5,max=480"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.GenerateSlots(c.Request.Context(), stylistID, date, query.Duration)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// SaveSchedule 整组替换每周排班（造型师本人）
// PUT /api/v1/availability/schedule
func (h *AvailabilityHandler) SaveSchedule(c *gin.Context) {
	stylistID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.SaveSchedule(c.Request.Context(), stylistID, &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// AddException 新增/覆盖日期例外（造型师本人）
// POST /api/v1/availability/exception
func (h *AvailabilityHandler) AddException(c *gin.Context) {
	stylistID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AddExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.AddException(c.Request.Context(), stylistID, &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStylistNotFound):
		response.NotFound(c, 12001, "造型师不存在")
	case errors.Is(err, service.ErrNotAStylist):
		response.BadRequest(c, 12002, "目标用户不是造型师")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12003, "日期格式无效")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 12004, "日期范围无效")
	case errors.Is(err, service.ErrScheduleInvalid):
		response.BadRequest(c, 12005, "排班数据无效")
	case errors.Is(err, service.ErrExceptionInvalid):
		response.BadRequest(c, 12006, "日期例外数据无效")
	case errors.Is(err, service.ErrInvalidView):
		response.BadRequest(c, 12007, "视图类型无效")
	default:
		response.InternalError(c)
	}
}
