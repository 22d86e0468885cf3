package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/metrics"
	"crownside/backend/internal/model"
	"crownside/backend/internal/repository"
)

// ── 日历模块业务错误 ──

var (
	ErrInvalidView      = errors.New("视图类型无效，应为 day/week/month")
	ErrInvalidStartsAt  = errors.New("starts_at 格式无效，应为 RFC3339")
	ErrSlotUnavailable  = errors.New("该时段不可预约")
	ErrSlotConflict     = errors.New("该时段与已有预约冲突")
	ErrBookingNotFound  = errors.New("预约不存在")
	ErrBookingForbidden = errors.New("无权操作该预约")
	ErrStaleRange       = errors.New("区间请求已过期")
)

// ── CalendarService 接口 ──────────────────────────────────
//
// 设计说明：
//   - RangeSnapshot 并行拉取事件与可用性，全有或全无地合并；
//     每个快照请求携带所属造型师的代际号，同一造型师切换范围后
//     迟到的旧响应被丢弃而非覆盖新视图，不同造型师互不影响。
//   - 预约创建在写入前用与渲染端相同的解析器做可用性预检，
//     再做重叠检测，宁可拒绝也不放行可疑时段。
// ─────────────────────────────────────────────────────────────

// CalendarService 日历模块业务接口
type CalendarService interface {
	// VisibleDays 计算视图可见日期范围
	VisibleDays(view string, dateStr string) (*dto.VisibleDaysResponse, error)
	// RangeSnapshot 并行获取区间内事件 + 可用性快照
	RangeSnapshot(ctx context.Context, stylistID string, start, end string) (*dto.RangeSnapshotResponse, error)
	// ListEvents 查询区间内事件（带像素定位）
	ListEvents(ctx context.Context, stylistID string, start, end string) ([]dto.CalendarEventResponse, error)
	// ResolveSlotClick 将网格点击换算为候选时间并做可用性预检
	ResolveSlotClick(ctx context.Context, req *dto.SlotClickRequest) (*dto.SlotClickResponse, error)
	// CreateBooking 客户创建预约（可用性预检 + 重叠检测）
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest, clientID string) (*dto.CalendarEventResponse, error)
	// CreateBlockout 造型师创建屏蔽时段
	CreateBlockout(ctx context.Context, req *dto.CreateBlockoutRequest, stylistID string) (*dto.CalendarEventResponse, error)
	// CancelBooking 取消预约（预约客户或档主）
	CancelBooking(ctx context.Context, eventID string, callerID string) error
}

type calendarService struct {
	repo         *repository.Repository
	availability AvailabilityService
	grid         GridLayout
	slotMinutes  int
	genMu        sync.Mutex
	generations  map[string]uint64 // 每造型师一个区间快照代际号，互不干扰
	logger       *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, availability AvailabilityService, grid GridLayout, slotMinutes int, logger *zap.Logger) CalendarService {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &calendarService{
		repo:         repo,
		availability: availability,
		grid:         grid,
		slotMinutes:  slotMinutes,
		generations:  make(map[string]uint64),
		logger:       logger,
	}
}

// ────────────────────── VisibleDays ──────────────────────

// ComputeVisibleDays 计算视图可见日期
//
//	day   → 单日
//	week  → 包含该日期的周一起始 7 天（周日归入上一周）
//	month → 自当月 1 号当日或之前最近周一起的固定 42 天（6 周）网格
func ComputeVisibleDays(view string, date time.Time) ([]time.Time, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	switch view {
	case "day":
		return []time.Time{day}, nil
	case "week":
		weekStart := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return consecutiveDays(weekStart, 7), nil
	case "month":
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		gridStart := first.AddDate(0, 0, -((int(first.Weekday()) + 6) % 7))
		return consecutiveDays(gridStart, 42), nil
	default:
		return nil, ErrInvalidView
	}
}

func consecutiveDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

func (s *calendarService) VisibleDays(view string, dateStr string) (*dto.VisibleDaysResponse, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}

	days, err := ComputeVisibleDays(view, date)
	if err != nil {
		return nil, err
	}

	resp := &dto.VisibleDaysResponse{View: view, Days: make([]string, 0, len(days))}
	for _, d := range days {
		resp.Days = append(resp.Days, d.Format(dateLayout))
	}
	return resp, nil
}

// ────────────────────── RangeSnapshot ──────────────────────

func (s *calendarService) RangeSnapshot(ctx context.Context, stylistID string, start, end string) (*dto.RangeSnapshotResponse, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, ErrInvalidDate
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	// 记录该造型师的当前代际号；同一造型师的后续请求会递增代际，
	// 令本次结果作废。其他造型师的快照互不影响
	gen := s.nextGeneration(stylistID)

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()

	var (
		wg           sync.WaitGroup
		events       []model.CalendarEvent
		availability *dto.AvailabilityResponse
		eventsErr    error
		availErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		events, eventsErr = s.repo.Event.ListByStylistAndRange(fetchCtx, stylistID, startDate, endDate.AddDate(0, 0, 1))
		if eventsErr != nil {
			cancelFetch()
		}
	}()
	go func() {
		defer wg.Done()
		availability, availErr = s.availability.GetAvailability(fetchCtx, stylistID, start, end)
		if availErr != nil {
			cancelFetch()
		}
	}()
	wg.Wait()

	// 全有或全无：任一失败即取消另一路并整体失败，不渲染半成品。
	// 因取消而中断的一路不作为错误上报，只回传先发生的真实错误
	if eventsErr != nil && !errors.Is(eventsErr, context.Canceled) {
		s.logger.Error("查询日历事件失败", zap.String("stylist_id", stylistID), zap.Error(eventsErr))
		return nil, eventsErr
	}
	if availErr != nil {
		return nil, availErr
	}
	if eventsErr != nil {
		return nil, eventsErr
	}

	// 迟到的旧区间响应直接丢弃，避免覆盖新视图状态
	if s.currentGeneration(stylistID) != gen {
		return nil, ErrStaleRange
	}

	return &dto.RangeSnapshotResponse{
		Events:       s.toEventResponses(events),
		Availability: availability,
	}, nil
}

// ────────────────────── ListEvents ──────────────────────

func (s *calendarService) ListEvents(ctx context.Context, stylistID string, start, end string) ([]dto.CalendarEventResponse, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, ErrInvalidDate
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	events, err := s.repo.Event.ListByStylistAndRange(ctx, stylistID, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("查询日历事件失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}
	return s.toEventResponses(events), nil
}

// ────────────────────── ResolveSlotClick ──────────────────────

func (s *calendarService) ResolveSlotClick(ctx context.Context, req *dto.SlotClickRequest) (*dto.SlotClickResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	hour := s.grid.HourAtOffset(req.OffsetPx)
	candidate := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC)

	available, err := s.availability.IsSlotAvailable(ctx, req.StylistID, candidate)
	if err != nil {
		return nil, err
	}
	if !available {
		metrics.IncSlotRejected()
	}

	return &dto.SlotClickResponse{StartsAt: candidate, Available: available}, nil
}

// ────────────────────── CreateBooking ──────────────────────

func (s *calendarService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest, clientID string) (*dto.CalendarEventResponse, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrInvalidStartsAt
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.slotMinutes
	}

	// 1. 可用性预检：开始与结束时刻都必须落在生效时段内
	if err := s.ensureSlotBookable(ctx, req.StylistID, startsAt, duration); err != nil {
		return nil, err
	}

	// 2. 重叠检测：与已确认事件冲突则拒绝
	end := startsAt.Add(time.Duration(duration) * time.Minute)
	overlapping, err := s.repo.Event.ListOverlapping(ctx, req.StylistID, startsAt, end)
	if err != nil {
		s.logger.Error("重叠检测失败", zap.String("stylist_id", req.StylistID), zap.Error(err))
		return nil, err
	}
	if len(overlapping) > 0 {
		metrics.IncSlotRejected()
		return nil, ErrSlotConflict
	}

	client, err := s.repo.User.GetByID(ctx, clientID)
	if err != nil {
		s.logger.Error("查询客户失败", zap.String("user_id", clientID), zap.Error(err))
		return nil, err
	}

	event := &model.CalendarEvent{
		StylistID:       req.StylistID,
		ClientID:        &clientID,
		StartsAt:        startsAt,
		DurationMinutes: duration,
		Title:           req.Title,
		ClientName:      client.Name,
		Status:          model.EventStatusConfirmed,
	}
	event.CreatedBy = &clientID
	event.UpdatedBy = &clientID

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建预约失败", zap.String("stylist_id", req.StylistID), zap.Error(err))
		return nil, err
	}

	metrics.IncBookingCreated("booking")
	s.logger.Info("预约创建成功",
		zap.String("event_id", event.EventID),
		zap.String("stylist_id", req.StylistID),
		zap.Time("starts_at", startsAt),
	)

	resp := s.toEventResponse(event)
	return &resp, nil
}

// ensureSlotBookable 预约前可用性预检（失败即拒绝，不发起写入）
func (s *calendarService) ensureSlotBookable(ctx context.Context, stylistID string, startsAt time.Time, durationMinutes int) error {
	start, err := s.availability.IsSlotAvailable(ctx, stylistID, startsAt)
	if err != nil {
		return err
	}
	// 结束时刻按半开区间复查：恰好收工时刻结束的预约是合法的
	lastMinute := startsAt.Add(time.Duration(durationMinutes-1) * time.Minute)
	end, err := s.availability.IsSlotAvailable(ctx, stylistID, lastMinute)
	if err != nil {
		return err
	}
	if !start || !end {
		metrics.IncSlotRejected()
		return ErrSlotUnavailable
	}
	return nil
}

// ────────────────────── CreateBlockout ──────────────────────

func (s *calendarService) CreateBlockout(ctx context.Context, req *dto.CreateBlockoutRequest, stylistID string) (*dto.CalendarEventResponse, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrInvalidStartsAt
	}

	title := req.Title
	if title == "" {
		title = "不可预约"
	}

	event := &model.CalendarEvent{
		StylistID:       stylistID,
		StartsAt:        startsAt,
		DurationMinutes: req.DurationMinutes,
		IsBlockout:      true,
		Title:           title,
		Status:          model.EventStatusConfirmed,
	}
	event.CreatedBy = &stylistID
	event.UpdatedBy = &stylistID

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建屏蔽时段失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}

	metrics.IncBookingCreated("blockout")

	resp := s.toEventResponse(event)
	return &resp, nil
}

// ────────────────────── CancelBooking ──────────────────────

func (s *calendarService) CancelBooking(ctx context.Context, eventID string, callerID string) error {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}

	// 仅预约客户或档主可取消
	isClient := event.ClientID != nil && *event.ClientID == callerID
	if !isClient && event.StylistID != callerID {
		return ErrBookingForbidden
	}

	event.Status = model.EventStatusCancelled
	event.UpdatedBy = &callerID

	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("取消预约失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}

	s.logger.Info("预约已取消", zap.String("event_id", eventID), zap.String("by", callerID))
	return nil
}

// ── 内部辅助方法 ──

func (s *calendarService) nextGeneration(stylistID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[stylistID]++
	return s.generations[stylistID]
}

func (s *calendarService) currentGeneration(stylistID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[stylistID]
}

// toEventResponse 事件定位与不可用区域共用同一每小时像素常量，
// 保证同一时刻的事件顶边与区域边界像素对齐
func (s *calendarService) toEventResponse(e *model.CalendarEvent) dto.CalendarEventResponse {
	startHour := float64(e.StartsAt.Hour()) + float64(e.StartsAt.Minute())/60.0
	return dto.CalendarEventResponse{
		ID:              e.EventID,
		StylistID:       e.StylistID,
		StartsAt:        e.StartsAt,
		DurationMinutes: e.DurationMinutes,
		IsBlockout:      e.IsBlockout,
		Title:           e.Title,
		ClientName:      e.ClientName,
		Status:          e.Status,
		Top:             s.grid.offsetFor(startHour),
		Height:          float64(e.DurationMinutes) / 60.0 * s.grid.PixelsPerHour,
	}
}

func (s *calendarService) toEventResponses(events []model.CalendarEvent) []dto.CalendarEventResponse {
	result := make([]dto.CalendarEventResponse, 0, len(events))
	for i := range events {
		result = append(result, s.toEventResponse(&events[i]))
	}
	return result
}
