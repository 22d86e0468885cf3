package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crownside/backend/internal/dto"
	"crownside/backend/internal/metrics"
	"crownside/backend/internal/model"
	"crownside/backend/internal/repository"
)

// ── 可用性模块业务错误 ──

var (
	ErrStylistNotFound  = errors.New("造型师不存在")
	ErrNotAStylist      = errors.New("该用户不是造型师")
	ErrInvalidDate      = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("日期范围无效")
	ErrScheduleInvalid  = errors.New("排班数据校验失败")
	ErrExceptionInvalid = errors.New("日期例外数据校验失败")
)

const dateLayout = "2006-01-02"

// defaultScheduleTemplate 首次加载时的默认模板：周一至周五 09:00-17:00
// 周六周日保留默认时段供前端回显，但不参与可用性判定
func defaultScheduleTemplate(stylistID string) []model.WeeklyScheduleEntry {
	entries := make([]model.WeeklyScheduleEntry, 0, 7)
	for dow := 0; dow <= 6; dow++ {
		entries = append(entries, model.WeeklyScheduleEntry{
			StylistID:    stylistID,
			DayOfWeek:    dow,
			IsWorkingDay: dow >= 1 && dow <= 5,
			StartTime:    "09:00",
			EndTime:      "17:00",
		})
	}
	return entries
}

// AvailabilityService 可用性模块业务接口
type AvailabilityService interface {
	// GetAvailability 获取排班 + 指定范围内的日期例外；首次调用补齐默认模板
	GetAvailability(ctx context.Context, stylistID string, start, end string) (*dto.AvailabilityResponse, error)
	// SaveSchedule 整组替换 7 条每周排班
	SaveSchedule(ctx context.Context, stylistID string, req *dto.SaveScheduleRequest) (*dto.AvailabilityResponse, error)
	// AddException 新增日期例外（同日期覆盖）
	AddException(ctx context.Context, stylistID string, req *dto.AddExceptionRequest) (*dto.ExceptionResponse, error)
	// IsSlotAvailable 判定指定时刻是否可约
	IsSlotAvailable(ctx context.Context, stylistID string, at time.Time) (bool, error)
	// DayZones 计算视图内每日的不可用区域（像素坐标）
	DayZones(ctx context.Context, stylistID string, view string, dateStr string) ([]dto.DayZonesResponse, error)
	// GenerateSlots 按固定步长生成当日档期，已被占用的标记为不可约
	GenerateSlots(ctx context.Context, stylistID string, dateStr string, slotMinutes int) ([]dto.SlotResponse, error)
}

type availabilityService struct {
	repo        *repository.Repository
	grid        GridLayout
	slotMinutes int
	cache       *dayCache
	logger      *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(repo *repository.Repository, grid GridLayout, slotMinutes, cacheSize int, logger *zap.Logger) AvailabilityService {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &availabilityService{
		repo:        repo,
		grid:        grid,
		slotMinutes: slotMinutes,
		cache:       newDayCache(cacheSize),
		logger:      logger,
	}
}

// ────────────────────── GetAvailability ──────────────────────

func (s *availabilityService) GetAvailability(ctx context.Context, stylistID string, start, end string) (*dto.AvailabilityResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}

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

	schedule, err := s.loadOrSeedSchedule(ctx, stylistID)
	if err != nil {
		return nil, err
	}

	exceptions, err := s.repo.Exception.ListByStylistAndRange(ctx, stylistID, startDate, endDate)
	if err != nil {
		s.logger.Error("查询日期例外失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}

	return buildAvailabilityResponse(schedule, exceptions), nil
}

// loadOrSeedSchedule 读取每周排班；不存在时落库默认模板后返回
// 7 条不变式由此保证：保存动作整组替换，读取动作补齐缺失
func (s *availabilityService) loadOrSeedSchedule(ctx context.Context, stylistID string) ([]model.WeeklyScheduleEntry, error) {
	schedule, err := s.repo.Schedule.ListByStylist(ctx, stylistID)
	if err != nil {
		s.logger.Error("查询每周排班失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}
	if len(schedule) == 7 {
		return schedule, nil
	}

	seeded := defaultScheduleTemplate(stylistID)
	if err := s.repo.Schedule.ReplaceForStylist(ctx, stylistID, seeded); err != nil {
		s.logger.Error("写入默认排班模板失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}
	s.cache.invalidate(stylistID)
	s.logger.Info("已为造型师补齐默认排班模板", zap.String("stylist_id", stylistID))
	return seeded, nil
}

// ────────────────────── SaveSchedule ──────────────────────

func (s *availabilityService) SaveSchedule(ctx context.Context, stylistID string, req *dto.SaveScheduleRequest) (*dto.AvailabilityResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduleInvalid, err)
	}

	entries := make([]model.WeeklyScheduleEntry, 0, 7)
	for _, e := range req.Schedule {
		entries = append(entries, model.WeeklyScheduleEntry{
			StylistID:    stylistID,
			DayOfWeek:    e.DayOfWeek,
			IsWorkingDay: e.IsWorkingDay,
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
		})
	}

	if err := s.repo.Schedule.ReplaceForStylist(ctx, stylistID, entries); err != nil {
		s.logger.Error("保存每周排班失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}
	s.cache.invalidate(stylistID)

	return buildAvailabilityResponse(entries, nil), nil
}

// ────────────────────── AddException ──────────────────────

func (s *availabilityService) AddException(ctx context.Context, stylistID string, req *dto.AddExceptionRequest) (*dto.ExceptionResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExceptionInvalid, err)
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	ex := &model.DateException{
		StylistID: stylistID,
		Date:      date,
		IsOff:     req.IsOff,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}
	if ex.StartTime == "" {
		ex.StartTime = "09:00"
	}
	if ex.EndTime == "" {
		ex.EndTime = "17:00"
	}

	if err := s.repo.Exception.Upsert(ctx, ex); err != nil {
		s.logger.Error("写入日期例外失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}
	s.cache.invalidate(stylistID)

	resp := toExceptionResponse(ex)
	return &resp, nil
}

// ────────────────────── IsSlotAvailable ──────────────────────

func (s *availabilityService) IsSlotAvailable(ctx context.Context, stylistID string, at time.Time) (bool, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return false, err
	}

	snap, err := s.daySnapshotFor(ctx, stylistID, at)
	if err != nil {
		return false, err
	}
	return snap.isSlotAvailable(at.Format("15:04")), nil
}

// ────────────────────── DayZones ──────────────────────

func (s *availabilityService) DayZones(ctx context.Context, stylistID string, view string, dateStr string) ([]dto.DayZonesResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}

	days, err := ComputeVisibleDays(view, date)
	if err != nil {
		return nil, err
	}

	result := make([]dto.DayZonesResponse, 0, len(days))
	for _, day := range days {
		snap, err := s.daySnapshotFor(ctx, stylistID, day)
		if err != nil {
			return nil, err
		}
		zones := snap.unavailableZones(s.grid)
		dz := dto.DayZonesResponse{Date: day.Format(dateLayout)}
		for _, z := range zones {
			dz.Zones = append(dz.Zones, dto.ZoneResponse{Top: z.Top, Height: z.Height})
		}
		result = append(result, dz)
	}
	return result, nil
}

// ────────────────────── GenerateSlots ──────────────────────

func (s *availabilityService) GenerateSlots(ctx context.Context, stylistID string, dateStr string, slotMinutes int) ([]dto.SlotResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}
	if slotMinutes <= 0 {
		slotMinutes = s.slotMinutes
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}

	snap, err := s.daySnapshotFor(ctx, stylistID, date)
	if err != nil {
		return nil, err
	}

	start, end, open := snap.effectiveWindow()
	if !open {
		return []dto.SlotResponse{}, nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	events, err := s.repo.Event.ListByStylistAndRange(ctx, stylistID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("查询日历事件失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return nil, err
	}

	var slots []dto.SlotResponse
	for cursor := hhmmToMinutes(start); cursor+slotMinutes <= hhmmToMinutes(end); cursor += slotMinutes {
		slotStart := dayStart.Add(time.Duration(cursor) * time.Minute)
		slotEnd := slotStart.Add(time.Duration(slotMinutes) * time.Minute)

		taken := false
		for i := range events {
			if events[i].Overlaps(slotStart, slotEnd) {
				taken = true
				break
			}
		}

		slots = append(slots, dto.SlotResponse{
			Start:     minutesToHHMM(cursor),
			End:       minutesToHHMM(cursor + slotMinutes),
			Available: !taken,
		})
	}
	return slots, nil
}

// ── 内部辅助方法 ──

func (s *availabilityService) ensureStylist(ctx context.Context, stylistID string) error {
	user, err := s.repo.User.GetByID(ctx, stylistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStylistNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", stylistID), zap.Error(err))
		return err
	}
	if user.Role != model.RoleStylist {
		return ErrNotAStylist
	}
	return nil
}

// daySnapshotFor 组装单日快照，优先命中 LRU 缓存
func (s *availabilityService) daySnapshotFor(ctx context.Context, stylistID string, date time.Time) (daySnapshot, error) {
	if snap, ok := s.cache.get(stylistID, date); ok {
		metrics.IncCacheHit()
		return snap, nil
	}
	metrics.IncCacheMiss()

	schedule, err := s.loadOrSeedSchedule(ctx, stylistID)
	if err != nil {
		return daySnapshot{}, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	exceptions, err := s.repo.Exception.ListByStylistAndRange(ctx, stylistID, dayStart, dayStart)
	if err != nil {
		s.logger.Error("查询日期例外失败", zap.String("stylist_id", stylistID), zap.Error(err))
		return daySnapshot{}, err
	}

	snap := buildDaySnapshot(date, schedule, exceptions)
	s.cache.put(stylistID, date, snap)
	return snap, nil
}

func buildAvailabilityResponse(schedule []model.WeeklyScheduleEntry, exceptions []model.DateException) *dto.AvailabilityResponse {
	resp := &dto.AvailabilityResponse{
		Schedule:   make([]dto.ScheduleEntryPayload, 0, len(schedule)),
		Exceptions: make([]dto.ExceptionResponse, 0, len(exceptions)),
	}
	for _, e := range schedule {
		resp.Schedule = append(resp.Schedule, dto.ScheduleEntryPayload{
			DayOfWeek:    e.DayOfWeek,
			IsWorkingDay: e.IsWorkingDay,
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
		})
	}
	for i := range exceptions {
		resp.Exceptions = append(resp.Exceptions, toExceptionResponse(&exceptions[i]))
	}
	return resp
}

func toExceptionResponse(ex *model.DateException) dto.ExceptionResponse {
	return dto.ExceptionResponse{
		ID:        ex.ExceptionID,
		Date:      ex.Date.Format(dateLayout),
		IsOff:     ex.IsOff,
		StartTime: ex.StartTime,
		EndTime:   ex.EndTime,
		Reason:    ex.Reason,
	}
}

// ── 单日快照 LRU 缓存 ──
//
// 键含造型师代际号：写操作递增代际即可令旧条目永不再命中，
// 由 LRU 自然淘汰，避免按前缀扫描删除。

type dayCache struct {
	mu   sync.Mutex
	gens map[string]uint64
	lru  *lru.Cache[string, daySnapshot]
}

func newDayCache(size int) *dayCache {
	if size <= 0 {
		size = 1024
	}
	c, _ := lru.New[string, daySnapshot](size)
	return &dayCache{
		gens: make(map[string]uint64),
		lru:  c,
	}
}

func (c *dayCache) key(stylistID string, date time.Time) string {
	c.mu.Lock()
	gen := c.gens[stylistID]
	c.mu.Unlock()
	return fmt.Sprintf("%s:%d:%s", stylistID, gen, date.Format(dateLayout))
}

func (c *dayCache) get(stylistID string, date time.Time) (daySnapshot, bool) {
	return c.lru.Get(c.key(stylistID, date))
}

func (c *dayCache) put(stylistID string, date time.Time, snap daySnapshot) {
	c.lru.Add(c.key(stylistID, date), snap)
}

func (c *dayCache) invalidate(stylistID string) {
	c.mu.Lock()
	c.gens[stylistID]++
	c.mu.Unlock()
}
