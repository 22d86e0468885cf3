package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"crownside/backend/internal/model"
	"crownside/backend/internal/repository"
)

// ── Mock Repositories ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	if user.Email != "" {
		m.users["email:"+user.Email] = user
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	seen := make(map[string]bool)
	for _, u := range m.users {
		if u.Role == role && !seen[u.UserID] {
			seen[u.UserID] = true
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	if user.Email != "" {
		m.users["email:"+user.Email] = user
	}
	return nil
}

// addUser 测试辅助：直接注入一个用户
func (m *mockUserRepo) addUser(id, name, role string) *model.User {
	u := &model.User{UserID: id, Name: name, Email: id + "@test.local", Role: role}
	m.users[id] = u
	m.users["email:"+u.Email] = u
	return u
}

// ────────────────────────────────────────

type mockScheduleRepo struct {
	schedules    map[string][]model.WeeklyScheduleEntry
	replaceCalls int
	listErr      error
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string][]model.WeeklyScheduleEntry)}
}

func (m *mockScheduleRepo) ListByStylist(_ context.Context, stylistID string) ([]model.WeeklyScheduleEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	entries := m.schedules[stylistID]
	sorted := make([]model.WeeklyScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DayOfWeek < sorted[j].DayOfWeek })
	return sorted, nil
}

func (m *mockScheduleRepo) ReplaceForStylist(_ context.Context, stylistID string, entries []model.WeeklyScheduleEntry) error {
	m.replaceCalls++
	stored := make([]model.WeeklyScheduleEntry, len(entries))
	copy(stored, entries)
	m.schedules[stylistID] = stored
	return nil
}

// ────────────────────────────────────────

type mockExceptionRepo struct {
	exceptions map[string][]model.DateException
	upserts    int
}

func newMockExceptionRepo() *mockExceptionRepo {
	return &mockExceptionRepo{exceptions: make(map[string][]model.DateException)}
}

func (m *mockExceptionRepo) ListByStylistAndRange(_ context.Context, stylistID string, start, end time.Time) ([]model.DateException, error) {
	var result []model.DateException
	for _, ex := range m.exceptions[stylistID] {
		if !ex.Date.Before(start) && !ex.Date.After(end) {
			result = append(result, ex)
		}
	}
	return result, nil
}

func (m *mockExceptionRepo) GetByStylistAndDate(_ context.Context, stylistID string, date time.Time) (*model.DateException, error) {
	for i := range m.exceptions[stylistID] {
		if m.exceptions[stylistID][i].Date.Equal(date) {
			return &m.exceptions[stylistID][i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) Upsert(_ context.Context, ex *model.DateException) error {
	m.upserts++
	list := m.exceptions[ex.StylistID]
	for i := range list {
		if list[i].Date.Year() == ex.Date.Year() &&
			list[i].Date.Month() == ex.Date.Month() &&
			list[i].Date.Day() == ex.Date.Day() {
			ex.ExceptionID = list[i].ExceptionID
			list[i] = *ex
			m.exceptions[ex.StylistID] = list
			return nil
		}
	}
	if ex.ExceptionID == "" {
		ex.ExceptionID = fmt.Sprintf("ex-%d", m.upserts)
	}
	m.exceptions[ex.StylistID] = append(list, *ex)
	return nil
}

func (m *mockExceptionRepo) Delete(_ context.Context, id string) error {
	for stylist, list := range m.exceptions {
		for i := range list {
			if list[i].ExceptionID == id {
				m.exceptions[stylist] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

// ────────────────────────────────────────

type mockEventRepo struct {
	events  []*model.CalendarEvent
	nextID  int
	listErr error

	// 并发测试钩子：listStarted 非 nil 时每次区间查询先发信号，
	// listRelease 非 nil 时查询阻塞直至其关闭
	listStarted chan struct{}
	listRelease chan struct{}
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{}
}

func (m *mockEventRepo) Create(_ context.Context, event *model.CalendarEvent) error {
	m.nextID++
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("event-%d", m.nextID)
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.CalendarEvent, error) {
	for _, e := range m.events {
		if e.EventID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) ListByStylistAndRange(_ context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error) {
	if m.listStarted != nil {
		m.listStarted <- struct{}{}
	}
	if m.listRelease != nil {
		<-m.listRelease
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.CalendarEvent
	for _, e := range m.events {
		if e.StylistID == stylistID && e.Status == model.EventStatusConfirmed &&
			!e.StartsAt.Before(start) && e.StartsAt.Before(end) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (m *mockEventRepo) ListOverlapping(_ context.Context, stylistID string, start, end time.Time) ([]model.CalendarEvent, error) {
	var result []model.CalendarEvent
	for _, e := range m.events {
		if e.StylistID == stylistID && e.Status == model.EventStatusConfirmed && e.Overlaps(start, end) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.CalendarEvent) error {
	for i, e := range m.events {
		if e.EventID == event.EventID {
			m.events[i] = event
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ────────────────────────────────────────

type mockCommentRepo struct {
	comments map[string]*model.Comment
	order    []string                   // 插入顺序
	likes    map[string]map[string]bool // comment_id → user_id → liked
	nextID   int
	clock    time.Time
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{
		comments: make(map[string]*model.Comment),
		likes:    make(map[string]map[string]bool),
		clock:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockCommentRepo) ListRoots(_ context.Context, cursor *repository.CommentCursor, limit int) ([]model.Comment, error) {
	return m.list(nil, cursor, limit, false)
}

func (m *mockCommentRepo) ListReplies(_ context.Context, parentID string, cursor *repository.CommentCursor, limit int) ([]model.Comment, error) {
	return m.list(&parentID, cursor, limit, true)
}

func (m *mockCommentRepo) list(parentID *string, cursor *repository.CommentCursor, limit int, asc bool) ([]model.Comment, error) {
	var all []model.Comment
	for _, id := range m.order {
		c := m.comments[id]
		if parentID == nil && c.ParentID != nil {
			continue
		}
		if parentID != nil && (c.ParentID == nil || *c.ParentID != *parentID) {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			if asc {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		if asc {
			return all[i].CommentID < all[j].CommentID
		}
		return all[i].CommentID > all[j].CommentID
	})

	var result []model.Comment
	for _, c := range all {
		if cursor != nil && !afterCursor(&c, cursor, asc) {
			continue
		}
		result = append(result, c)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// afterCursor 复合键元组比较：(created_at, comment_id) 严格位于游标之后
func afterCursor(c *model.Comment, cursor *repository.CommentCursor, asc bool) bool {
	if asc {
		if c.CreatedAt.After(cursor.CreatedAt) {
			return true
		}
		return c.CreatedAt.Equal(cursor.CreatedAt) && c.CommentID > cursor.ID
	}
	if c.CreatedAt.Before(cursor.CreatedAt) {
		return true
	}
	return c.CreatedAt.Equal(cursor.CreatedAt) && c.CommentID < cursor.ID
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommentRepo) CreateWithCounter(_ context.Context, comment *model.Comment) error {
	m.nextID++
	if comment.CommentID == "" {
		comment.CommentID = fmt.Sprintf("comment-%03d", m.nextID)
	}
	m.clock = m.clock.Add(time.Minute)
	comment.CreatedAt = m.clock
	m.comments[comment.CommentID] = comment
	m.order = append(m.order, comment.CommentID)

	if comment.ParentID != nil {
		if parent, ok := m.comments[*comment.ParentID]; ok {
			parent.ReplyCount++
		}
	}
	return nil
}

func (m *mockCommentRepo) MarkRemoved(_ context.Context, id string, removedBy string) error {
	c, ok := m.comments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.IsRemoved = true
	c.UpdatedBy = &removedBy
	return nil
}

func (m *mockCommentRepo) Like(_ context.Context, commentID, userID string) (bool, error) {
	if m.likes[commentID] == nil {
		m.likes[commentID] = make(map[string]bool)
	}
	if m.likes[commentID][userID] {
		return false, nil
	}
	m.likes[commentID][userID] = true
	m.comments[commentID].LikeCount++
	return true, nil
}

func (m *mockCommentRepo) Unlike(_ context.Context, commentID, userID string) (bool, error) {
	if !m.likes[commentID][userID] {
		return false, nil
	}
	delete(m.likes[commentID], userID)
	if m.comments[commentID].LikeCount > 0 {
		m.comments[commentID].LikeCount--
	}
	return true, nil
}

// ── 测试装配辅助 ──

type testRepos struct {
	user      *mockUserRepo
	schedule  *mockScheduleRepo
	exception *mockExceptionRepo
	event     *mockEventRepo
	comment   *mockCommentRepo
}

func newTestRepository() (*repository.Repository, *testRepos) {
	mocks := &testRepos{
		user:      newMockUserRepo(),
		schedule:  newMockScheduleRepo(),
		exception: newMockExceptionRepo(),
		event:     newMockEventRepo(),
		comment:   newMockCommentRepo(),
	}
	repo := &repository.Repository{
		User:      mocks.user,
		Schedule:  mocks.schedule,
		Exception: mocks.exception,
		Event:     mocks.event,
		Comment:   mocks.comment,
	}
	return repo, mocks
}

// testGrid 与默认配置保持一致：6:00-23:00，每小时 80px
func testGrid() GridLayout {
	return GridLayout{StartHour: 6, EndHour: 23, PixelsPerHour: 80}
}
