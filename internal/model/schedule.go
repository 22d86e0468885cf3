package model

// WeeklyScheduleEntry 每周工作时间表 — 对应 weekly_schedule_entries
//
// 每位造型师固定 7 条记录（day_of_week 0-6，0=周日），首次加载时
// 以周一至周五 09:00-17:00 模板补齐，保存排班时整组替换，永不单条删除。
// is_working_day=false 时 start/end 不参与可用性判定，但保留供前端回显。
type WeeklyScheduleEntry struct {
	EntryID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	StylistID    string `gorm:"type:uuid;not null;uniqueIndex:uq_schedule_stylist_day" json:"stylist_id"`
	DayOfWeek    int    `gorm:"type:smallint;not null;uniqueIndex:uq_schedule_stylist_day" json:"day_of_week"` // 0-6，0=周日
	IsWorkingDay bool   `gorm:"not null;default:false"                         json:"is_working_day"`
	StartTime    string `gorm:"type:varchar(5);not null;default:'09:00'"       json:"start_time"` // HH:MM 24小时制
	EndTime      string `gorm:"type:varchar(5);not null;default:'17:00'"       json:"end_time"`
	BaseModel

	// 关联
	Stylist *User `gorm:"foreignKey:StylistID;references:UserID" json:"stylist,omitempty"`
}

// TableName 指定表名
func (WeeklyScheduleEntry) TableName() string { return "weekly_schedule_entries" }
