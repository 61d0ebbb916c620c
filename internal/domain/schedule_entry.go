package domain

import "time"

// ActivityType 活动类型（闭合集合）
// 数据生成脚本与核心期望值集合曾出现漂移，所以在仓库边界做显式校验
type ActivityType string

const (
	ActivityWork       ActivityType = "work"
	ActivityEducation  ActivityType = "education"
	ActivityHealthcare ActivityType = "healthcare"
	ActivityVisits     ActivityType = "visits"
	ActivityProgram    ActivityType = "program"
	ActivityCourt      ActivityType = "court"
	ActivityExercise   ActivityType = "exercise"
	ActivityInUnit     ActivityType = "in_unit" // 在本单元内的活动（如收监锁闭）
)

// validActivityTypes 合法活动类型集合
var validActivityTypes = map[ActivityType]bool{
	ActivityWork:       true,
	ActivityEducation:  true,
	ActivityHealthcare: true,
	ActivityVisits:     true,
	ActivityProgram:    true,
	ActivityCourt:      true,
	ActivityExercise:   true,
	ActivityInUnit:     true,
}

// IsValid 判断活动类型是否合法
func (t ActivityType) IsValid() bool {
	return validActivityTypes[t]
}

// ScheduleEntry 周期日程条目领域模型（对应 schedule_entries 表）
// 表示"该人员在某星期几的某时间段应在某位置进行某活动"
// 时间为当日墙钟时间，按当日零点起的分钟数存储（不支持跨夜）
type ScheduleEntry struct {
	// 主键
	EntryID string `db:"entry_id"` // UUID, PRIMARY KEY

	// 租户
	TenantID string `db:"tenant_id"` // UUID, NOT NULL

	// 关联
	OccupantID string `db:"occupant_id"` // UUID, NOT NULL, FK to occupants
	LocationID string `db:"location_id"` // UUID, NOT NULL, FK to locations

	// 时间窗口
	DayOfWeek   int `db:"day_of_week"`  // SMALLINT, 0-6（0=周日，与 time.Weekday 一致）
	StartMinute int `db:"start_minute"` // SMALLINT, 0-1439，当日零点起分钟数
	EndMinute   int `db:"end_minute"`   // SMALLINT, 1-1440, start < end

	// 活动类型
	ActivityType ActivityType `db:"activity_type"` // VARCHAR(20), NOT NULL

	// 周期性：true=每周重复；false=一次性，仅在 EffectiveDate 当天生效
	Recurring     bool       `db:"recurring"`      // BOOLEAN, NOT NULL, DEFAULT true
	EffectiveDate *time.Time `db:"effective_date"` // DATE, nullable（仅一次性条目使用）
}

// MinuteOfDay 计算某时刻在当日零点起的分钟数
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SameDate 判断两个时间是否为同一天（按 t 所在时区的日历日）
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
