package engine

import (
	"time"

	"wisefido-rollcall/internal/domain"
)

// 优先级打分常量
// 分数只决定人员在停靠点内的核对顺序，与是否"预期在场"无关
const (
	priorityBase = 50

	bonusWithin15Min = 50
	bonusWithin30Min = 40
	bonusWithin60Min = 20

	bonusHealthcare = 10
	bonusVisits     = 5

	priorityMax = 100

	urgentThresholdMinutes = 15
)

// nextOccurrence 计算单个日程条目在 at 之后最近一次开始时间
// 周期条目按星期几滚动到下一次；一次性条目仅在 effective_date 当天有一次。
// 返回 nil 表示该条目在未来没有开始时刻
func nextOccurrence(e *domain.ScheduleEntry, at time.Time) *time.Time {
	startAtDate := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, e.StartMinute/60, e.StartMinute%60, 0, 0, at.Location())
	}

	if !e.Recurring {
		if e.EffectiveDate == nil {
			return nil
		}
		start := startAtDate(e.EffectiveDate.Date())
		if !start.After(at) {
			return nil
		}
		return &start
	}

	days := (e.DayOfWeek - int(at.Weekday()) + 7) % 7
	candidate := at.AddDate(0, 0, days)
	start := startAtDate(candidate.Date())
	if !start.After(at) {
		start = start.AddDate(0, 0, 7)
	}
	return &start
}

// NextAppointmentFor 在人员的全部日程条目中前瞻最近的未来日程
// 任意星期、任意位置都参与比较；没有未来日程返回 nil
func NextAppointmentFor(entries []*domain.ScheduleEntry, at time.Time) *domain.NextAppointment {
	var best *domain.NextAppointment
	for _, e := range entries {
		start := nextOccurrence(e, at)
		if start == nil {
			continue
		}
		if best != nil && !start.Before(best.StartsAt) {
			continue
		}
		minutes := int(start.Sub(at).Minutes())
		best = &domain.NextAppointment{
			ActivityType: e.ActivityType,
			LocationID:   e.LocationID,
			StartsAt:     *start,
			MinutesUntil: minutes,
			Urgent:       minutes < urgentThresholdMinutes,
		}
	}
	return best
}

// Score 计算人员的优先级分数，范围 [0,100]
// 基础分 50；按距下一日程开始的分钟数加时间分（<15:+50，<30:+40，<60:+20）；
// 医疗类再 +10，会见类再 +5（与时间分叠加）；最终截断到 100。
// 没有未来日程保持基础分 50
func Score(next *domain.NextAppointment) int {
	score := priorityBase
	if next == nil {
		return score
	}

	switch {
	case next.MinutesUntil < 15:
		score += bonusWithin15Min
	case next.MinutesUntil < 30:
		score += bonusWithin30Min
	case next.MinutesUntil < 60:
		score += bonusWithin60Min
	}

	switch next.ActivityType {
	case domain.ActivityHealthcare:
		score += bonusHealthcare
	case domain.ActivityVisits:
		score += bonusVisits
	}

	if score > priorityMax {
		score = priorityMax
	}
	return score
}
