package engine

import (
	"time"

	"wisefido-rollcall/internal/domain"
)

// EntryActiveAt 判断日程条目在某时刻是否生效
// 生效条件：星期几匹配 且 start <= 当日分钟 < end（半开区间：
// 恰好在结束时刻查询时不生效，恰好在开始时刻查询时生效）；
// 一次性条目还要求 EffectiveDate 与查询日期为同一天
func EntryActiveAt(e *domain.ScheduleEntry, at time.Time) bool {
	if int(at.Weekday()) != e.DayOfWeek {
		return false
	}
	minute := domain.MinuteOfDay(at)
	if minute < e.StartMinute || minute >= e.EndMinute {
		return false
	}
	if !e.Recurring {
		if e.EffectiveDate == nil {
			return false
		}
		return domain.SameDate(*e.EffectiveDate, at)
	}
	return true
}

// ActiveByOccupant 按人员分组生效中的日程条目
// 这是"谁此刻不在默认单元"判断的唯一数据来源；
// 是否真的"在别处"还要比较条目位置与默认单元（见 occupancy.go）
func ActiveByOccupant(entries []*domain.ScheduleEntry) map[string][]*domain.ScheduleEntry {
	active := make(map[string][]*domain.ScheduleEntry)
	for _, e := range entries {
		active[e.OccupantID] = append(active[e.OccupantID], e)
	}
	return active
}
