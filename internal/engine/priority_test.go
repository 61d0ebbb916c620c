package engine

import (
	"testing"
	"time"

	"wisefido-rollcall/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAppointmentFor_RecurringLookahead(t *testing.T) {
	at := tuesdayAt(9, 30)

	entries := []*domain.ScheduleEntry{
		// 周二 10:00 开始：30 分钟后
		makeEntry("occupant-1", "healthcare-1", 2, 600, 660, domain.ActivityHealthcare),
		// 周三 08:00 开始：更远
		makeEntry("occupant-1", "workshop-1", 3, 480, 600, domain.ActivityWork),
	}

	next := NextAppointmentFor(entries, at)
	require.NotNil(t, next)
	assert.Equal(t, domain.ActivityHealthcare, next.ActivityType)
	assert.Equal(t, "healthcare-1", next.LocationID)
	assert.Equal(t, 30, next.MinutesUntil)
	assert.False(t, next.Urgent)
}

func TestNextAppointmentFor_RollsOverToNextWeek(t *testing.T) {
	at := tuesdayAt(9, 30)

	// 周二 08:00 已经开始过：滚动到下周二
	entries := []*domain.ScheduleEntry{
		makeEntry("occupant-1", "workshop-1", 2, 480, 540, domain.ActivityWork),
	}

	next := NextAppointmentFor(entries, at)
	require.NotNil(t, next)
	assert.Equal(t, 7*24*60-90, next.MinutesUntil)
}

func TestNextAppointmentFor_OneOffEntry(t *testing.T) {
	at := tuesdayAt(9, 30)

	past := makeEntry("occupant-1", "court-1", 2, 540, 600, domain.ActivityCourt)
	past.Recurring = false
	past.EffectiveDate = timePtr(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

	future := makeEntry("occupant-1", "court-1", 2, 660, 720, domain.ActivityCourt)
	future.Recurring = false
	future.EffectiveDate = timePtr(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC))

	// 已过去的一次性条目没有未来开始时刻
	assert.Nil(t, NextAppointmentFor([]*domain.ScheduleEntry{past}, at))

	next := NextAppointmentFor([]*domain.ScheduleEntry{future}, at)
	require.NotNil(t, next)
	assert.Equal(t, 90, next.MinutesUntil)
}

func TestNextAppointmentFor_NoEntries(t *testing.T) {
	assert.Nil(t, NextAppointmentFor(nil, tuesdayAt(9, 30)))
}

func TestScore_TimeBands(t *testing.T) {
	next := func(minutes int, activity domain.ActivityType) *domain.NextAppointment {
		return &domain.NextAppointment{ActivityType: activity, MinutesUntil: minutes}
	}

	// 无未来日程：保持基础分
	assert.Equal(t, 50, Score(nil))

	// 时间分档
	assert.Equal(t, 100, Score(next(10, domain.ActivityWork)))
	assert.Equal(t, 90, Score(next(20, domain.ActivityWork)))
	assert.Equal(t, 70, Score(next(45, domain.ActivityWork)))
	assert.Equal(t, 50, Score(next(90, domain.ActivityWork)))

	// 活动类型加分
	assert.Equal(t, 60, Score(next(90, domain.ActivityHealthcare)))
	assert.Equal(t, 55, Score(next(90, domain.ActivityVisits)))

	// 叠加后截断到 100
	assert.Equal(t, 100, Score(next(10, domain.ActivityHealthcare)))
	assert.Equal(t, 100, Score(next(20, domain.ActivityHealthcare)))
}

func TestScore_WorkedExample(t *testing.T) {
	at := tuesdayAt(9, 30)

	// A：10 分钟后的医疗 => 50+50+10 截断到 100，紧急
	entriesA := []*domain.ScheduleEntry{
		makeEntry("occupant-a", "healthcare-1", 2, 580, 640, domain.ActivityHealthcare),
	}
	nextA := NextAppointmentFor(entriesA, at)
	require.NotNil(t, nextA)
	assert.True(t, nextA.Urgent)
	assert.Equal(t, 100, Score(nextA))

	// B：无日程 => 50
	assert.Equal(t, 50, Score(NextAppointmentFor(nil, at)))

	// C：45 分钟后的会见 => 50+20+5 = 75
	entriesC := []*domain.ScheduleEntry{
		makeEntry("occupant-c", "visits-1", 2, 615, 675, domain.ActivityVisits),
	}
	nextC := NextAppointmentFor(entriesC, at)
	require.NotNil(t, nextC)
	assert.False(t, nextC.Urgent)
	assert.Equal(t, 75, Score(nextC))
}
