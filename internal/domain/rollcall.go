package domain

import "time"

// NextAppointment 人员的下一个日程摘要（用于优先级排序与展示）
type NextAppointment struct {
	ActivityType ActivityType `json:"activity_type"`
	LocationID   string       `json:"location_id"`
	StartsAt     time.Time    `json:"starts_at"`
	MinutesUntil int          `json:"minutes_until"`
	Urgent       bool         `json:"urgent"` // 距开始 <15 分钟
}

// ExpectedOccupant 某叶子单元内的预期在场人员（派生数据，不落库）
type ExpectedOccupant struct {
	OccupantID      string           `json:"occupant_id"`
	OccupantNumber  string           `json:"occupant_number"`
	DisplayName     string           `json:"display_name"`
	CellID          string           `json:"cell_id"`
	AtDefault       bool             `json:"at_default"`
	CurrentActivity ActivityType     `json:"current_activity"`
	NextAppointment *NextAppointment `json:"next_appointment,omitempty"`
	PriorityScore   int              `json:"priority_score"`
}

// RouteStop 巡检路线中的一个停靠点（派生数据，不落库）
type RouteStop struct {
	VisitOrder     int          `json:"visit_order"`
	LocationID     string       `json:"location_id"`
	LocationName   string       `json:"location_name"`
	LocationType   LocationType `json:"location_type"`
	Building       string       `json:"building"`
	Floor          string       `json:"floor"`
	Occupied       bool         `json:"occupied"`
	ExpectedCount  int          `json:"expected_count"`
	DistanceMeters float64      `json:"distance_meters"` // 距上一站距离（首站为 0）
	TravelSeconds  int          `json:"travel_seconds"`  // 距上一站耗时（首站为 0）

	// 按优先级降序排列的预期在场人员清单
	Occupants []ExpectedOccupant `json:"occupants,omitempty"`
}

// RollCallTotals 点名汇总统计
type RollCallTotals struct {
	TotalLocations         int `json:"total_locations"`          // 展开后的全部叶子单元数（含空单元）
	OccupiedLocations      int `json:"occupied_locations"`       // 预期人数 >0 的叶子单元数
	EmptyLocations         int `json:"empty_locations"`          // Total - Occupied
	TotalExpectedOccupants int `json:"total_expected_occupants"` // 各单元预期人数之和
}

// GeneratedRollCall 点名生成结果（由编排器输出；由 service 层决定是否落库）
type GeneratedRollCall struct {
	RollCallID    string         `json:"roll_call_id"`
	TenantID      string         `json:"tenant_id"`
	LocationIDs   []string       `json:"location_ids"`   // 请求的位置（去重后）
	LocationNames []string       `json:"location_names"` // 与 LocationIDs 对应
	GeneratedAt   time.Time      `json:"generated_at"`   // 查询时刻
	IncludeEmpty  bool           `json:"include_empty"`
	Stops         []RouteStop    `json:"stops"`
	Totals        RollCallTotals `json:"totals"`

	// 预计总耗时 = 路线行走耗时 + 人数 × 单人核验秒数
	EstimatedDurationSeconds int `json:"estimated_duration_seconds"`
}

// RollCallRecord 点名记录领域模型（对应 roll_calls 表）
// 仅存储头信息，明细由 GeneratedRollCall JSON 快照保存
type RollCallRecord struct {
	RollCallID  string    `db:"roll_call_id"` // UUID, PRIMARY KEY
	TenantID    string    `db:"tenant_id"`    // UUID, NOT NULL
	ExecutorID  string    `db:"executor_id"`  // UUID, nullable（生成时可能尚未指派执行人）
	GeneratedAt time.Time `db:"generated_at"` // TIMESTAMPTZ, NOT NULL
	Status      string    `db:"status"`       // VARCHAR(20), NOT NULL ('generated'/'in_progress'/'completed'/'cancelled')
	Snapshot    string    `db:"snapshot"`     // JSONB, GeneratedRollCall 序列化快照
}
