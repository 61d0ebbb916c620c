package domain

// Occupant 在押人员领域模型（对应 occupants 表）
// 点名核心只依赖 OccupantID 与 CellID（默认居住单元）
type Occupant struct {
	// 主键
	OccupantID string `db:"occupant_id"` // UUID, PRIMARY KEY

	// 租户
	TenantID string `db:"tenant_id"` // UUID, NOT NULL

	// 机构内部编号（展示用，核心逻辑不使用）
	OccupantNumber string `db:"occupant_number"` // VARCHAR(100), NOT NULL, UNIQUE(tenant_id, occupant_number)

	// 展示名称
	DisplayName string `db:"display_name"` // VARCHAR(100), NOT NULL

	// 默认居住单元（必须是叶子 cell；未分配时为 NULL，任何位置都不视为"在住"）
	CellID *string `db:"cell_id"` // UUID, nullable, FK to locations

	// 状态
	Status string `db:"status"` // VARCHAR(50), NOT NULL, DEFAULT 'active'
}
