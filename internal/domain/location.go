package domain

// LocationType 位置类型（闭合集合，按层级从上到下排序）
// 层级类型：facility > block > wing > landing > cell
// 非层级的功能型位置（healthcare/workshop 等）是叶子节点，没有下级
type LocationType string

const (
	LocationTypeFacility LocationType = "facility"
	LocationTypeBlock    LocationType = "block"
	LocationTypeWing     LocationType = "wing"
	LocationTypeLanding  LocationType = "landing"
	LocationTypeCell     LocationType = "cell"

	// 功能型位置（叶子节点）
	LocationTypeHealthcare LocationType = "healthcare"
	LocationTypeWorkshop   LocationType = "workshop"
	LocationTypeEducation  LocationType = "education"
	LocationTypeChapel     LocationType = "chapel"
	LocationTypeVisits     LocationType = "visits"
	LocationTypeExercise   LocationType = "exercise"
)

// validLocationTypes 合法位置类型集合（用于边界校验）
var validLocationTypes = map[LocationType]bool{
	LocationTypeFacility:   true,
	LocationTypeBlock:      true,
	LocationTypeWing:       true,
	LocationTypeLanding:    true,
	LocationTypeCell:       true,
	LocationTypeHealthcare: true,
	LocationTypeWorkshop:   true,
	LocationTypeEducation:  true,
	LocationTypeChapel:     true,
	LocationTypeVisits:     true,
	LocationTypeExercise:   true,
}

// IsValid 判断位置类型是否合法
func (t LocationType) IsValid() bool {
	return validLocationTypes[t]
}

// IsLeaf 判断该类型是否为叶子类型（cell 或功能型位置）
// 叶子类型的位置不允许有下级节点
func (t LocationType) IsLeaf() bool {
	switch t {
	case LocationTypeCell, LocationTypeHealthcare, LocationTypeWorkshop,
		LocationTypeEducation, LocationTypeChapel, LocationTypeVisits,
		LocationTypeExercise:
		return true
	}
	return false
}

// Location 位置领域模型（对应 locations 表）
// 位置构成一棵严格的树：ParentID 为 nil 的只有 facility 根节点
type Location struct {
	// 主键
	LocationID string `db:"location_id"` // UUID, PRIMARY KEY

	// 租户
	TenantID string `db:"tenant_id"` // UUID, NOT NULL

	// 基本信息
	LocationName string       `db:"location_name"` // VARCHAR(100), NOT NULL
	LocationType LocationType `db:"location_type"` // VARCHAR(20), NOT NULL

	// 树结构（仅 facility 根节点为 NULL）
	ParentID *string `db:"parent_id"` // UUID, nullable, FK to locations

	// 物理属性（用于巡检路线成本估算，不影响正确性）
	Building string `db:"building"` // VARCHAR(50), NOT NULL, default '-'
	Floor    string `db:"floor"`    // VARCHAR(10), NOT NULL, default '1F'
	Capacity int    `db:"capacity"` // INT, NOT NULL, default 0
}

// IsLeaf 判断位置是否为叶子单元
func (l *Location) IsLeaf() bool {
	return l.LocationType.IsLeaf()
}
