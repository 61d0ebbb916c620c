package engine

import (
	"wisefido-rollcall/internal/domain"
)

// AssignmentIndex 人员默认居住单元索引
// cell_id -> 以该单元为默认居住地的人员列表；一次 O(O) 遍历构建
type AssignmentIndex struct {
	byCell map[string][]*domain.Occupant
}

// BuildAssignmentIndex 构建居住分配索引
// 未分配默认单元的人员不进入任何分组（不会在任何位置被视为"在住"）
func BuildAssignmentIndex(occupants []*domain.Occupant) *AssignmentIndex {
	idx := &AssignmentIndex{
		byCell: make(map[string][]*domain.Occupant),
	}
	for _, occ := range occupants {
		if occ.CellID == nil || *occ.CellID == "" {
			continue
		}
		idx.byCell[*occ.CellID] = append(idx.byCell[*occ.CellID], occ)
	}
	return idx
}

// OccupantsAt 返回以该叶子单元为默认居住地的人员列表
func (idx *AssignmentIndex) OccupantsAt(cellID string) []*domain.Occupant {
	return idx.byCell[cellID]
}
