package engine

import (
	"wisefido-rollcall/internal/domain"
)

// HierarchyIndex 位置层级索引
// 对完整位置快照一次性构建 parent -> children 邻接表，
// 回答"位置 X 下的全部叶子单元"；纯内存结构，构建后只读
type HierarchyIndex struct {
	byID     map[string]*domain.Location
	children map[string][]string
}

// BuildHierarchyIndex 构建位置层级索引（O(L) 单次遍历）
func BuildHierarchyIndex(locations []*domain.Location) *HierarchyIndex {
	idx := &HierarchyIndex{
		byID:     make(map[string]*domain.Location, len(locations)),
		children: make(map[string][]string),
	}
	for _, loc := range locations {
		idx.byID[loc.LocationID] = loc
		if loc.ParentID != nil {
			idx.children[*loc.ParentID] = append(idx.children[*loc.ParentID], loc.LocationID)
		}
	}
	return idx
}

// Location 按 ID 查找位置
func (idx *HierarchyIndex) Location(locationID string) (*domain.Location, bool) {
	loc, ok := idx.byID[locationID]
	return loc, ok
}

// LeafDescendants 返回位置下的全部叶子单元 ID（去重，不保证顺序）
// 位置本身是叶子时返回 [locationID]；未知 ID 返回 NotFoundError 而不是空结果
// 广度优先遍历，避免深层级递归
func (idx *HierarchyIndex) LeafDescendants(locationID string) ([]string, error) {
	root, ok := idx.byID[locationID]
	if !ok {
		return nil, domain.NewNotFoundError("location", locationID)
	}
	if root.IsLeaf() {
		return []string{locationID}, nil
	}

	var leaves []string
	seen := map[string]bool{locationID: true}
	queue := append([]string(nil), idx.children[locationID]...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true

		loc, ok := idx.byID[id]
		if !ok {
			continue
		}
		if loc.IsLeaf() {
			leaves = append(leaves, id)
			continue
		}
		queue = append(queue, idx.children[id]...)
	}

	return leaves, nil
}
