// Package family turns the flat member collection into the couple-aware
// hierarchy the dashboard renders, and implements the pure collection
// mutations the member manager persists.
package family

import "familytree/internal/model"

// Index holds the lookups derived from one snapshot of the collection.
// It is rebuilt from scratch whenever the collection changes.
type Index struct {
	members  []model.Member
	byID     map[string]int
	children map[string][]int
}

func NewIndex(members []model.Member) *Index {
	idx := &Index{
		members:  members,
		byID:     make(map[string]int, len(members)),
		children: make(map[string][]int),
	}

	for i, m := range members {
		// First occurrence wins; Validate reports the duplicate.
		if _, exists := idx.byID[m.ID]; !exists {
			idx.byID[m.ID] = i
		}
		if m.ParentID != "" {
			idx.children[m.ParentID] = append(idx.children[m.ParentID], i)
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.members)
}

func (idx *Index) Members() []model.Member {
	return idx.members
}

// ByID returns the member with the given id.
func (idx *Index) ByID(id string) (model.Member, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return model.Member{}, false
	}
	return idx.members[i], true
}

// Position returns the member's position in the source collection, or -1.
func (idx *Index) Position(id string) int {
	if i, ok := idx.byID[id]; ok {
		return i
	}
	return -1
}

// ChildrenOf returns the members whose parentId equals id, in collection order.
func (idx *Index) ChildrenOf(id string) []model.Member {
	positions := idx.children[id]
	if len(positions) == 0 {
		return nil
	}
	out := make([]model.Member, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.members[i])
	}
	return out
}

// SpouseOf follows the member's spouseId. Self references and pointers to
// members that do not exist yield no spouse.
func (idx *Index) SpouseOf(id string) (model.Member, bool) {
	m, ok := idx.ByID(id)
	if !ok || !m.HasSpouse() {
		return model.Member{}, false
	}
	return idx.ByID(m.SpouseID)
}

// Reciprocal reports whether a and b point at each other.
func (idx *Index) Reciprocal(a, b model.Member) bool {
	return a.ID != b.ID && a.SpouseID == b.ID && b.SpouseID == a.ID
}

// Roots returns members without a parent, plus orphans whose parent is
// missing from the collection, in collection order.
func (idx *Index) Roots() []model.Member {
	var out []model.Member
	for _, m := range idx.members {
		if idx.isRoot(m) {
			out = append(out, m)
		}
	}
	return out
}

func (idx *Index) isRoot(m model.Member) bool {
	if m.ParentID == "" {
		return true
	}
	_, ok := idx.byID[m.ParentID]
	return !ok
}

// childPositions merges the child lists of several parents into one list
// ordered by collection position.
func (idx *Index) childPositions(parentIDs ...string) []int {
	var merged []int
	for _, id := range parentIDs {
		merged = mergeSorted(merged, idx.children[id])
	}
	return merged
}

func mergeSorted(a, b []int) []int {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
