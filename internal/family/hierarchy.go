package family

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"familytree/internal/model"
)

// DisplayNode is one rendered unit of the hierarchy: a single member, or a
// couple shown on one card. Nodes are rebuilt on every pass and never
// persisted.
type DisplayNode struct {
	ID          string         `json:"id"`
	Member      model.Member   `json:"member"`
	Spouse      *model.Member  `json:"spouse,omitempty"`
	Level       int            `json:"level"`
	SpouseLevel int            `json:"spouseLevel,omitempty"`
	Name        string         `json:"name"`
	Donations   float64        `json:"donations"`
	Children    []*DisplayNode `json:"children,omitempty"`
}

func (n *DisplayNode) IsCouple() bool {
	return n.Spouse != nil
}

func (n *DisplayNode) IsLeaf() bool {
	return n.Children == nil
}

// Contains reports whether the member id is shown on this node's card.
func (n *DisplayNode) Contains(id string) bool {
	return n.Member.ID == id || (n.Spouse != nil && n.Spouse.ID == id)
}

// MemberIDs returns the ids shown on this node's card, primary first.
func (n *DisplayNode) MemberIDs() []string {
	if n.Spouse == nil {
		return []string{n.Member.ID}
	}
	return []string{n.Member.ID, n.Spouse.ID}
}

// Size counts the nodes in the subtree rooted at n.
func (n *DisplayNode) Size() int {
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Tree is the ordered forest produced by Build.
type Tree struct {
	Roots []*DisplayNode `json:"roots"`
}

// Walk visits nodes depth first in display order. Returning false from fn
// skips the node's children.
func (t Tree) Walk(fn func(n *DisplayNode, depth int) bool) {
	var walk func(nodes []*DisplayNode, depth int)
	walk = func(nodes []*DisplayNode, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.Roots, 0)
}

// Find returns the node whose card shows the given member id.
func (t Tree) Find(id string) (*DisplayNode, bool) {
	var found *DisplayNode
	t.Walk(func(n *DisplayNode, _ int) bool {
		if found != nil {
			return false
		}
		if n.Contains(id) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// NodeCount counts every node in the forest.
func (t Tree) NodeCount() int {
	total := 0
	for _, r := range t.Roots {
		total += r.Size()
	}
	return total
}

// Levels used for badge colouring. They do not affect tree depth.
const (
	LevelGrandparent = 1
	LevelParent      = 2
	LevelPeer        = 3
	LevelChild       = 4
	LevelGrandchild  = 5
)

var relationshipLevels = map[model.Relationship]int{
	model.RelationshipGrandparent: LevelGrandparent,
	model.RelationshipParent:      LevelParent,
	model.RelationshipSelf:        LevelPeer,
	model.RelationshipSpouse:      LevelPeer,
	model.RelationshipSibling:     LevelPeer,
	model.RelationshipAuntUncle:   LevelPeer,
	model.RelationshipChild:       LevelChild,
	model.RelationshipCousin:      LevelChild,
	model.RelationshipOther:       LevelChild,
	model.RelationshipGrandchild:  LevelGrandchild,
}

// LevelOf maps a relationship label to its hierarchy level. Unset or
// unknown labels sit at the peer level.
func LevelOf(r model.Relationship) int {
	if level, ok := relationshipLevels[r]; ok {
		return level
	}
	return LevelPeer
}

// PrimaryOf picks the member of a couple whose node is emitted. An explicit
// primary flag wins; otherwise numeric ids compare as integers and any
// other ids compare as strings, so time-ordered ids favour the older member.
func PrimaryOf(a, b model.Member) model.Member {
	if a.Primary != b.Primary {
		if a.Primary {
			return a
		}
		return b
	}
	if compareIDs(a.ID, b.ID) <= 0 {
		return a
	}
	return b
}

func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

var ErrStructural = errors.New("structural inconsistency")

type StructuralErrorKind string

const (
	StructuralCycle       StructuralErrorKind = "cycle"
	StructuralDuplicateID StructuralErrorKind = "duplicate_id"
)

// StructuralError reports a collection that cannot be built into a tree.
type StructuralError struct {
	Kind StructuralErrorKind
	IDs  []string
}

func (e *StructuralError) Error() string {
	switch e.Kind {
	case StructuralCycle:
		return fmt.Sprintf("parent chain forms a cycle through %s", strings.Join(e.IDs, ", "))
	case StructuralDuplicateID:
		return fmt.Sprintf("duplicate member ids: %s", strings.Join(e.IDs, ", "))
	default:
		return fmt.Sprintf("structural inconsistency (%s): %s", e.Kind, strings.Join(e.IDs, ", "))
	}
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Validate checks the preconditions Build relies on: unique ids and an
// acyclic parent graph. Dangling parent and spouse references are allowed.
func Validate(members []model.Member) error {
	seen := make(map[string]bool, len(members))
	var dups []string
	for _, m := range members {
		if seen[m.ID] {
			dups = append(dups, m.ID)
			continue
		}
		seen[m.ID] = true
	}
	if len(dups) > 0 {
		return &StructuralError{Kind: StructuralDuplicateID, IDs: dups}
	}

	idx := NewIndex(members)

	const (
		unvisited = iota
		walking
		done
	)
	state := make(map[string]int, len(members))
	var cycle []string

	for _, start := range members {
		if state[start.ID] != unvisited {
			continue
		}

		var path []string
		id := start.ID
		for {
			if state[id] == done {
				break
			}
			if state[id] == walking {
				// Everything on the path from the first visit of id onwards is the cycle.
				for i, p := range path {
					if p == id {
						cycle = append(cycle, path[i:]...)
						break
					}
				}
				break
			}
			state[id] = walking
			path = append(path, id)

			m, _ := idx.ByID(id)
			if m.ParentID == "" {
				break
			}
			if _, ok := idx.ByID(m.ParentID); !ok {
				break
			}
			id = m.ParentID
		}
		for _, p := range path {
			state[p] = done
		}
	}

	if len(cycle) > 0 {
		return &StructuralError{Kind: StructuralCycle, IDs: cycle}
	}
	return nil
}

// Build validates the collection and produces the display forest.
func Build(members []model.Member) (Tree, error) {
	if err := Validate(members); err != nil {
		return Tree{}, err
	}
	return BuildIndex(NewIndex(members)), nil
}

// BuildIndex builds the forest from an index that already passed Validate.
func BuildIndex(idx *Index) Tree {
	b := &builder{idx: idx, visited: make(map[string]bool, idx.Len())}

	var roots []*DisplayNode
	for _, m := range idx.Roots() {
		if b.visited[m.ID] || b.suppressed(m) {
			continue
		}
		roots = append(roots, b.node(m))
	}

	// Members not reachable from a root, e.g. a primary parented under its
	// own spouse, still appear exactly once.
	for _, m := range idx.Members() {
		if b.visited[m.ID] {
			continue
		}
		start := m
		if b.suppressed(m) {
			if s, ok := idx.SpouseOf(m.ID); ok && !b.visited[s.ID] {
				start = s
			}
		}
		roots = append(roots, b.node(start))
	}

	return Tree{Roots: roots}
}

type builder struct {
	idx     *Index
	visited map[string]bool
}

// suppressed reports whether m is the secondary half of a reciprocal couple
// and must only be shown inside its partner's node.
func (b *builder) suppressed(m model.Member) bool {
	s, ok := b.idx.SpouseOf(m.ID)
	if !ok || !b.idx.Reciprocal(m, s) {
		return false
	}
	return PrimaryOf(m, s).ID != m.ID
}

func (b *builder) node(m model.Member) *DisplayNode {
	b.visited[m.ID] = true

	n := &DisplayNode{
		ID:        m.ID,
		Member:    m,
		Level:     LevelOf(m.Relationship),
		Name:      m.FullName(),
		Donations: m.DonationAmount,
	}

	parents := []string{m.ID}
	if s, ok := b.idx.SpouseOf(m.ID); ok && !b.visited[s.ID] {
		b.visited[s.ID] = true
		spouse := s
		n.Spouse = &spouse
		n.SpouseLevel = LevelOf(s.Relationship)
		n.Name = coupleName(m, s)
		n.Donations += s.DonationAmount
		parents = append(parents, s.ID)
	}

	for _, pos := range b.idx.childPositions(parents...) {
		c := b.idx.members[pos]
		if b.visited[c.ID] || b.suppressed(c) {
			continue
		}
		n.Children = append(n.Children, b.node(c))
	}

	return n
}

func coupleName(m, s model.Member) string {
	if m.LastName == s.LastName {
		return strings.TrimSpace(fmt.Sprintf("%s & %s %s", m.FirstName, s.FirstName, m.LastName))
	}
	return fmt.Sprintf("%s & %s", m.FullName(), s.FullName())
}
