package family_test

import (
	"errors"
	"testing"

	"familytree/internal/family"
	"familytree/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id, parentID, spouseID string) model.Member {
	return model.Member{
		ID:        id,
		FirstName: "First" + id,
		LastName:  "Family",
		ParentID:  parentID,
		SpouseID:  spouseID,
	}
}

func rootIDs(tree family.Tree) []string {
	ids := make([]string, 0, len(tree.Roots))
	for _, r := range tree.Roots {
		ids = append(ids, r.ID)
	}
	return ids
}

func childIDs(n *family.DisplayNode) []string {
	ids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

// occurrences counts how often each member id is shown anywhere in the tree.
func occurrences(tree family.Tree) map[string]int {
	seen := map[string]int{}
	tree.Walk(func(n *family.DisplayNode, _ int) bool {
		for _, id := range n.MemberIDs() {
			seen[id]++
		}
		return true
	})
	return seen
}

func TestBuild_RootCoupleRenderedOnce(t *testing.T) {
	members := []model.Member{
		member("1", "", "2"),
		member("2", "", "1"),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	root := tree.Roots[0]
	assert.Equal(t, "1", root.ID)
	require.NotNil(t, root.Spouse)
	assert.Equal(t, "2", root.Spouse.ID)
	assert.True(t, root.IsCouple())
	assert.True(t, root.IsLeaf())
	assert.Equal(t, "First1 & First2 Family", root.Name)
}

func TestBuild_ChildrenKeepCollectionOrder(t *testing.T) {
	members := []model.Member{
		member("1", "", ""),
		member("2", "1", ""),
		member("3", "1", ""),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "1", tree.Roots[0].ID)
	assert.Equal(t, []string{"2", "3"}, childIDs(tree.Roots[0]))
	assert.Nil(t, tree.Roots[0].Children[0].Children)
}

func TestBuild_CoupleAddedUnderParent(t *testing.T) {
	members := []model.Member{member("5", "", "")}

	members, err := family.AddCouple(members, member("100", "5", ""), member("101", "5", ""))
	require.NoError(t, err)
	require.Len(t, members, 3)

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	parent := tree.Roots[0]
	assert.Equal(t, "5", parent.ID)
	require.Len(t, parent.Children, 1)
	couple := parent.Children[0]
	assert.Equal(t, "100", couple.ID)
	require.NotNil(t, couple.Spouse)
	assert.Equal(t, "101", couple.Spouse.ID)
}

func TestBuild_NumericPrimaryAtChildLevel(t *testing.T) {
	// Spouses listed larger id first; the smaller id must still be primary.
	members := []model.Member{
		member("1", "", ""),
		member("20", "1", "9"),
		member("9", "1", "20"),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots[0].Children, 1)
	couple := tree.Roots[0].Children[0]
	assert.Equal(t, "9", couple.ID)
	assert.Equal(t, "20", couple.Spouse.ID)
}

func TestBuild_CoupleChildrenMergedInCollectionOrder(t *testing.T) {
	members := []model.Member{
		member("1", "", "2"),
		member("2", "", "1"),
		member("3", "1", ""),
		member("4", "2", ""),
		member("5", "1", ""),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, []string{"3", "4", "5"}, childIDs(tree.Roots[0]))
}

func TestBuild_MarriedInSpouseStaysWithPartner(t *testing.T) {
	members := []model.Member{
		member("1", "", ""),
		member("2", "1", "3"),
		member("3", "", "2"),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, rootIDs(tree))
	require.Len(t, tree.Roots[0].Children, 1)
	assert.Equal(t, []string{"2", "3"}, tree.Roots[0].Children[0].MemberIDs())
}

func TestBuild_ExplicitPrimaryOverridesIDOrder(t *testing.T) {
	a := member("1", "", "2")
	b := member("2", "", "1")
	b.Primary = true

	tree, err := family.Build([]model.Member{a, b})
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "2", tree.Roots[0].ID)
	assert.Equal(t, "1", tree.Roots[0].Spouse.ID)
}

func TestBuild_AsymmetricSpousePointer(t *testing.T) {
	t.Run("pointer_holder_first", func(t *testing.T) {
		tree, err := family.Build([]model.Member{
			member("1", "", "2"),
			member("2", "", ""),
		})
		require.NoError(t, err)

		require.Len(t, tree.Roots, 1)
		assert.Equal(t, []string{"1", "2"}, tree.Roots[0].MemberIDs())
	})

	t.Run("pointed_at_first", func(t *testing.T) {
		tree, err := family.Build([]model.Member{
			member("2", "", ""),
			member("1", "", "2"),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"2", "1"}, rootIDs(tree))
		assert.False(t, tree.Roots[1].IsCouple())
	})
}

func TestBuild_DanglingReferences(t *testing.T) {
	members := []model.Member{
		member("1", "", ""),
		member("2", "missing", ""),
		member("3", "1", "ghost"),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, rootIDs(tree))
	require.Len(t, tree.Roots[0].Children, 1)
	assert.False(t, tree.Roots[0].Children[0].IsCouple())
}

func TestBuild_PrimaryParentedUnderOwnSpouse(t *testing.T) {
	members := []model.Member{
		member("2", "", "1"),
		member("1", "2", "2"),
	}

	tree, err := family.Build(members)
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, []string{"1", "2"}, tree.Roots[0].MemberIDs())
}

func TestBuild_Idempotent(t *testing.T) {
	members := sampleFamily()

	first, err := family.Build(members)
	require.NoError(t, err)
	second, err := family.Build(members)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_EveryMemberShownExactlyOnce(t *testing.T) {
	members := sampleFamily()

	tree, err := family.Build(members)
	require.NoError(t, err)

	seen := occurrences(tree)
	for _, m := range members {
		assert.Equal(t, 1, seen[m.ID], "member %s", m.ID)
	}
	assert.Len(t, seen, len(members))
}

func TestBuild_ChildrenNestedUnderParentCard(t *testing.T) {
	members := sampleFamily()

	tree, err := family.Build(members)
	require.NoError(t, err)

	tree.Walk(func(n *family.DisplayNode, _ int) bool {
		for _, c := range n.Children {
			assert.True(t, n.Contains(c.Member.ParentID), "node %s nested under %s", c.ID, n.ID)
		}
		return true
	})

	for _, r := range tree.Roots {
		if r.Member.ParentID == "" {
			continue
		}
		_, found := family.Find(members, r.Member.ParentID)
		assert.False(t, found, "root %s has a resolvable parent", r.ID)
	}
}

func TestBuild_Levels(t *testing.T) {
	m := member("1", "", "2")
	m.Relationship = model.RelationshipGrandparent
	s := member("2", "", "1")
	s.Relationship = model.RelationshipSpouse

	tree, err := family.Build([]model.Member{m, s})
	require.NoError(t, err)

	assert.Equal(t, 1, tree.Roots[0].Level)
	assert.Equal(t, 3, tree.Roots[0].SpouseLevel)
}

func TestBuild_CombinedDonations(t *testing.T) {
	m := member("1", "", "2")
	m.DonationAmount = 150
	s := member("2", "", "1")
	s.DonationAmount = 50.5

	tree, err := family.Build([]model.Member{m, s})
	require.NoError(t, err)

	assert.InDelta(t, 200.5, tree.Roots[0].Donations, 0.0001)
}

func TestBuild_Empty(t *testing.T) {
	tree, err := family.Build(nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Roots)
	assert.Equal(t, 0, tree.NodeCount())
}

func TestValidate_Cycle(t *testing.T) {
	tests := []struct {
		name    string
		members []model.Member
		cycle   []string
	}{
		{
			name:    "two_member_cycle",
			members: []model.Member{member("1", "2", ""), member("2", "1", ""), member("3", "", "")},
			cycle:   []string{"1", "2"},
		},
		{
			name:    "self_parent",
			members: []model.Member{member("1", "1", "")},
			cycle:   []string{"1"},
		},
		{
			name: "cycle_below_a_tail",
			members: []model.Member{
				member("tail", "a", ""),
				member("a", "b", ""),
				member("b", "c", ""),
				member("c", "a", ""),
			},
			cycle: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := family.Build(tt.members)
			require.Error(t, err)
			assert.True(t, errors.Is(err, family.ErrStructural))

			var structural *family.StructuralError
			require.ErrorAs(t, err, &structural)
			assert.Equal(t, family.StructuralCycle, structural.Kind)
			assert.ElementsMatch(t, tt.cycle, structural.IDs)
		})
	}
}

func TestValidate_DuplicateIDs(t *testing.T) {
	err := family.Validate([]model.Member{member("1", "", ""), member("1", "", "")})

	var structural *family.StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, family.StructuralDuplicateID, structural.Kind)
	assert.Equal(t, []string{"1"}, structural.IDs)
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		relationship model.Relationship
		level        int
	}{
		{model.RelationshipGrandparent, 1},
		{model.RelationshipParent, 2},
		{model.RelationshipSelf, 3},
		{model.RelationshipSpouse, 3},
		{model.RelationshipSibling, 3},
		{model.RelationshipAuntUncle, 3},
		{model.RelationshipChild, 4},
		{model.RelationshipCousin, 4},
		{model.RelationshipOther, 4},
		{model.RelationshipGrandchild, 5},
		{"", 3},
		{"Stepchild", 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.relationship), func(t *testing.T) {
			assert.Equal(t, tt.level, family.LevelOf(tt.relationship))
		})
	}
}

func TestPrimaryOf(t *testing.T) {
	flagged := member("z", "", "")
	flagged.Primary = true

	tests := []struct {
		name string
		a, b model.Member
		want string
	}{
		{"numeric_not_lexicographic", member("10", "", ""), member("9", "", ""), "9"},
		{"timestamps", member("1700000000001", "", ""), member("1700000000000", "", ""), "1700000000000"},
		{"uuid_v7_order", member("01890a5d-ac96-774b-bcce-b302099a8057", "", ""), member("01890a5d-ac96-774b-bcce-b302099a8056", "", ""), "01890a5d-ac96-774b-bcce-b302099a8056"},
		{"explicit_flag", member("a", "", ""), flagged, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, family.PrimaryOf(tt.a, tt.b).ID)
			assert.Equal(t, tt.want, family.PrimaryOf(tt.b, tt.a).ID)
		})
	}
}

func TestTree_Find(t *testing.T) {
	tree, err := family.Build(sampleFamily())
	require.NoError(t, err)

	n, ok := tree.Find("22")
	require.True(t, ok)
	assert.Equal(t, "21", n.ID)

	_, ok = tree.Find("nobody")
	assert.False(t, ok)
}

// sampleFamily has two root couples, a married-in spouse, orphans and
// children of both halves of a couple.
func sampleFamily() []model.Member {
	return []model.Member{
		member("1", "", "2"),
		member("2", "", "1"),
		member("11", "1", ""),
		member("12", "2", "13"),
		member("13", "", "12"),
		member("21", "11", "22"),
		member("22", "11", "21"),
		member("31", "21", ""),
		member("32", "22", ""),
		member("40", "", "41"),
		member("41", "", "40"),
		member("50", "gone", ""),
		member("51", "12", ""),
	}
}
