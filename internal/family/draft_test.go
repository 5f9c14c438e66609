package family_test

import (
	"testing"

	"familytree/internal/family"
	"familytree/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestChildDraft(t *testing.T) {
	parent := member("7", "", "")
	parent.Location = "Utrecht"

	draft := family.ChildDraft(parent)

	assert.Empty(t, draft.ID)
	assert.Equal(t, "7", draft.ParentID)
	assert.Equal(t, "Family", draft.LastName)
	assert.Equal(t, "Utrecht", draft.Location)
	assert.Equal(t, model.RelationshipChild, draft.Relationship)
}

func TestSpouseDraft(t *testing.T) {
	tests := []struct {
		gender model.Gender
		want   model.Gender
	}{
		{model.GenderMale, model.GenderFemale},
		{model.GenderFemale, model.GenderMale},
		{model.GenderOther, ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.gender), func(t *testing.T) {
			person := member("3", "1", "")
			person.Gender = tt.gender

			draft := family.SpouseDraft(person)

			assert.Equal(t, tt.want, draft.Gender)
			assert.Equal(t, "3", draft.SpouseID)
			assert.Empty(t, draft.ParentID)
			assert.Equal(t, model.RelationshipSpouse, draft.Relationship)
		})
	}
}

func TestCoupleDraft(t *testing.T) {
	husband, wife := family.CoupleDraft(member("5", "", ""))
	assert.Equal(t, "5", husband.ParentID)
	assert.Equal(t, "5", wife.ParentID)
	assert.Equal(t, model.GenderMale, husband.Gender)
	assert.Equal(t, model.GenderFemale, wife.Gender)

	husband, wife = family.CoupleDraft(model.Member{})
	assert.Empty(t, husband.ParentID)
	assert.Empty(t, wife.LastName)
}
