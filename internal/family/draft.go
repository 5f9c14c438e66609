package family

import "familytree/internal/model"

// ChildDraft prefills the form for a new child of parent.
func ChildDraft(parent model.Member) model.Member {
	return model.Member{
		LastName:     parent.LastName,
		Location:     parent.Location,
		Relationship: model.RelationshipChild,
		ParentID:     parent.ID,
	}
}

// SpouseDraft prefills the form for a new spouse of person.
func SpouseDraft(person model.Member) model.Member {
	return model.Member{
		LastName:     person.LastName,
		Location:     person.Location,
		Relationship: model.RelationshipSpouse,
		Gender:       person.Gender.Opposite(),
		SpouseID:     person.ID,
	}
}

// CoupleDraft prefills a husband and wife who are both children of parent.
// A zero parent yields a root couple.
func CoupleDraft(parent model.Member) (husband, wife model.Member) {
	husband = model.Member{Gender: model.GenderMale}
	wife = model.Member{Gender: model.GenderFemale}
	if parent.ID == "" {
		return husband, wife
	}
	for _, m := range []*model.Member{&husband, &wife} {
		m.LastName = parent.LastName
		m.Location = parent.Location
		m.Relationship = model.RelationshipChild
		m.ParentID = parent.ID
	}
	return husband, wife
}
