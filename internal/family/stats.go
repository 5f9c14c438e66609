package family

import "familytree/internal/model"

// Stats are the dashboard aggregates over the flat collection.
type Stats struct {
	MemberCount      int     `json:"memberCount"`
	CoupleCount      int     `json:"coupleCount"`
	TotalDonations   float64 `json:"totalDonations"`
	ContributorCount int     `json:"contributorCount"`
	LeadershipCount  int     `json:"leadershipCount"`
	ManagementCount  int     `json:"managementCount"`
	TeamCount        int     `json:"teamCount"`
}

// Tier groups relationship labels into the three dashboard buckets.
type Tier string

const (
	TierLeadership Tier = "leadership"
	TierManagement Tier = "management"
	TierTeam       Tier = "team"
	TierNone       Tier = ""
)

func TierOf(r model.Relationship) Tier {
	switch r {
	case model.RelationshipSelf, model.RelationshipParent, model.RelationshipGrandparent, model.RelationshipSpouse:
		return TierLeadership
	case model.RelationshipChild, model.RelationshipSibling, model.RelationshipAuntUncle:
		return TierManagement
	case model.RelationshipGrandchild, model.RelationshipCousin, model.RelationshipOther:
		return TierTeam
	default:
		return TierNone
	}
}

func ComputeStats(members []model.Member) Stats {
	s := Stats{MemberCount: len(members)}
	idx := NewIndex(members)

	for _, m := range members {
		s.TotalDonations += m.DonationAmount
		if m.DonationAmount > 0 {
			s.ContributorCount++
		}

		switch TierOf(m.Relationship) {
		case TierLeadership:
			s.LeadershipCount++
		case TierManagement:
			s.ManagementCount++
		case TierTeam:
			s.TeamCount++
		}

		if spouse, ok := idx.SpouseOf(m.ID); ok && idx.Reciprocal(m, spouse) && PrimaryOf(m, spouse).ID == m.ID {
			s.CoupleCount++
		}
	}

	return s
}
