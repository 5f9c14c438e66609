package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Relationship is the descriptive label a member carries relative to the
// family. It is never used to derive structural edges.
type Relationship string

const (
	RelationshipSelf        Relationship = "Self"
	RelationshipSpouse      Relationship = "Spouse"
	RelationshipParent      Relationship = "Parent"
	RelationshipChild       Relationship = "Child"
	RelationshipSibling     Relationship = "Sibling"
	RelationshipGrandparent Relationship = "Grandparent"
	RelationshipGrandchild  Relationship = "Grandchild"
	RelationshipAuntUncle   Relationship = "Aunt/Uncle"
	RelationshipCousin      Relationship = "Cousin"
	RelationshipOther       Relationship = "Other"
)

// Relationships lists the labels in the order the member form offers them.
var Relationships = []Relationship{
	RelationshipSelf,
	RelationshipSpouse,
	RelationshipParent,
	RelationshipChild,
	RelationshipSibling,
	RelationshipGrandparent,
	RelationshipGrandchild,
	RelationshipAuntUncle,
	RelationshipCousin,
	RelationshipOther,
}

func (r Relationship) Valid() bool {
	for _, known := range Relationships {
		if r == known {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Opposite returns the partner gender the spouse form preselects.
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return ""
	}
}

// Member is one person in the family collection. The JSON shape matches
// the stored family-data.json document field for field; Primary is an
// optional addition that older documents simply omit.
type Member struct {
	ID             string       `json:"id"`
	FirstName      string       `json:"firstName" validate:"required,max=100"`
	LastName       string       `json:"lastName" validate:"required,max=100"`
	BirthDate      string       `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	DeathDate      string       `json:"deathDate" validate:"omitempty,datetime=2006-01-02"`
	Relationship   Relationship `json:"relationship" validate:"omitempty,relationship"`
	Gender         Gender       `json:"gender" validate:"omitempty,gender"`
	Location       string       `json:"location" validate:"max=200"`
	Phone          string       `json:"phone" validate:"max=50"`
	Email          string       `json:"email" validate:"omitempty,email,max=254"`
	Notes          string       `json:"notes" validate:"max=2000"`
	ParentID       string       `json:"parentId"`
	SpouseID       string       `json:"spouseId"`
	DonationAmount float64      `json:"donationAmount" validate:"gte=0"`
	Primary        bool         `json:"primary,omitempty"`
}

func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m Member) Initials() string {
	var b strings.Builder
	for _, part := range []string{m.FirstName, m.LastName} {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}

func (m Member) HasSpouse() bool {
	return m.SpouseID != "" && m.SpouseID != m.ID
}

// Normalize trims the free-text fields the form submits.
func (m Member) Normalize() Member {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.BirthDate = strings.TrimSpace(m.BirthDate)
	m.DeathDate = strings.TrimSpace(m.DeathDate)
	m.Location = strings.TrimSpace(m.Location)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Email = strings.TrimSpace(m.Email)
	m.Notes = strings.TrimSpace(m.Notes)
	m.ParentID = strings.TrimSpace(m.ParentID)
	m.SpouseID = strings.TrimSpace(m.SpouseID)
	return m
}

// UnmarshalJSON accepts donationAmount as a number or as a numeric string,
// which older documents and hand-edited files contain.
func (m *Member) UnmarshalJSON(data []byte) error {
	type plain Member
	aux := struct {
		*plain
		DonationAmount json.RawMessage `json:"donationAmount"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DonationAmount == nil {
		return nil
	}

	amount, err := decodeAmount(aux.DonationAmount)
	if err != nil {
		return fmt.Errorf("donationAmount: %w", err)
	}
	m.DonationAmount = amount
	return nil
}

var ErrInvalidAmount = errors.New("invalid amount")

func decodeAmount(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return 0, nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return ParseAmount(s)
	}
	return ParseAmount(text)
}

// ParseAmount reads a donation amount. Blank means zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
