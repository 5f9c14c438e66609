package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationship_Valid(t *testing.T) {
	for _, r := range Relationships {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Relationship("Friend").Valid())
	assert.False(t, Relationship("self").Valid())
}

func TestMember_Names(t *testing.T) {
	m := Member{FirstName: "émile", LastName: "zola"}
	assert.Equal(t, "émile zola", m.FullName())
	assert.Equal(t, "ÉZ", m.Initials())

	assert.Equal(t, "Z", Member{LastName: "Zola"}.Initials())
	assert.Empty(t, Member{}.FullName())
}

func TestMember_HasSpouse(t *testing.T) {
	assert.False(t, Member{ID: "1"}.HasSpouse())
	assert.False(t, Member{ID: "1", SpouseID: "1"}.HasSpouse())
	assert.True(t, Member{ID: "1", SpouseID: "2"}.HasSpouse())
}

func TestMember_Normalize(t *testing.T) {
	m := Member{FirstName: "  Anna ", LastName: "Berg\n", ParentID: " 7 ", Notes: "  likes tea  "}.Normalize()

	assert.Equal(t, "Anna", m.FirstName)
	assert.Equal(t, "Berg", m.LastName)
	assert.Equal(t, "7", m.ParentID)
	assert.Equal(t, "likes tea", m.Notes)
}

func TestMember_DocumentShape(t *testing.T) {
	data := []byte(`{"id":"1","firstName":"Anna","lastName":"Berg","birthDate":"1950-01-02","deathDate":"",
		"relationship":"Grandparent","gender":"Female","location":"Oslo","phone":"","email":"","notes":"",
		"parentId":"","spouseId":"2","donationAmount":12.5}`)

	var m Member
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, RelationshipGrandparent, m.Relationship)
	assert.Equal(t, 12.5, m.DonationAmount)
	assert.False(t, m.Primary)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "primary")
	assert.Contains(t, string(out), `"spouseId":"2"`)
}

func TestMember_DonationAmountAsString(t *testing.T) {
	tests := []struct {
		doc  string
		want float64
	}{
		{`{"id":"1","donationAmount":"12.50"}`, 12.5},
		{`{"id":"1","donationAmount":" 40 "}`, 40},
		{`{"id":"1","donationAmount":""}`, 0},
		{`{"id":"1","donationAmount":null}`, 0},
		{`{"id":"1"}`, 0},
		{`{"id":"1","donationAmount":7}`, 7},
	}
	for _, tt := range tests {
		var m Member
		require.NoError(t, json.Unmarshal([]byte(tt.doc), &m), tt.doc)
		assert.Equal(t, tt.want, m.DonationAmount, tt.doc)
		assert.Equal(t, "1", m.ID, tt.doc)
	}

	var m Member
	err := json.Unmarshal([]byte(`{"id":"1","donationAmount":"lots"}`), &m)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("")
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = ParseAmount("99.95")
	require.NoError(t, err)
	assert.Equal(t, 99.95, v)

	for _, bad := range []string{"abc", "NaN", "Inf", "1,5"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}
