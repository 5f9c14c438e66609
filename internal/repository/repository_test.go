package repository

import (
	"context"
	"errors"
	"testing"

	"familytree/internal/logger"
	"familytree/internal/model"
	"familytree/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "family-data.json"

func newRepo(t *testing.T) (*DocumentRepository, *storage.MemoryStorage) {
	t.Helper()
	s := storage.NewMemoryStorage()
	return NewDocumentRepository(s, key, logger.Discard()), s
}

func TestLoad_MissingDocumentIsEmpty(t *testing.T) {
	repo, _ := newRepo(t)

	members, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestLoad_EmptyOrNullDocument(t *testing.T) {
	for _, doc := range []string{"", "  \n", "null", "[]"} {
		repo, s := newRepo(t)
		require.NoError(t, s.Write(context.Background(), key, []byte(doc)))

		members, err := repo.Load(context.Background())
		require.NoError(t, err, "document %q", doc)
		assert.Empty(t, members)
	}
}

func TestLoad_CorruptDocument(t *testing.T) {
	repo, s := newRepo(t)
	require.NoError(t, s.Write(context.Background(), key, []byte(`{"id": "1"`)))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestLoad_LegacyDocument(t *testing.T) {
	repo, s := newRepo(t)
	legacy := `[
  {
    "id": "1700000000000",
    "firstName": "Jan",
    "lastName": "Jansen",
    "birthDate": "1950-04-01",
    "deathDate": "",
    "relationship": "Grandparent",
    "gender": "Male",
    "location": "Utrecht",
    "phone": "",
    "email": "",
    "notes": "",
    "parentId": "",
    "spouseId": "1700000000001",
    "donationAmount": 250
  }
]`
	require.NoError(t, s.Write(context.Background(), key, []byte(legacy)))

	members, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "1700000000001", members[0].SpouseID)
	assert.Equal(t, model.RelationshipGrandparent, members[0].Relationship)
	assert.Equal(t, 250.0, members[0].DonationAmount)
	assert.False(t, members[0].Primary)
}

func TestLoad_DonationAmountAsString(t *testing.T) {
	repo, s := newRepo(t)
	doc := `[
  {"id": "1", "firstName": "Jan", "lastName": "Jansen", "donationAmount": "125.50"},
  {"id": "2", "firstName": "Els", "lastName": "Jansen", "donationAmount": ""}
]`
	require.NoError(t, s.Write(context.Background(), key, []byte(doc)))

	members, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, 125.5, members[0].DonationAmount)
	assert.Zero(t, members[1].DonationAmount)

	require.NoError(t, repo.Save(context.Background(), members))
	raw, err := s.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"donationAmount": 125.5`)
}

func TestSave_RoundTripKeepsOrder(t *testing.T) {
	repo, s := newRepo(t)
	members := []model.Member{
		{ID: "3", FirstName: "C", LastName: "X"},
		{ID: "1", FirstName: "A", LastName: "X", SpouseID: "2", Primary: true},
		{ID: "2", FirstName: "B", LastName: "X", SpouseID: "1"},
	}

	require.NoError(t, repo.Save(context.Background(), members))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, members, loaded)

	raw, err := s.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"3\"")
	assert.Contains(t, string(raw), `"spouseId": ""`)
}

func TestSave_NilWritesEmptyArray(t *testing.T) {
	repo, s := newRepo(t)
	require.NoError(t, repo.Save(context.Background(), nil))

	raw, err := s.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSave_FailureLeavesDocumentUntouched(t *testing.T) {
	repo, s := newRepo(t)
	original := []model.Member{{ID: "1", FirstName: "A", LastName: "X"}}
	require.NoError(t, repo.Save(context.Background(), original))

	s.FailWrites = errors.New("disk full")
	err := repo.Save(context.Background(), nil)
	require.Error(t, err)

	s.FailWrites = nil
	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestHealthCheck(t *testing.T) {
	repo, _ := newRepo(t)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
