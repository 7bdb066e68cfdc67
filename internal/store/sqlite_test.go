package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser("ext-123", "hash")
	require.NoError(t, err)
	assert.Equal(t, "ext-123", user.ExternalUserID)
	assert.Positive(t, user.ID)

	found, err := s.GetUserByExternalID("ext-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := s.GetUserByExternalID("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertEntryAssignsMonotonicIDs(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("ext-123", "hash")
	require.NoError(t, err)

	now := time.Now()
	first, err := s.InsertEntry(user.ID, now, "first note", -0.2, []string{"first", "note"})
	require.NoError(t, err)
	second, err := s.InsertEntry(user.ID, now.Add(time.Minute), "second note", 0.4, []string{"second", "note"})
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, []string{"first", "note"}, first.Keywords)
}

func TestGetEntryByIDScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	owner, err := s.CreateUser("owner", "hash")
	require.NoError(t, err)
	other, err := s.CreateUser("other", "hash")
	require.NoError(t, err)

	entry, err := s.InsertEntry(owner.ID, time.Now(), "private note", 0, []string{"private"})
	require.NoError(t, err)

	found, err := s.GetEntryByID(entry.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Text, found.Text)
	assert.Equal(t, entry.Keywords, found.Keywords)

	_, err = s.GetEntryByID(entry.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecentEntriesOrderExcludeAndLimit(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("ext-123", "hash")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	var ids []int64
	for i := 0; i < 5; i++ {
		entry, err := s.InsertEntry(user.ID, base.Add(time.Duration(i)*time.Minute), "note", 0, nil)
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	entries, err := s.ListRecentEntries(user.ID, 0, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[4], entries[0].ID, "newest first")
	assert.Equal(t, ids[3], entries[1].ID)
	assert.Equal(t, ids[2], entries[2].ID)

	excluded, err := s.ListRecentEntries(user.ID, ids[4], 10)
	require.NoError(t, err)
	require.Len(t, excluded, 4)
	for _, entry := range excluded {
		assert.NotEqual(t, ids[4], entry.ID)
	}
}

func TestListRecentEntriesIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)
	alice, err := s.CreateUser("alice", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser("bob", "hash")
	require.NoError(t, err)

	_, err = s.InsertEntry(alice.ID, time.Now(), "alice's note", 0, nil)
	require.NoError(t, err)

	entries, err := s.ListRecentEntries(bob.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPersonaLifecycle(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("ext-123", "hash")
	require.NoError(t, err)

	_, err = s.GetPersona(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	defaults := Traits{Curiosity: 0.5, Empathy: 0.5, Rigor: 0.5, Mystique: 0.4, ChallengeRate: 0.3}
	created, err := s.CreateDefaultPersona(user.ID, defaults)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, defaults, created.Traits)

	// Seeding again must not reset an existing row.
	again, err := s.CreateDefaultPersona(user.ID, Traits{})
	require.NoError(t, err)
	assert.Equal(t, defaults, again.Traits)

	updated := Traits{Curiosity: 0.6, Empathy: 0.4, Rigor: 0.5, Mystique: 0.45, ChallengeRate: 0.35}
	ts := time.Now()
	require.NoError(t, s.UpsertPersona(user.ID, updated, 2, ts))

	persona, err := s.GetPersona(user.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, persona.Traits)
	assert.Equal(t, int64(2), persona.Version)
}
