package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDsAreUnique(t *testing.T) {
	table := NewSessionTable()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := table.Start("developer")
		assert.False(t, seen[s.ID], "duplicate session id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestSessionGetFindsInactive(t *testing.T) {
	table := NewSessionTable()
	s := table.Start("project")

	require.True(t, table.Deactivate(s.ID))

	got, ok := table.Get(s.ID)
	require.True(t, ok, "ended sessions stay in the table")
	assert.False(t, got.Active)
	assert.Equal(t, "project", got.Domain)
}

func TestSessionFirstActivePicksOldest(t *testing.T) {
	table := NewSessionTable()
	first := table.Start("developer")
	table.Start("developer")
	other := table.Start("student")

	got, ok := table.FirstActive("developer")
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID, "insertion order wins over recency")

	got, ok = table.FirstActive("student")
	require.True(t, ok)
	assert.Equal(t, other.ID, got.ID)

	_, ok = table.FirstActive("project")
	assert.False(t, ok)
}

func TestSessionFirstActiveSkipsEnded(t *testing.T) {
	table := NewSessionTable()
	first := table.Start("developer")
	second := table.Start("developer")

	require.True(t, table.Deactivate(first.ID))

	got, ok := table.FirstActive("developer")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)

	require.True(t, table.Deactivate(second.ID))
	_, ok = table.FirstActive("developer")
	assert.False(t, ok)
}

func TestSessionSetEntity(t *testing.T) {
	table := NewSessionTable()
	s := table.Start("developer")

	require.True(t, table.SetEntity(s.ID, "auth-service", "component"))

	got, ok := table.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "auth-service", got.EntityName)
	assert.Equal(t, "component", got.EntityType)

	assert.False(t, table.SetEntity("missing", "x", "y"))
}

func TestSessionSetDomainSessionID(t *testing.T) {
	table := NewSessionTable()
	s := table.Start("student")

	require.True(t, table.SetDomainSessionID(s.ID, "stu_77"))

	got, ok := table.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "stu_77", got.DomainSessionID)
}

func TestSessionGettersReturnCopies(t *testing.T) {
	table := NewSessionTable()
	s := table.Start("developer")

	// Mutating a returned row must not leak into the table.
	s.EntityName = "scribbled"
	got, ok := table.Get(s.ID)
	require.True(t, ok)
	assert.Empty(t, got.EntityName)

	all := table.All()
	require.Len(t, all, 1)
	all[0].Active = false
	got, ok = table.Get(s.ID)
	require.True(t, ok)
	assert.True(t, got.Active)
}

func TestSessionAllInsertionOrder(t *testing.T) {
	table := NewSessionTable()
	a := table.Start("developer")
	b := table.Start("project")
	c := table.Start("student")

	all := table.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}
