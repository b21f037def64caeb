package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
)

func TestHistory_AppendIsImmutable(t *testing.T) {
	var h History
	h1, added := h.Append(models.ChatEntry{Query: "a"})
	require.Len(t, added, 1)
	assert.Equal(t, 1, added[0].ID)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 1, h1.Len())

	h2, added := h1.Append(models.ChatEntry{Query: "b"}, models.ChatEntry{Query: "c"})
	assert.Equal(t, []int{2, 3}, []int{added[0].ID, added[1].ID})
	assert.Equal(t, 1, h1.Len())
	assert.Equal(t, 3, h2.Len())

	// branching from h1 must not disturb h2
	h3, _ := h1.Append(models.ChatEntry{Query: "x"})
	assert.Equal(t, "b", h2.Entries()[1].Query)
	assert.Equal(t, "x", h3.Entries()[1].Query)
}

func TestHistory_EntriesReturnsCopy(t *testing.T) {
	h := NewHistory([]models.ChatEntry{{Query: "a"}})
	entries := h.Entries()
	entries[0].Query = "mutated"
	assert.Equal(t, "a", h.Entries()[0].Query)
}

func TestHistory_AppendNothing(t *testing.T) {
	h := NewHistory([]models.ChatEntry{{Query: "a"}})
	h2, added := h.Append()
	assert.Nil(t, added)
	assert.Equal(t, 1, h2.Len())
}

func TestHistory_Last(t *testing.T) {
	_, ok := History{}.Last()
	assert.False(t, ok)

	h := NewHistory([]models.ChatEntry{{Query: "a"}, {Query: "b"}})
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, models.ChatEntry{ID: 2, Query: "b"}, last)
}

func TestRegistry(t *testing.T) {
	built := 0
	r := NewRegistry(func(userID string) (*Controller, error) {
		if userID == "broken" {
			return nil, errors.New("boom")
		}
		built++
		return NewController(&fakeService{}, nil), nil
	})

	a1, err := r.Get("alice")
	require.NoError(t, err)
	a2, err := r.Get("alice")
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	_, err = r.Get("bob")
	require.NoError(t, err)
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, r.Len())

	_, err = r.Get("broken")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 2, r.Len())

	r.Drop("alice")
	assert.Equal(t, 1, r.Len())
	a3, err := r.Get("alice")
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)
}
