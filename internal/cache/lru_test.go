package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	c := NewLRU[string](2, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "one")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", got)
}

func TestEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestExpires(t *testing.T) {
	c := NewLRU[int](10, time.Millisecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestPurge(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Purge()
	assert.Zero(t, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
