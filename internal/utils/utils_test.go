package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTTLCacheExpires(t *testing.T) {
	c, err := NewTTLCache[string, int](2)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheEvictsOldest(t *testing.T) {
	c, err := NewTTLCache[int, string](2)
	require.NoError(t, err)

	c.Set(1, "one", time.Hour)
	c.Set(2, "two", time.Hour)
	c.Set(3, "three", time.Hour)

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)

	c.Delete(3)
	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**Cotton** shirt<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>Cotton</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestPopularityScore(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, popularityAt(now, now, 0, 0, 0))

	fresh := popularityAt(now, now, 10, 1, 2)
	old := popularityAt(now.Add(-48*time.Hour), now, 10, 1, 2)
	assert.Greater(t, fresh, old)

	more := popularityAt(now, now, 10, 1, 5)
	assert.Greater(t, more, fresh)
}

func TestConv(t *testing.T) {
	assert.Equal(t, 12, StringToInt(" 12 "))
	assert.Equal(t, 0, StringToInt("x"))

	id, ok := ParseID("7")
	assert.True(t, ok)
	assert.EqualValues(t, 7, id)
	_, ok = ParseID("0")
	assert.False(t, ok)
	_, ok = ParseID("-3")
	assert.False(t, ok)

	page, per := ClampPage(0, 500, 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, per)
	_, per = ClampPage(2, 0, 20, 100)
	assert.Equal(t, 20, per)
}
