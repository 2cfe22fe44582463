package embeddingcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

func TestCache_SetGetDelete(t *testing.T) {
	c := New()
	values := make([]float32, 4)
	values[0] = 1
	e, err := valueobjects.NewEmbedding(values, 4)
	assert.NoError(t, err)

	c.Set(1, e)
	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, e.Values(), got.Values())

	c.Delete(1)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestCache_Rebuild(t *testing.T) {
	c := New()
	c.Set(1, valueobjects.Embedding{})
	c.Rebuild(map[int64]valueobjects.Embedding{2: {}})
	assert.Equal(t, 1, c.Count())
	_, ok := c.Get(1)
	assert.False(t, ok)
}
