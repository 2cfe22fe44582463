package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestNewEmbedding_ValidatesDimensionAndNorm(t *testing.T) {
	tests := []struct {
		name    string
		values  []float32
		dim     int
		wantErr bool
	}{
		{name: "valid unit vector", values: unitVector(4, 0), dim: 4},
		{name: "dimension mismatch", values: unitVector(4, 0), dim: 8, wantErr: true},
		{name: "not unit norm", values: []float32{0.5, 0.5, 0.5, 0.5}, dim: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbedding(tt.values, tt.dim)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormalizeToEmbedding(t *testing.T) {
	e := NormalizeToEmbedding([]float32{3, 4, 0})
	var sumSq float64
	for _, v := range e.Values() {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), UnitNormTolerance)
}

func TestEmbedding_CosineSimilarity(t *testing.T) {
	a, err := NewEmbedding(unitVector(3, 0), 3)
	require.NoError(t, err)
	b, err := NewEmbedding(unitVector(3, 0), 3)
	require.NoError(t, err)
	c, err := NewEmbedding(unitVector(3, 1), 3)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, a.CosineSimilarity(b), 1e-9)
	assert.InDelta(t, 0.0, a.CosineSimilarity(c), 1e-9)
}

func TestEmbedding_IsZero(t *testing.T) {
	var e Embedding
	assert.True(t, e.IsZero())

	nonZero, err := NewEmbedding(unitVector(2, 0), 2)
	require.NoError(t, err)
	assert.False(t, nonZero.IsZero())
}
