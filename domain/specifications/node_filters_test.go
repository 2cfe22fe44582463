package specifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

func TestCategorySpec(t *testing.T) {
	n, err := entities.NewNode("note", "work", entities.ImportanceNormal)
	require.NoError(t, err)

	assert.True(t, NewCategorySpec("work").IsSatisfiedBy(n))
	assert.False(t, NewCategorySpec("personal").IsSatisfiedBy(n))
}

func TestTimeAfterBeforeSpec(t *testing.T) {
	n, err := entities.NewNode("note", "work", entities.ImportanceNormal)
	require.NoError(t, err)

	past := n.CreatedAt().Add(-time.Hour)
	future := n.CreatedAt().Add(time.Hour)

	assert.True(t, NewTimeAfterSpec(past).IsSatisfiedBy(n))
	assert.False(t, NewTimeAfterSpec(future).IsSatisfiedBy(n))
	assert.True(t, NewTimeBeforeSpec(future).IsSatisfiedBy(n))
	assert.False(t, NewTimeBeforeSpec(past).IsSatisfiedBy(n))
}

func TestRetrievalFilters_BuildSpecification_CombinesWithAnd(t *testing.T) {
	n, err := entities.NewNode("note", "work", entities.ImportanceNormal)
	require.NoError(t, err)
	past := n.CreatedAt().Add(-time.Hour)

	category := "work"
	filters := RetrievalFilters{Category: &category, TimeAfter: &past}

	spec := filters.BuildSpecification(nil)
	require.NotNil(t, spec)
	assert.True(t, spec.IsSatisfiedBy(n))

	wrongCategory := "personal"
	filters2 := RetrievalFilters{Category: &wrongCategory, TimeAfter: &past}
	assert.False(t, filters2.BuildSpecification(nil).IsSatisfiedBy(n))
}

func TestRetrievalFilters_BuildSpecification_NilWhenEmpty(t *testing.T) {
	filters := RetrievalFilters{}
	assert.Nil(t, filters.BuildSpecification(nil))
}

func TestEntityTypeSpec(t *testing.T) {
	n, err := entities.NewNode("note", "work", entities.ImportanceNormal)
	require.NoError(t, err)
	n.AssignID(5)

	spec := NewEntityTypeSpec("person", func(nodeID int64, entityType string) bool {
		return nodeID == 5 && entityType == "person"
	})
	assert.True(t, spec.IsSatisfiedBy(n))

	wrongType := NewEntityTypeSpec("org", func(nodeID int64, entityType string) bool {
		return nodeID == 5 && entityType == "person"
	})
	assert.False(t, wrongType.IsSatisfiedBy(n))
}
