package specifications

import (
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

// NodeSpecification narrows the generic Specification to Node filters.
type NodeSpecification = Specification[*entities.Node]

// CategorySpec matches nodes with an exact category, used by the
// retriever's `category` result filter (§6 Query API).
type CategorySpec struct {
	BaseSpecification[*entities.Node]
	category string
}

func NewCategorySpec(category string) *CategorySpec {
	s := &CategorySpec{category: category}
	s.BaseSpecification = BaseSpecification[*entities.Node]{evaluator: s.evaluate}
	return s
}

func (s *CategorySpec) evaluate(n *entities.Node) bool {
	return n != nil && n.Category() == s.category
}

// TimeAfterSpec matches nodes created at or after a timestamp.
type TimeAfterSpec struct {
	BaseSpecification[*entities.Node]
	after time.Time
}

func NewTimeAfterSpec(after time.Time) *TimeAfterSpec {
	s := &TimeAfterSpec{after: after}
	s.BaseSpecification = BaseSpecification[*entities.Node]{evaluator: s.evaluate}
	return s
}

func (s *TimeAfterSpec) evaluate(n *entities.Node) bool {
	return n != nil && !n.CreatedAt().Before(s.after)
}

// TimeBeforeSpec matches nodes created at or before a timestamp.
type TimeBeforeSpec struct {
	BaseSpecification[*entities.Node]
	before time.Time
}

func NewTimeBeforeSpec(before time.Time) *TimeBeforeSpec {
	s := &TimeBeforeSpec{before: before}
	s.BaseSpecification = BaseSpecification[*entities.Node]{evaluator: s.evaluate}
	return s
}

func (s *TimeBeforeSpec) evaluate(n *entities.Node) bool {
	return n != nil && !n.CreatedAt().After(s.before)
}

// EntityTypeSpec matches nodes linked to at least one entity of the
// given type. It is constructed with a lookup function rather than a
// store reference, so it stays free of infrastructure dependencies; the
// retriever supplies a closure backed by the store's node-entity index.
type EntityTypeSpec struct {
	BaseSpecification[*entities.Node]
	entityType string
	hasEntityOfType func(nodeID int64, entityType string) bool
}

func NewEntityTypeSpec(entityType string, hasEntityOfType func(nodeID int64, entityType string) bool) *EntityTypeSpec {
	s := &EntityTypeSpec{entityType: entityType, hasEntityOfType: hasEntityOfType}
	s.BaseSpecification = BaseSpecification[*entities.Node]{evaluator: s.evaluate}
	return s
}

func (s *EntityTypeSpec) evaluate(n *entities.Node) bool {
	if n == nil || s.hasEntityOfType == nil {
		return false
	}
	return s.hasEntityOfType(int64(n.ID()), s.entityType)
}

// RetrievalFilters bundles the optional filters accepted by the Query
// API's search operation (§6).
type RetrievalFilters struct {
	Category   *string
	TimeAfter  *time.Time
	TimeBefore *time.Time
	EntityType *string
}

// BuildSpecification composes the non-nil filters into a single
// specification using AND, returning nil when no filter was requested
// (meaning: accept every candidate).
func (f RetrievalFilters) BuildSpecification(hasEntityOfType func(nodeID int64, entityType string) bool) NodeSpecification {
	var spec NodeSpecification
	combine := func(next NodeSpecification) {
		if spec == nil {
			spec = next
		} else {
			spec = spec.And(next)
		}
	}

	if f.Category != nil {
		combine(NewCategorySpec(*f.Category))
	}
	if f.TimeAfter != nil {
		combine(NewTimeAfterSpec(*f.TimeAfter))
	}
	if f.TimeBefore != nil {
		combine(NewTimeBeforeSpec(*f.TimeBefore))
	}
	if f.EntityType != nil {
		combine(NewEntityTypeSpec(*f.EntityType, hasEntityOfType))
	}
	return spec
}
