package entities

import (
	"strings"

	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// EntityType classifies a canonicalized concept extracted from note text.
type EntityType string

const (
	EntityTypePerson  EntityType = "person"
	EntityTypeOrg     EntityType = "org"
	EntityTypeLocation EntityType = "location"
	EntityTypeTech    EntityType = "tech"
	EntityTypeConcept EntityType = "concept"
)

// Entity is a canonical concept, unique by name, that one or more nodes
// can link to.
type Entity struct {
	id         int64
	name       string
	entityType EntityType
}

// CanonicalizeSurface lowercases, trims, and collapses internal
// whitespace on a surface form so that "  Python " and "python" resolve
// to the same entity (§4.7).
func CanonicalizeSurface(surface string) string {
	fields := strings.Fields(strings.ToLower(surface))
	return strings.Join(fields, " ")
}

// NewEntity constructs an entity from an already-canonicalized name.
func NewEntity(name string, entityType EntityType) (*Entity, error) {
	if name == "" {
		return nil, pkgerrors.NewValidationError("entity name cannot be empty")
	}
	return &Entity{name: name, entityType: entityType}, nil
}

// ReconstructEntity rebuilds an entity from persisted fields.
func ReconstructEntity(id int64, name string, entityType EntityType) *Entity {
	return &Entity{id: id, name: name, entityType: entityType}
}

// AssignID is called once by the store on first persistence.
func (e *Entity) AssignID(id int64) { e.id = id }

func (e *Entity) ID() int64           { return e.id }
func (e *Entity) Name() string        { return e.name }
func (e *Entity) Type() EntityType    { return e.entityType }

// NodeEntity is the many-to-many link between a Node and an Entity, with
// the extractor's confidence for this particular mention retained for
// diagnostics.
type NodeEntity struct {
	NodeID     int64
	EntityID   int64
	Confidence float64
}

// NewNodeEntity validates and constructs a link.
func NewNodeEntity(nodeID, entityID int64, confidence float64) (NodeEntity, error) {
	if confidence < 0 || confidence > 1 {
		return NodeEntity{}, pkgerrors.NewValidationError("entity link confidence must be in [0,1]")
	}
	return NodeEntity{NodeID: nodeID, EntityID: entityID, Confidence: confidence}, nil
}
