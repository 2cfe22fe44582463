// Package events carries the domain events emitted by aggregates in
// domain/core/entities as they mutate.
package events

import "time"

// DomainEvent represents a business occurrence raised by an aggregate.
type DomainEvent interface {
	EventType() string
	AggregateID() int64
	Timestamp() time.Time
}

// BaseEvent provides the fields common to every event.
type BaseEvent struct {
	eventType   string
	aggregateID int64
	timestamp   time.Time
}

func (e BaseEvent) EventType() string    { return e.eventType }
func (e BaseEvent) AggregateID() int64   { return e.aggregateID }
func (e BaseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, aggregateID int64) BaseEvent {
	return BaseEvent{eventType: eventType, aggregateID: aggregateID, timestamp: time.Now()}
}

// NodeCreated is raised when a node is first persisted.
type NodeCreated struct {
	BaseEvent
	Category string
}

func NewNodeCreated(nodeID int64, category string) NodeCreated {
	return NodeCreated{BaseEvent: newBaseEvent("node.created", nodeID), Category: category}
}

// NodeContentUpdated is raised when update() changes a node's content,
// distinct from metadata-only edits which do not raise this event.
type NodeContentUpdated struct {
	BaseEvent
	NewVersion int
}

func NewNodeContentUpdated(nodeID int64, newVersion int) NodeContentUpdated {
	return NodeContentUpdated{BaseEvent: newBaseEvent("node.content_updated", nodeID), NewVersion: newVersion}
}

// NodeDeleted is raised when a node and its incident edges/links/versions are removed.
type NodeDeleted struct {
	BaseEvent
}

func NewNodeDeleted(nodeID int64) NodeDeleted {
	return NodeDeleted{BaseEvent: newBaseEvent("node.deleted", nodeID)}
}

// NodeRestored is raised when a prior version's content replaces the current one.
type NodeRestored struct {
	BaseEvent
	FromVersion int
}

func NewNodeRestored(nodeID int64, fromVersion int) NodeRestored {
	return NodeRestored{BaseEvent: newBaseEvent("node.restored", nodeID), FromVersion: fromVersion}
}

// ImportanceChanged is raised by set_importance and by anchor-boost maintenance.
type ImportanceChanged struct {
	BaseEvent
	Level string
}

func NewImportanceChanged(nodeID int64, level string) ImportanceChanged {
	return ImportanceChanged{BaseEvent: newBaseEvent("node.importance_changed", nodeID), Level: level}
}

// EdgeLinked is raised when an edge of any type is created; strengthening
// an existing edge raises no event.
type EdgeLinked struct {
	BaseEvent
	TargetID int64
	Weight   float64
}

func NewEdgeLinked(sourceID, targetID int64, weight float64) EdgeLinked {
	return EdgeLinked{BaseEvent: newBaseEvent("edge.linked", sourceID), TargetID: targetID, Weight: weight}
}

// EventAggregate is implemented by aggregates that accumulate uncommitted events.
type EventAggregate interface {
	UncommittedEvents() []DomainEvent
	MarkEventsCommitted()
}
