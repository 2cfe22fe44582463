package entities

import "time"

// NodeVersion is an immutable content snapshot taken each time update()
// changes a node's content. At most MaxVersionsPerNode are retained per
// node (invariant 6); the oldest is evicted on overflow.
type NodeVersion struct {
	NodeID    int64
	Version   int
	Content   string
	CreatedAt time.Time
}

// NewNodeVersion constructs a version snapshot.
func NewNodeVersion(nodeID int64, version int, content string, createdAt time.Time) NodeVersion {
	return NodeVersion{NodeID: nodeID, Version: version, Content: content, CreatedAt: createdAt}
}

// VersionHistory is the ordered (oldest-first) list of a node's retained
// versions, with the eviction policy of invariant 6 applied by Append.
type VersionHistory struct {
	maxSize  int
	versions []NodeVersion
}

// NewVersionHistory constructs an empty history bounded at maxSize.
func NewVersionHistory(maxSize int) *VersionHistory {
	return &VersionHistory{maxSize: maxSize}
}

// RestoreVersionHistory rebuilds a history from persisted versions,
// already ordered oldest-first.
func RestoreVersionHistory(maxSize int, versions []NodeVersion) *VersionHistory {
	return &VersionHistory{maxSize: maxSize, versions: versions}
}

// Append adds a new version, evicting the oldest if the cap is exceeded.
// Returns the evicted version's Version number, or 0 if nothing was evicted.
func (h *VersionHistory) Append(v NodeVersion) (evicted int) {
	h.versions = append(h.versions, v)
	if len(h.versions) > h.maxSize {
		evicted = h.versions[0].Version
		h.versions = h.versions[1:]
	}
	return evicted
}

// All returns the retained versions, oldest first.
func (h *VersionHistory) All() []NodeVersion {
	out := make([]NodeVersion, len(h.versions))
	copy(out, h.versions)
	return out
}

// Latest returns the most recently appended version, if any.
func (h *VersionHistory) Latest() (NodeVersion, bool) {
	if len(h.versions) == 0 {
		return NodeVersion{}, false
	}
	return h.versions[len(h.versions)-1], true
}

// Find returns the version with the given number, if retained.
func (h *VersionHistory) Find(version int) (NodeVersion, bool) {
	for _, v := range h.versions {
		if v.Version == version {
			return v, true
		}
	}
	return NodeVersion{}, false
}
