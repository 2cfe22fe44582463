// Package badger is the persistent Store implementation: every node,
// edge, entity, link, and version lives in a single BadgerDB, with a
// single-byte key prefix per row family (§4.1).
package badger

import "encoding/binary"

const (
	prefixNode       = byte(0x01) // node:id -> node record
	prefixEdge       = byte(0x02) // edge:source:target:type -> edge record
	prefixReverse    = byte(0x03) // redge:target:source:type -> empty (incoming lookup)
	prefixEntity     = byte(0x04) // entity:id -> entity record
	prefixEntityName = byte(0x05) // ename:canonicalName -> id (uniqueness + lookup)
	prefixLink       = byte(0x06) // link:nodeID:entityID -> confidence
	prefixLinkRev    = byte(0x07) // linkrev:entityID:nodeID -> confidence
	prefixVersion    = byte(0x08) // version:nodeID:version -> version record
	prefixMeta       = byte(0x09) // meta:key -> value (sequence counters)
)

var (
	metaKeyNodeSeq   = metaKey("node_seq")
	metaKeyEntitySeq = metaKey("entity_seq")
)

func metaKey(name string) []byte {
	k := make([]byte, 0, 1+len(name))
	k = append(k, prefixMeta)
	k = append(k, []byte(name)...)
	return k
}

func putUint64(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func getUint64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func nodeKey(id int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixNode)
	k = append(k, putUint64(id)...)
	return k
}

func nodePrefix() []byte { return []byte{prefixNode} }

func edgeKey(sourceID, targetID int64, edgeType string) []byte {
	k := make([]byte, 0, 1+8+1+8+1+len(edgeType))
	k = append(k, prefixEdge)
	k = append(k, putUint64(sourceID)...)
	k = append(k, 0x00)
	k = append(k, putUint64(targetID)...)
	k = append(k, 0x00)
	k = append(k, []byte(edgeType)...)
	return k
}

// edgeOutPrefix returns the prefix matching every outgoing edge of sourceID.
func edgeOutPrefix(sourceID int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixEdge)
	k = append(k, putUint64(sourceID)...)
	return k
}

func edgePrefix() []byte { return []byte{prefixEdge} }

func reverseEdgeKey(targetID, sourceID int64, edgeType string) []byte {
	k := make([]byte, 0, 1+8+1+8+1+len(edgeType))
	k = append(k, prefixReverse)
	k = append(k, putUint64(targetID)...)
	k = append(k, 0x00)
	k = append(k, putUint64(sourceID)...)
	k = append(k, 0x00)
	k = append(k, []byte(edgeType)...)
	return k
}

func reverseEdgePrefix(targetID int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixReverse)
	k = append(k, putUint64(targetID)...)
	return k
}

// splitEdgeKey extracts (sourceID, targetID, edgeType) from a forward edge key.
func splitEdgeKey(key []byte) (sourceID, targetID int64, edgeType string) {
	sourceID = getUint64(key[1:9])
	rest := key[10:] // skip separator at index 9
	sep := indexByte(rest, 0x00)
	targetID = getUint64(rest[:sep])
	edgeType = string(rest[sep+1:])
	return
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func entityKey(id int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixEntity)
	k = append(k, putUint64(id)...)
	return k
}

func entityPrefix() []byte { return []byte{prefixEntity} }

func entityNameKey(canonicalName string) []byte {
	k := make([]byte, 0, 1+len(canonicalName))
	k = append(k, prefixEntityName)
	k = append(k, []byte(canonicalName)...)
	return k
}

func linkKey(nodeID, entityID int64) []byte {
	k := make([]byte, 0, 17)
	k = append(k, prefixLink)
	k = append(k, putUint64(nodeID)...)
	k = append(k, 0x00)
	k = append(k, putUint64(entityID)...)
	return k
}

func linkPrefix(nodeID int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixLink)
	k = append(k, putUint64(nodeID)...)
	return k
}

func linkRevKey(entityID, nodeID int64) []byte {
	k := make([]byte, 0, 17)
	k = append(k, prefixLinkRev)
	k = append(k, putUint64(entityID)...)
	k = append(k, 0x00)
	k = append(k, putUint64(nodeID)...)
	return k
}

func linkRevPrefix(entityID int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixLinkRev)
	k = append(k, putUint64(entityID)...)
	return k
}

func versionKey(nodeID int64, version int) []byte {
	k := make([]byte, 0, 13)
	k = append(k, prefixVersion)
	k = append(k, putUint64(nodeID)...)
	vb := make([]byte, 4)
	binary.BigEndian.PutUint32(vb, uint32(version))
	k = append(k, vb...)
	return k
}

func versionPrefix(nodeID int64) []byte {
	k := make([]byte, 0, 9)
	k = append(k, prefixVersion)
	k = append(k, putUint64(nodeID)...)
	return k
}
