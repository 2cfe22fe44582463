package badger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// Record layout is a hand-rolled binary format rather than gob or JSON:
// the embedding must land on disk as a fixed-size block of D*4 bytes
// (§6), and a length-prefixed scheme keeps every other field just as
// compact without reflection overhead on the hot ingest/search path.

func writeString(buf *bytes.Buffer, s string) {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(s)))
	buf.Write(lb[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var lb [4]byte
	if _, err := r.Read(lb[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lb[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readInt64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	writeInt64(buf, int64(math.Float64bits(v)))
}

func readFloat64(r *bytes.Reader) (float64, error) {
	bits, err := readInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	writeInt64(buf, t.UnixNano())
}

func readTime(r *bytes.Reader) (time.Time, error) {
	nanos, err := readInt64(r)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

func writeOptionalTime(buf *bytes.Buffer, t *time.Time) {
	if t == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeTime(buf, *t)
}

func readOptionalTime(r *bytes.Reader) (*time.Time, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	t, err := readTime(r)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeNode serializes a Node including its fixed-size embedding blob.
func encodeNode(n *entities.Node) ([]byte, error) {
	var buf bytes.Buffer
	writeString(&buf, n.Content())
	writeString(&buf, n.Category())
	writeString(&buf, n.Importance().String())
	writeTime(&buf, n.CreatedAt())
	writeTime(&buf, n.LastAccessedAt())
	start, end := n.EventTimeRange()
	writeOptionalTime(&buf, start)
	writeOptionalTime(&buf, end)
	writeInt64(&buf, n.AccessCount())
	writeFloat64(&buf, n.EmotionalTone())
	writeFloat64(&buf, n.EmotionalIntensity())
	writeString(&buf, n.EmotionalReflection())
	writeFloat64(&buf, n.PageRank())
	if cid, ok := n.CommunityID(); ok {
		buf.WriteByte(1)
		writeInt64(&buf, int64(cid))
	} else {
		buf.WriteByte(0)
	}

	values := n.Embedding().Values()
	var dimb [4]byte
	binary.BigEndian.PutUint32(dimb[:], uint32(len(values)))
	buf.Write(dimb[:])
	for _, v := range values {
		var fb [4]byte
		binary.BigEndian.PutUint32(fb[:], math.Float32bits(v))
		buf.Write(fb[:])
	}

	return buf.Bytes(), nil
}

func decodeNode(id int64, data []byte) (*entities.Node, error) {
	r := bytes.NewReader(data)

	content, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode node content: %w", err)
	}
	category, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode node category: %w", err)
	}
	importanceStr, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode node importance: %w", err)
	}
	createdAt, err := readTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode node createdAt: %w", err)
	}
	lastAccessedAt, err := readTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode node lastAccessedAt: %w", err)
	}
	tStart, err := readOptionalTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode node eventStart: %w", err)
	}
	tEnd, err := readOptionalTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode node eventEnd: %w", err)
	}
	accessCount, err := readInt64(r)
	if err != nil {
		return nil, fmt.Errorf("decode node accessCount: %w", err)
	}
	tone, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("decode node tone: %w", err)
	}
	intensity, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("decode node intensity: %w", err)
	}
	reflection, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode node reflection: %w", err)
	}
	pagerank, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("decode node pagerank: %w", err)
	}
	hasCommunity, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode node community flag: %w", err)
	}
	var communityID *int
	if hasCommunity == 1 {
		cid, err := readInt64(r)
		if err != nil {
			return nil, fmt.Errorf("decode node community id: %w", err)
		}
		v := int(cid)
		communityID = &v
	}

	var dimb [4]byte
	if _, err := r.Read(dimb[:]); err != nil {
		return nil, fmt.Errorf("decode node embedding dim: %w", err)
	}
	dim := int(binary.BigEndian.Uint32(dimb[:]))
	values := make([]float32, dim)
	for i := 0; i < dim; i++ {
		var fb [4]byte
		if _, err := r.Read(fb[:]); err != nil {
			return nil, fmt.Errorf("decode node embedding value %d: %w", i, err)
		}
		values[i] = math.Float32frombits(binary.BigEndian.Uint32(fb[:]))
	}
	var embedding valueobjects.Embedding
	if dim > 0 {
		embedding = valueobjects.NormalizeToEmbedding(values)
	}

	return entities.ReconstructNode(
		id, content, category, entities.Importance(importanceStr),
		createdAt, lastAccessedAt, tStart, tEnd, accessCount,
		tone, intensity, reflection, pagerank, communityID, embedding,
	), nil
}

func encodeEdge(e *entities.Edge) []byte {
	var buf bytes.Buffer
	writeFloat64(&buf, e.Weight())
	writeString(&buf, e.RelationName())
	writeTime(&buf, e.CreatedAt())
	writeTime(&buf, e.LastTouchedAt())
	return buf.Bytes()
}

func decodeEdge(sourceID, targetID int64, edgeType string, data []byte) (*entities.Edge, error) {
	r := bytes.NewReader(data)
	weight, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("decode edge weight: %w", err)
	}
	relationName, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode edge relation: %w", err)
	}
	createdAt, err := readTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode edge createdAt: %w", err)
	}
	lastTouchedAt, err := readTime(r)
	if err != nil {
		return nil, fmt.Errorf("decode edge lastTouchedAt: %w", err)
	}
	return entities.ReconstructEdge(sourceID, targetID, weight, entities.EdgeType(edgeType), relationName, createdAt, lastTouchedAt), nil
}

func encodeEntity(e *entities.Entity) []byte {
	var buf bytes.Buffer
	writeString(&buf, e.Name())
	writeString(&buf, string(e.Type()))
	return buf.Bytes()
}

func decodeEntity(id int64, data []byte) (*entities.Entity, error) {
	r := bytes.NewReader(data)
	name, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode entity name: %w", err)
	}
	entityType, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("decode entity type: %w", err)
	}
	return entities.ReconstructEntity(id, name, entities.EntityType(entityType)), nil
}

func encodeConfidence(confidence float64) []byte {
	var buf bytes.Buffer
	writeFloat64(&buf, confidence)
	return buf.Bytes()
}

func decodeConfidence(data []byte) (float64, error) {
	return readFloat64(bytes.NewReader(data))
}

func encodeVersion(v entities.NodeVersion) []byte {
	var buf bytes.Buffer
	writeString(&buf, v.Content)
	writeTime(&buf, v.CreatedAt)
	return buf.Bytes()
}

func decodeVersion(nodeID int64, version int, data []byte) (entities.NodeVersion, error) {
	r := bytes.NewReader(data)
	content, err := readString(r)
	if err != nil {
		return entities.NodeVersion{}, fmt.Errorf("decode version content: %w", err)
	}
	createdAt, err := readTime(r)
	if err != nil {
		return entities.NodeVersion{}, fmt.Errorf("decode version createdAt: %w", err)
	}
	return entities.NewNodeVersion(nodeID, version, content, createdAt), nil
}
