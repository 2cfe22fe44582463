package badger

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// Options configures the embedded database, mirroring the low-memory
// tuning a single-user desktop process needs rather than a server's.
type Options struct {
	DataDir    string
	InMemory   bool
	SyncWrites bool
}

// Open starts BadgerDB with HippoGraph's footprint: a single user's
// store never needs BadgerDB's server-scale defaults.
func Open(opts Options) (*badger.DB, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir).
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return db, nil
}

// Store implements ports.Store over a single BadgerDB, keeping nodes,
// edges, entities, links, and versions atomic per mutating call (§4.1).
type Store struct {
	db          *badger.DB
	nodeSeq     *badger.Sequence
	entitySeq   *badger.Sequence
	maxVersions int

	mu        sync.Mutex
	snapNext  int64
	snapshots map[ports.SnapshotToken][]byte
}

// NewStore wraps an already-open database. maxVersionsPerNode bounds the
// retained history per node (invariant 6).
func NewStore(db *badger.DB, maxVersionsPerNode int) (*Store, error) {
	nodeSeq, err := db.GetSequence(metaKeyNodeSeq, 50)
	if err != nil {
		return nil, fmt.Errorf("leasing node id sequence: %w", err)
	}
	entitySeq, err := db.GetSequence(metaKeyEntitySeq, 50)
	if err != nil {
		return nil, fmt.Errorf("leasing entity id sequence: %w", err)
	}
	return &Store{
		db:          db,
		nodeSeq:     nodeSeq,
		entitySeq:   entitySeq,
		maxVersions: maxVersionsPerNode,
		snapshots:   make(map[ports.SnapshotToken][]byte),
	}, nil
}

func (s *Store) InsertNode(ctx context.Context, node *entities.Node) (int64, error) {
	id, err := s.nodeSeq.Next()
	if err != nil {
		return 0, pkgerrors.NewIOFailed(err)
	}
	nodeID := int64(id) + 1 // sequence starts at 0; ids are 1-based

	node.AssignID(nodeID)
	data, err := encodeNode(node)
	if err != nil {
		return 0, pkgerrors.NewIOFailed(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(nodeID), data)
	})
	if err != nil {
		return 0, pkgerrors.NewIOFailed(err)
	}
	return nodeID, nil
}

func (s *Store) getNodeTxn(txn *badger.Txn, id int64) (*entities.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, pkgerrors.NewNotFoundError("node not found")
	}
	if err != nil {
		return nil, pkgerrors.NewIOFailed(err)
	}
	var node *entities.Node
	err = item.Value(func(val []byte) error {
		n, decErr := decodeNode(id, val)
		if decErr != nil {
			return decErr
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewIOFailed(err)
	}
	return node, nil
}

func (s *Store) GetNode(ctx context.Context, id int64) (*entities.Node, error) {
	var node *entities.Node
	err := s.db.View(func(txn *badger.Txn) error {
		n, err := s.getNodeTxn(txn, id)
		if err != nil {
			return err
		}
		node = n
		return nil
	})
	return node, err
}

// UpdateNode applies a partial content/category update, snapshotting the
// prior content into a capped NodeVersion history when content changes.
func (s *Store) UpdateNode(ctx context.Context, id int64, fields ports.NodeUpdate) (int, error) {
	version := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		node, err := s.getNodeTxn(txn, id)
		if err != nil {
			return err
		}

		if fields.Content != nil && node.ContentChanged(*fields.Content) {
			latest, evictedVersion, nextVersion, err := s.appendVersionTxn(txn, node)
			if err != nil {
				return err
			}
			_ = latest
			if evictedVersion > 0 {
				txn.Delete(versionKey(id, evictedVersion))
			}
			if err := node.UpdateContent(*fields.Content, nextVersion); err != nil {
				return err
			}
			version = nextVersion
		}
		if fields.Category != nil {
			if err := node.SetCategory(*fields.Category); err != nil {
				return err
			}
		}
		if fields.Importance != nil {
			if err := node.SetImportance(*fields.Importance); err != nil {
				return err
			}
		}

		data, err := encodeNode(node)
		if err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		return txn.Set(nodeKey(id), data)
	})
	return version, err
}

// appendVersionTxn snapshots the node's current content as a new version,
// returning the evicted version number (0 if none) and the version number
// about to be assigned to the incoming edit.
func (s *Store) appendVersionTxn(txn *badger.Txn, node *entities.Node) (kept []entities.NodeVersion, evicted int, next int, err error) {
	existing, err := s.historyTxn(txn, int64(node.ID()))
	if err != nil {
		return nil, 0, 0, err
	}
	history := entities.RestoreVersionHistory(s.maxVersions, existing)
	nextVersion := 1
	if n := len(existing); n > 0 {
		nextVersion = existing[n-1].Version + 1
	}
	snapshot := entities.NewNodeVersion(int64(node.ID()), nextVersion, node.Content(), time.Now())
	evictedNumber := history.Append(snapshot)

	if err := txn.Set(versionKey(int64(node.ID()), nextVersion), encodeVersion(snapshot)); err != nil {
		return nil, 0, 0, pkgerrors.NewIOFailed(err)
	}
	return history.All(), evictedNumber, nextVersion, nil
}

func (s *Store) historyTxn(txn *badger.Txn, id int64) ([]entities.NodeVersion, error) {
	prefix := versionPrefix(id)
	opts := badger.DefaultIteratorOptions
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []entities.NodeVersion
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		version := int(key[9])<<24 | int(key[10])<<16 | int(key[11])<<8 | int(key[12])
		var v entities.NodeVersion
		if err := it.Item().Value(func(val []byte) error {
			decoded, decErr := decodeVersion(id, version, val)
			if decErr != nil {
				return decErr
			}
			v = decoded
			return nil
		}); err != nil {
			return nil, pkgerrors.NewIOFailed(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) GetHistory(ctx context.Context, id int64) ([]entities.NodeVersion, error) {
	var out []entities.NodeVersion
	err := s.db.View(func(txn *badger.Txn) error {
		h, err := s.historyTxn(txn, id)
		if err != nil {
			return err
		}
		out = h
		return nil
	})
	return out, err
}

func (s *Store) RestoreVersion(ctx context.Context, id int64, version int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		node, err := s.getNodeTxn(txn, id)
		if err != nil {
			return err
		}
		history, err := s.historyTxn(txn, id)
		if err != nil {
			return err
		}
		h := entities.RestoreVersionHistory(s.maxVersions, history)
		target, ok := h.Find(version)
		if !ok {
			return pkgerrors.NewNotFoundError("version not retained")
		}
		if target.Content == node.Content() {
			return nil
		}
		node.RestoreContent(target.Content, version)
		data, err := encodeNode(node)
		if err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		return txn.Set(nodeKey(id), data)
	})
}

func (s *Store) DeleteNode(ctx context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := s.getNodeTxn(txn, id); err != nil {
			return err
		}

		if err := s.deletePrefixTxn(txn, edgeOutPrefix(id)); err != nil {
			return err
		}
		if err := s.deleteIncomingEdgesTxn(txn, id); err != nil {
			return err
		}
		if err := s.deletePrefixTxn(txn, reverseEdgePrefix(id)); err != nil {
			return err
		}
		entityIDs, err := s.entityIDsForNodeTxn(txn, id)
		if err != nil {
			return err
		}
		for _, entityID := range entityIDs {
			if err := txn.Delete(linkRevKey(entityID, id)); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		if err := s.deletePrefixTxn(txn, linkPrefix(id)); err != nil {
			return err
		}
		if err := s.deletePrefixTxn(txn, versionPrefix(id)); err != nil {
			return err
		}
		return txn.Delete(nodeKey(id))
	})
}

// deleteIncomingEdgesTxn removes every edge that targets id, found via the
// reverse index. The reverse markers themselves are left in place; DeleteNode
// removes them afterwards with its reverseEdgePrefix sweep.
func (s *Store) deleteIncomingEdgesTxn(txn *badger.Txn, id int64) error {
	prefix := reverseEdgePrefix(id)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	var sources [][2]interface{}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		rest := key[10:] // skip prefix(1)+targetID(8)+separator(1)
		sep := indexByte(rest, 0x00)
		sourceID := getUint64(rest[:sep])
		edgeType := string(rest[sep+1:])
		sources = append(sources, [2]interface{}{sourceID, edgeType})
	}
	it.Close()

	for _, pair := range sources {
		sourceID := pair[0].(int64)
		edgeType := pair[1].(string)
		if err := txn.Delete(edgeKey(sourceID, id, edgeType)); err != nil {
			return pkgerrors.NewIOFailed(err)
		}
	}
	return nil
}

func (s *Store) deletePrefixTxn(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		keys = append(keys, k)
	}
	it.Close()
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return pkgerrors.NewIOFailed(err)
		}
	}
	return nil
}

func (s *Store) IterNodes(ctx context.Context, filter func(*entities.Node) bool, fn func(*entities.Node) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := nodePrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := getUint64(item.Key()[1:])
			var node *entities.Node
			if err := item.Value(func(val []byte) error {
				n, err := decodeNode(id, val)
				if err != nil {
					return err
				}
				node = n
				return nil
			}); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
			if filter != nil && !filter(node) {
				continue
			}
			if !fn(node) {
				return nil
			}
		}
		return nil
	})
}

func (s *Store) UpsertEntity(ctx context.Context, name string, entityType entities.EntityType) (int64, error) {
	canonical := entities.CanonicalizeSurface(name)
	if canonical == "" {
		return 0, pkgerrors.NewValidationError("entity name cannot be empty")
	}

	var entityID int64
	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := entityNameKey(canonical)
		item, err := txn.Get(nameKey)
		if err == nil {
			return item.Value(func(val []byte) error {
				entityID = getUint64(val)
				return nil
			})
		}
		if err != badger.ErrKeyNotFound {
			return pkgerrors.NewIOFailed(err)
		}

		id, err := s.entitySeq.Next()
		if err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		entityID = int64(id) + 1

		entity := entities.ReconstructEntity(entityID, canonical, entityType)
		if err := txn.Set(entityKey(entityID), encodeEntity(entity)); err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		return txn.Set(nameKey, putUint64(entityID))
	})
	return entityID, err
}

func (s *Store) Link(ctx context.Context, nodeID, entityID int64, confidence float64) error {
	if _, err := entities.NewNodeEntity(nodeID, entityID, confidence); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		encoded := encodeConfidence(confidence)
		if err := txn.Set(linkKey(nodeID, entityID), encoded); err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		return txn.Set(linkRevKey(entityID, nodeID), encoded)
	})
}

func (s *Store) entityIDsForNodeTxn(txn *badger.Txn, nodeID int64) ([]int64, error) {
	prefix := linkPrefix(nodeID)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		ids = append(ids, getUint64(key[10:]))
	}
	return ids, nil
}

func (s *Store) HasEntityOfType(ctx context.Context, nodeID int64, entityType string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := s.entityIDsForNodeTxn(txn, nodeID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := txn.Get(entityKey(id))
			if err != nil {
				continue
			}
			if err := item.Value(func(val []byte) error {
				entity, decErr := decodeEntity(id, val)
				if decErr != nil {
					return decErr
				}
				if string(entity.Type()) == entityType {
					found = true
				}
				return nil
			}); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
			if found {
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) EntitiesForNode(ctx context.Context, nodeID int64) ([]*entities.Entity, error) {
	var out []*entities.Entity
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := s.entityIDsForNodeTxn(txn, nodeID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := txn.Get(entityKey(id))
			if err != nil {
				continue
			}
			if err := item.Value(func(val []byte) error {
				entity, decErr := decodeEntity(id, val)
				if decErr != nil {
					return decErr
				}
				out = append(out, entity)
				return nil
			}); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) NodesSharingEntities(ctx context.Context, nodeID int64) (map[int64]int, error) {
	shared := make(map[int64]int)
	err := s.db.View(func(txn *badger.Txn) error {
		entityIDs, err := s.entityIDsForNodeTxn(txn, nodeID)
		if err != nil {
			return err
		}
		for _, entityID := range entityIDs {
			prefix := linkRevPrefix(entityID)
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().Key()
				otherNodeID := getUint64(key[10:])
				if otherNodeID == nodeID {
					continue
				}
				shared[otherNodeID]++
			}
			it.Close()
		}
		return nil
	})
	return shared, err
}

func (s *Store) AddEdge(ctx context.Context, sourceID, targetID int64, weight float64, edgeType entities.EdgeType, relationName string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.upsertEdgeTxn(txn, sourceID, targetID, weight, edgeType, relationName); err != nil {
			return err
		}
		if edgeType == entities.EdgeTypeSemantic || edgeType == entities.EdgeTypeEntity {
			return s.upsertEdgeTxn(txn, targetID, sourceID, weight, edgeType, relationName)
		}
		return nil
	})
}

func (s *Store) upsertEdgeTxn(txn *badger.Txn, sourceID, targetID int64, weight float64, edgeType entities.EdgeType, relationName string) error {
	key := edgeKey(sourceID, targetID, string(edgeType))
	item, err := txn.Get(key)
	now := time.Now()

	if err == badger.ErrKeyNotFound {
		edge, err := entities.NewEdge(sourceID, targetID, weight, edgeType, relationName)
		if err != nil {
			return err
		}
		if err := txn.Set(key, encodeEdge(edge)); err != nil {
			return pkgerrors.NewIOFailed(err)
		}
		return txn.Set(reverseEdgeKey(targetID, sourceID, string(edgeType)), []byte{})
	}
	if err != nil {
		return pkgerrors.NewIOFailed(err)
	}

	var edge *entities.Edge
	if err := item.Value(func(val []byte) error {
		e, decErr := decodeEdge(sourceID, targetID, string(edgeType), val)
		if decErr != nil {
			return decErr
		}
		edge = e
		return nil
	}); err != nil {
		return pkgerrors.NewIOFailed(err)
	}

	edge.MergeWeight(weight, now)
	return txn.Set(key, encodeEdge(edge))
}

func (s *Store) RemoveEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.removeEdgeTxn(txn, sourceID, targetID, edgeType); err != nil {
			return err
		}
		if edgeType == entities.EdgeTypeSemantic || edgeType == entities.EdgeTypeEntity {
			return s.removeEdgeTxn(txn, targetID, sourceID, edgeType)
		}
		return nil
	})
}

func (s *Store) removeEdgeTxn(txn *badger.Txn, sourceID, targetID int64, edgeType entities.EdgeType) error {
	key := edgeKey(sourceID, targetID, string(edgeType))
	if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
		return nil
	} else if err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	if err := txn.Delete(key); err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	return txn.Delete(reverseEdgeKey(targetID, sourceID, string(edgeType)))
}

func (s *Store) DecayEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType, factor float64, at time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.decayEdgeTxn(txn, sourceID, targetID, edgeType, factor, at); err != nil {
			return err
		}
		if edgeType == entities.EdgeTypeSemantic || edgeType == entities.EdgeTypeEntity {
			return s.decayEdgeTxn(txn, targetID, sourceID, edgeType, factor, at)
		}
		return nil
	})
}

func (s *Store) decayEdgeTxn(txn *badger.Txn, sourceID, targetID int64, edgeType entities.EdgeType, factor float64, at time.Time) error {
	key := edgeKey(sourceID, targetID, string(edgeType))
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	var edge *entities.Edge
	if err := item.Value(func(val []byte) error {
		e, decErr := decodeEdge(sourceID, targetID, string(edgeType), val)
		if decErr != nil {
			return decErr
		}
		edge = e
		return nil
	}); err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	edge.Decay(factor, at)
	return txn.Set(key, encodeEdge(edge))
}

func (s *Store) Neighbors(ctx context.Context, id int64) ([]ports.NeighborEdge, error) {
	var out []ports.NeighborEdge
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := edgeOutPrefix(id)
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			_, targetID, edgeType := splitEdgeKey(item.Key())
			if err := item.Value(func(val []byte) error {
				edge, decErr := decodeEdge(id, targetID, edgeType, val)
				if decErr != nil {
					return decErr
				}
				out = append(out, ports.NeighborEdge{TargetID: targetID, Weight: edge.Weight(), Type: edge.Type()})
				return nil
			}); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) AllEdges(ctx context.Context) ([]ports.StoredEdge, error) {
	var out []ports.StoredEdge
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := edgePrefix()
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			sourceID, targetID, edgeType := splitEdgeKey(item.Key())
			if err := item.Value(func(val []byte) error {
				edge, decErr := decodeEdge(sourceID, targetID, edgeType, val)
				if decErr != nil {
					return decErr
				}
				out = append(out, ports.StoredEdge{
					SourceID:      sourceID,
					TargetID:      targetID,
					Weight:        edge.Weight(),
					Type:          edge.Type(),
					RelationName:  edge.RelationName(),
					CreatedAt:     edge.CreatedAt(),
					LastTouchedAt: edge.LastTouchedAt(),
				})
				return nil
			}); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) RecordAccess(ctx context.Context, ids []int64, at time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			node, err := s.getNodeTxn(txn, id)
			if err != nil {
				if pkgerrors.IsNotFound(err) {
					continue
				}
				return err
			}
			node.RecordAccess(at)
			data, err := encodeNode(node)
			if err != nil {
				return pkgerrors.NewIOFailed(err)
			}
			if err := txn.Set(nodeKey(id), data); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
}

func (s *Store) SetPageRank(ctx context.Context, scores map[int64]float64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for id, score := range scores {
			node, err := s.getNodeTxn(txn, id)
			if err != nil {
				if pkgerrors.IsNotFound(err) {
					continue
				}
				return err
			}
			if err := node.SetPageRank(score); err != nil {
				return err
			}
			data, err := encodeNode(node)
			if err != nil {
				return pkgerrors.NewIOFailed(err)
			}
			if err := txn.Set(nodeKey(id), data); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
}

func (s *Store) SetCommunityID(ctx context.Context, assignments map[int64]int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for id, community := range assignments {
			node, err := s.getNodeTxn(txn, id)
			if err != nil {
				if pkgerrors.IsNotFound(err) {
					continue
				}
				return err
			}
			node.SetCommunityID(community)
			data, err := encodeNode(node)
			if err != nil {
				return pkgerrors.NewIOFailed(err)
			}
			if err := txn.Set(nodeKey(id), data); err != nil {
				return pkgerrors.NewIOFailed(err)
			}
		}
		return nil
	})
}

func (s *Store) NodeCount(ctx context.Context) (int, error) {
	return s.countPrefix(nodePrefix())
}

func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	return s.countPrefix(edgePrefix())
}

func (s *Store) EntityCount(ctx context.Context) (int, error) {
	return s.countPrefix(entityPrefix())
}

func (s *Store) countPrefix(prefix []byte) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *Store) Categories(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := s.IterNodes(ctx, nil, func(n *entities.Node) bool {
		counts[n.Category()]++
		return true
	})
	return counts, err
}

// Snapshot takes a full backup into memory, used for sleep-cycle rollback
// (§4.9 step 6) and explicit stats()-adjacent backup requests (§9).
func (s *Store) Snapshot(ctx context.Context) (ports.SnapshotToken, error) {
	var buf bytes.Buffer
	if _, err := s.db.Backup(&buf, 0); err != nil {
		return "", pkgerrors.NewIOFailed(err)
	}

	s.mu.Lock()
	s.snapNext++
	token := ports.SnapshotToken(fmt.Sprintf("snap-%d", s.snapNext))
	s.snapshots[token] = buf.Bytes()
	s.mu.Unlock()

	return token, nil
}

// Restore drops all current data and replays a prior snapshot. Callers
// must rebuild every in-memory index (ANN, BM25, graph cache) afterward,
// since Restore only touches the durable store.
func (s *Store) Restore(ctx context.Context, token ports.SnapshotToken) error {
	s.mu.Lock()
	data, ok := s.snapshots[token]
	s.mu.Unlock()
	if !ok {
		return pkgerrors.NewNotFoundError("snapshot not found")
	}

	if err := s.db.DropAll(); err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	if err := s.db.Load(bytes.NewReader(data), 256); err != nil {
		return pkgerrors.NewIOFailed(err)
	}
	return nil
}

func (s *Store) Close() error {
	s.nodeSeq.Release()
	s.entitySeq.Release()
	return s.db.Close()
}
