// Package graph holds the in-memory knowledge graph built by synthesis.
// It is ephemeral by design: a pipeline run constructs one, the serializer
// and the store walk it, and it is discarded with the run.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// ErrNotFound is returned when a node or edge lookup misses.
var ErrNotFound = errors.New("not found")

// Graph is a concurrency-safe entity/relationship store with indexes for
// the access patterns of serialization and reachability analysis.
type Graph struct {
	nodes    map[string]schemas.CanonicalEntity
	outbound map[string]map[schemas.Predicate]map[string]struct{}
	inbound  map[string]map[schemas.Predicate]map[string]struct{}
	byType   map[schemas.EntityType]map[string]struct{}
	mu       sync.RWMutex
	log      *zap.Logger
}

// New creates an empty graph.
func New(logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		nodes:    make(map[string]schemas.CanonicalEntity),
		outbound: make(map[string]map[schemas.Predicate]map[string]struct{}),
		inbound:  make(map[string]map[schemas.Predicate]map[string]struct{}),
		byType:   make(map[schemas.EntityType]map[string]struct{}),
		log:      logger.Named("graph"),
	}
}

// AddEntity inserts a node. An existing node with the same ID is
// overwritten; its type index entry is moved if the type changed.
func (g *Graph) AddEntity(e schemas.CanonicalEntity) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.nodes[e.ID]; ok && prev.Type != e.Type {
		delete(g.byType[prev.Type], e.ID)
	}
	g.nodes[e.ID] = e
	if g.byType[e.Type] == nil {
		g.byType[e.Type] = make(map[string]struct{})
	}
	g.byType[e.Type][e.ID] = struct{}{}
	g.log.Debug("entity added", zap.String("id", e.ID), zap.String("type", string(e.Type)))
}

// AddEdge inserts a relationship. Both endpoints must already exist.
// Duplicate edges are absorbed silently.
func (g *Graph) AddEdge(rel schemas.Relationship) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[rel.SubjectID]; !ok {
		return fmt.Errorf("subject %q: %w", rel.SubjectID, ErrNotFound)
	}
	if _, ok := g.nodes[rel.ObjectID]; !ok {
		return fmt.Errorf("object %q: %w", rel.ObjectID, ErrNotFound)
	}

	addIndex(g.outbound, rel.SubjectID, rel.Predicate, rel.ObjectID)
	addIndex(g.inbound, rel.ObjectID, rel.Predicate, rel.SubjectID)
	return nil
}

func addIndex(idx map[string]map[schemas.Predicate]map[string]struct{}, a string, p schemas.Predicate, b string) {
	if idx[a] == nil {
		idx[a] = make(map[schemas.Predicate]map[string]struct{})
	}
	if idx[a][p] == nil {
		idx[a][p] = make(map[string]struct{})
	}
	idx[a][p][b] = struct{}{}
}

// Entity retrieves a node by ID.
func (g *Graph) Entity(id string) (schemas.CanonicalEntity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.nodes[id]
	if !ok {
		return schemas.CanonicalEntity{}, fmt.Errorf("entity %q: %w", id, ErrNotFound)
	}
	return e, nil
}

// HasEdge reports whether the exact relationship is present.
func (g *Graph) HasEdge(rel schemas.Relationship) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	objs, ok := g.outbound[rel.SubjectID][rel.Predicate]
	if !ok {
		return false
	}
	_, ok = objs[rel.ObjectID]
	return ok
}

// Entities returns all nodes sorted by ID.
func (g *Graph) Entities() []schemas.CanonicalEntity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]schemas.CanonicalEntity, 0, len(g.nodes))
	for _, e := range g.nodes {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EntitiesOfType returns the IDs of all nodes whose type equals t, sorted.
func (g *Graph) EntitiesOfType(t schemas.EntityType) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.byType[t]))
	for id := range g.byType[t] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns all relationships sorted by (subject, predicate, object).
func (g *Graph) Edges() []schemas.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []schemas.Relationship
	for subj, preds := range g.outbound {
		for pred, objs := range preds {
			for obj := range objs {
				out = append(out, schemas.Relationship{SubjectID: subj, Predicate: pred, ObjectID: obj})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		if out[i].Predicate != out[j].Predicate {
			return out[i].Predicate < out[j].Predicate
		}
		return out[i].ObjectID < out[j].ObjectID
	})
	return out
}

// Outgoing returns the objects of all edges (id, p, *) sorted by ID.
func (g *Graph) Outgoing(id string, p schemas.Predicate) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.outbound[id][p]))
	for obj := range g.outbound[id][p] {
		out = append(out, obj)
	}
	sort.Strings(out)
	return out
}

// Incoming returns the subjects of all edges (*, p, id) sorted by ID.
func (g *Graph) Incoming(id string, p schemas.Predicate) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.inbound[id][p]))
	for subj := range g.inbound[id][p] {
		out = append(out, subj)
	}
	sort.Strings(out)
	return out
}

// RemoveEdge deletes a relationship from both indexes. Missing edges are a
// no-op.
func (g *Graph) RemoveEdge(rel schemas.Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if objs, ok := g.outbound[rel.SubjectID][rel.Predicate]; ok {
		delete(objs, rel.ObjectID)
	}
	if subjs, ok := g.inbound[rel.ObjectID][rel.Predicate]; ok {
		delete(subjs, rel.SubjectID)
	}
}

// ReachableFrom walks edges with the given predicate from a start node and
// returns the set of visited IDs, including the start.
func (g *Graph) ReachableFrom(start string, p schemas.Predicate) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]struct{}{}
	if _, ok := g.nodes[start]; !ok {
		return visited
	}
	stack := []string{start}
	visited[start] = struct{}{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.outbound[cur][p] {
			if _, seen := visited[next]; !seen {
				visited[next] = struct{}{}
				stack = append(stack, next)
			}
		}
	}
	return visited
}

// Size returns node and edge counts.
func (g *Graph) Size() (nodes, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes = len(g.nodes)
	for _, preds := range g.outbound {
		for _, objs := range preds {
			edges += len(objs)
		}
	}
	return nodes, edges
}
