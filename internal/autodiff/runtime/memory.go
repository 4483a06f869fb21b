package runtime

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/emirpasic/gods/v2/sets/hashset"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/born/internal/autodiff/graph"
)

// GraphID identifies one set of nodes tracked by the memory manager.
type GraphID = uuid.UUID

// memoryManager partitions registered nodes into connected subgraphs and
// finds the nodes no live tensor handle can reach anymore.
//
// A node is useful while it is referenced or while one of its descendants is:
// a backward pass from that descendant still needs the node's step. Every
// other node is an orphan, even when it shares a graph with a live parameter.
//
// Graphs are kept in registration order so sweeps are deterministic.
type memoryManager struct {
	graphs  *orderedmap.OrderedMap[GraphID, *hashset.Set[graph.NodeID]]
	owners  map[graph.NodeID]GraphID
	nodes   map[graph.NodeID]*graph.NodeRefCount
	parents map[graph.NodeID][]graph.NodeID
}

func newMemoryManager() *memoryManager {
	return &memoryManager{
		graphs:  orderedmap.New[GraphID, *hashset.Set[graph.NodeID]](),
		owners:  make(map[graph.NodeID]GraphID),
		nodes:   make(map[graph.NodeID]*graph.NodeRefCount),
		parents: make(map[graph.NodeID][]graph.NodeID),
	}
}

// register records the node of rc and joins it to the graphs of its parents.
// Parents spanning several graphs merge them into one.
func (m *memoryManager) register(rc *graph.NodeRefCount, parents []graph.NodeID) {
	id := rc.ID()
	m.nodes[id] = rc
	m.parents[id] = parents

	var target GraphID
	found := false
	for _, p := range parents {
		gid, ok := m.owners[p]
		if !ok {
			continue
		}
		if !found {
			target, found = gid, true
			continue
		}
		if gid != target {
			m.merge(target, gid)
		}
	}

	if !found {
		target = uuid.New()
		m.graphs.Set(target, hashset.New[graph.NodeID]())
	}

	members, _ := m.graphs.Get(target)
	members.Add(id)
	m.owners[id] = target
}

// merge moves every node of src into dst.
func (m *memoryManager) merge(dst, src GraphID) {
	from, ok := m.graphs.Get(src)
	if !ok {
		return
	}
	into, _ := m.graphs.Get(dst)
	for _, id := range from.Values() {
		into.Add(id)
		m.owners[id] = dst
	}
	m.graphs.Delete(src)
}

// markUseful returns every referenced node and all of its tracked ancestors.
func (m *memoryManager) markUseful() *hashset.Set[graph.NodeID] {
	useful := hashset.New[graph.NodeID]()
	queue := linkedlistqueue.New[graph.NodeID]()
	for id, rc := range m.nodes {
		if rc.IsReferenced() {
			useful.Add(id)
			queue.Enqueue(id)
		}
	}

	for !queue.Empty() {
		id, _ := queue.Dequeue()
		for _, p := range m.parents[id] {
			if _, ok := m.nodes[p]; !ok || useful.Contains(p) {
				continue
			}
			useful.Add(p)
			queue.Enqueue(p)
		}
	}
	return useful
}

// findOrphanGraphs returns the graphs holding only nodes that no live tensor
// can reach. The unreachable part of a graph that still has useful nodes is
// split off into a graph of its own first, so freeing it leaves the useful
// nodes alone.
func (m *memoryManager) findOrphanGraphs() []GraphID {
	useful := m.markUseful()

	var orphans, partial []GraphID
	for pair := m.graphs.Oldest(); pair != nil; pair = pair.Next() {
		dead := 0
		for _, id := range pair.Value.Values() {
			if !useful.Contains(id) {
				dead++
			}
		}
		switch dead {
		case 0:
		case pair.Value.Size():
			orphans = append(orphans, pair.Key)
		default:
			partial = append(partial, pair.Key)
		}
	}

	for _, gid := range partial {
		orphans = append(orphans, m.carve(gid, useful))
	}
	return orphans
}

// carve moves the nodes of gid missing from useful into a new graph and
// returns its id. The useful rest of gid is regrouped by connectivity.
func (m *memoryManager) carve(gid GraphID, useful *hashset.Set[graph.NodeID]) GraphID {
	members, _ := m.graphs.Get(gid)
	orphan := uuid.New()
	dead := hashset.New[graph.NodeID]()
	for _, id := range members.Values() {
		if useful.Contains(id) {
			continue
		}
		members.Remove(id)
		dead.Add(id)
		m.owners[id] = orphan
	}
	m.graphs.Set(orphan, dead)
	m.regroup(gid)
	return orphan
}

// regroup splits gid into its connected components after nodes left it.
// The first component keeps gid; an empty graph is dropped.
func (m *memoryManager) regroup(gid GraphID) {
	members, ok := m.graphs.Get(gid)
	if !ok {
		return
	}
	if members.Empty() {
		m.graphs.Delete(gid)
		return
	}

	adjacent := make(map[graph.NodeID][]graph.NodeID, members.Size())
	for _, id := range members.Values() {
		for _, p := range m.parents[id] {
			if members.Contains(p) {
				adjacent[id] = append(adjacent[id], p)
				adjacent[p] = append(adjacent[p], id)
			}
		}
	}

	seen := hashset.New[graph.NodeID]()
	first := true
	for _, start := range members.Values() {
		if seen.Contains(start) {
			continue
		}
		component := reach(start, adjacent, seen)
		if first {
			first = false
			continue
		}

		part := uuid.New()
		m.graphs.Set(part, hashset.New(component...))
		for _, id := range component {
			members.Remove(id)
			m.owners[id] = part
		}
	}
}

// reach returns the nodes connected to start, marking them in seen.
func reach(start graph.NodeID, adjacent map[graph.NodeID][]graph.NodeID, seen *hashset.Set[graph.NodeID]) []graph.NodeID {
	component := []graph.NodeID{start}
	seen.Add(start)
	queue := linkedlistqueue.New[graph.NodeID]()
	queue.Enqueue(start)
	for !queue.Empty() {
		id, _ := queue.Dequeue()
		for _, next := range adjacent[id] {
			if seen.Contains(next) {
				continue
			}
			seen.Add(next)
			component = append(component, next)
			queue.Enqueue(next)
		}
	}
	return component
}

// freeGraph calls onFree for every node of gid and forgets the graph.
// It returns the number of nodes freed.
func (m *memoryManager) freeGraph(gid GraphID, onFree func(graph.NodeID)) int {
	members, ok := m.graphs.Get(gid)
	if !ok {
		return 0
	}

	for _, id := range members.Values() {
		onFree(id)
		m.drop(id)
	}
	m.graphs.Delete(gid)
	return members.Size()
}

// forget drops the bookkeeping of nodes whose steps a backward pass consumed.
// Nothing can backpropagate through them again, so they never keep an
// ancestor alive.
func (m *memoryManager) forget(ids []graph.NodeID) {
	touched := hashset.New[GraphID]()
	for _, id := range ids {
		gid, ok := m.owners[id]
		if !ok {
			continue
		}
		if members, ok := m.graphs.Get(gid); ok {
			members.Remove(id)
		}
		touched.Add(gid)
		m.drop(id)
	}
	for _, gid := range touched.Values() {
		m.regroup(gid)
	}
}

func (m *memoryManager) drop(id graph.NodeID) {
	delete(m.owners, id)
	delete(m.nodes, id)
	delete(m.parents, id)
}

func (m *memoryManager) numGraphs() int {
	return m.graphs.Len()
}

func (m *memoryManager) numNodes() int {
	return len(m.nodes)
}

func (m *memoryManager) graphOf(id graph.NodeID) (GraphID, bool) {
	gid, ok := m.owners[id]
	return gid, ok
}
