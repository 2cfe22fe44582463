package services

import "math"

// WeightedEdge is a directed, weighted edge as seen by graph analytics;
// analytics operates on this minimal shape rather than entities.Edge so
// it has no dependency on the domain entity package.
type WeightedEdge struct {
	Source int64
	Target int64
	Weight float64
}

// AdjacencyList groups edges by source, the shape the graph cache
// exposes to maintenance.
type AdjacencyList map[int64][]WeightedEdge

// PageRank computes PageRank scores over ids using forward adjacency,
// grounded on straga-Mimir_lite/nornicdb's apoc/algo.PageRank (power
// iteration with uniform restart), generalized from that function's
// unweighted sum to weighted out-edges (matching §4.9 step 5: "using
// edge weights").
func PageRank(ids []int64, adj AdjacencyList, iterations int, damping float64) map[int64]float64 {
	n := len(ids)
	if n == 0 {
		return map[int64]float64{}
	}

	outWeight := make(map[int64]float64, n)
	for _, id := range ids {
		var total float64
		for _, e := range adj[id] {
			total += e.Weight
		}
		outWeight[id] = total
	}

	scores := make(map[int64]float64, n)
	for _, id := range ids {
		scores[id] = 1.0 / float64(n)
	}

	reverse := buildReverse(ids, adj)

	for iter := 0; iter < iterations; iter++ {
		next := make(map[int64]float64, n)
		base := (1 - damping) / float64(n)
		for _, id := range ids {
			sum := 0.0
			for _, in := range reverse[id] {
				if outWeight[in.Source] > 0 {
					sum += scores[in.Source] * (in.Weight / outWeight[in.Source])
				}
			}
			next[id] = base + damping*sum
		}
		scores = next
	}
	return scores
}

func buildReverse(ids []int64, adj AdjacencyList) AdjacencyList {
	reverse := make(AdjacencyList, len(ids))
	for _, id := range ids {
		for _, e := range adj[id] {
			reverse[e.Target] = append(reverse[e.Target], WeightedEdge{Source: id, Target: e.Target, Weight: e.Weight})
		}
	}
	return reverse
}

// BFSPath finds the shortest unweighted path from source to target,
// grounded on straga-Mimir_lite/nornicdb's apoc/algo.BetweennessCentrality
// BFS frontier-expansion loop. Returns nil if no path exists.
func BFSPath(source, target int64, adj AdjacencyList) []int64 {
	if source == target {
		return []int64{source}
	}
	visited := map[int64]bool{source: true}
	parent := map[int64]int64{}
	queue := []int64{source}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range adj[cur] {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			parent[e.Target] = cur
			if e.Target == target {
				return reconstructPath(parent, source, target)
			}
			queue = append(queue, e.Target)
		}
	}
	return nil
}

func reconstructPath(parent map[int64]int64, source, target int64) []int64 {
	path := []int64{target}
	cur := target
	for cur != source {
		cur = parent[cur]
		path = append([]int64{cur}, path...)
	}
	return path
}

// DetectCommunities assigns each id a community index. Communities start
// as the connected components of the undirected graph, then a local-move
// pass scores each node's neighbouring communities by modularity gain.
// Every neighbour already shares the node's component, so the pass never
// moves a node: the result is the connected-component partition, and a
// component is never split into smaller communities. It is not the
// Louvain algorithm.
func DetectCommunities(ids []int64, adj AdjacencyList) map[int64]int {
	undirected := toUndirected(ids, adj)
	communities := connectedComponents(ids, undirected)

	totalWeight := totalEdgeWeight(undirected)
	if totalWeight == 0 {
		return communities
	}

	degree := make(map[int64]float64, len(ids))
	for _, id := range ids {
		for _, e := range undirected[id] {
			degree[id] += e.Weight
		}
	}

	improved := true
	for improved {
		improved = false
		for _, id := range ids {
			best := communities[id]
			bestGain := 0.0
			neighborCommunities := map[int]bool{communities[id]: true}
			for _, e := range undirected[id] {
				neighborCommunities[communities[e.Target]] = true
			}
			for c := range neighborCommunities {
				gain := modularityGain(id, c, communities, undirected, degree, totalWeight)
				if gain > bestGain {
					bestGain = gain
					best = c
				}
			}
			if best != communities[id] {
				communities[id] = best
				improved = true
			}
		}
	}
	return renumberCommunities(ids, communities)
}

func modularityGain(id int64, targetCommunity int, communities map[int64]int, adj AdjacencyList, degree map[int64]float64, totalWeight float64) float64 {
	var internalWeight, communityDegree float64
	for otherID, c := range communities {
		if c != targetCommunity || otherID == id {
			continue
		}
		communityDegree += degree[otherID]
	}
	for _, e := range adj[id] {
		if communities[e.Target] == targetCommunity {
			internalWeight += e.Weight
		}
	}
	return internalWeight/totalWeight - (degree[id]*communityDegree)/(2*totalWeight*totalWeight)
}

func toUndirected(ids []int64, adj AdjacencyList) AdjacencyList {
	out := make(AdjacencyList, len(ids))
	for _, id := range ids {
		for _, e := range adj[id] {
			out[id] = append(out[id], e)
			out[e.Target] = append(out[e.Target], WeightedEdge{Source: e.Target, Target: id, Weight: e.Weight})
		}
	}
	return out
}

func connectedComponents(ids []int64, adj AdjacencyList) map[int64]int {
	assigned := make(map[int64]int, len(ids))
	next := 0
	for _, start := range ids {
		if _, ok := assigned[start]; ok {
			continue
		}
		stack := []int64{start}
		assigned[start] = next
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range adj[cur] {
				if _, ok := assigned[e.Target]; !ok {
					assigned[e.Target] = next
					stack = append(stack, e.Target)
				}
			}
		}
		next++
	}
	return assigned
}

func totalEdgeWeight(adj AdjacencyList) float64 {
	var total float64
	for _, edges := range adj {
		for _, e := range edges {
			total += e.Weight
		}
	}
	return total / 2 // undirected double-counts each edge
}

func renumberCommunities(ids []int64, communities map[int64]int) map[int64]int {
	remap := map[int]int{}
	next := 0
	out := make(map[int64]int, len(ids))
	for _, id := range ids {
		c := communities[id]
		if _, ok := remap[c]; !ok {
			remap[c] = next
			next++
		}
		out[id] = remap[c]
	}
	return out
}

// TopByPageRank returns the id with the highest PageRank score among
// ids, used for the deep-sleep cluster-summary step (§4.9: "top node by
// PageRank per community as label").
func TopByPageRank(ids []int64, scores map[int64]float64) (int64, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	best := ids[0]
	bestScore := math.Inf(-1)
	for _, id := range ids {
		if s := scores[id]; s > bestScore {
			bestScore = s
			best = id
		}
	}
	return best, true
}
