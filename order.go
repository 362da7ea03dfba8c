package pipeline

// ExecutionOrder returns node IDs in a topological order consistent with edge
// direction (Kahn's algorithm). Ties break by node insertion order so the
// result is deterministic. If the graph contains a cycle the cyclic nodes are
// omitted: callers must not assume len(order) == len(nodes).
func ExecutionOrder(nodes []Node, edges []Edge) []string {
	adj := buildAdjacency(edges)

	indegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indegree[n.ID] = len(adj.in[n.ID])
	}

	var queue []string
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range adj.out[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return order
}
