package pipeline

// adjacency is a forward/reverse edge view built once per validation or
// ordering pass. All reachability and cycle checks in this package go through
// it so every caller walks the graph the same way.
type adjacency struct {
	out map[string][]string
	in  map[string][]string
}

func buildAdjacency(edges []Edge) *adjacency {
	a := &adjacency{
		out: make(map[string][]string),
		in:  make(map[string][]string),
	}
	for _, e := range edges {
		a.out[e.Source] = append(a.out[e.Source], e.Target)
		a.in[e.Target] = append(a.in[e.Target], e.Source)
	}
	return a
}

// upstream returns the set of node IDs reachable by walking edges backwards
// from start. The start node itself is not included.
func (a *adjacency) upstream(start string) map[string]bool {
	return a.walk(start, a.in)
}

// downstream returns the set of node IDs reachable by walking edges forwards
// from start. The start node itself is not included.
func (a *adjacency) downstream(start string) map[string]bool {
	return a.walk(start, a.out)
}

func (a *adjacency) walk(start string, next map[string][]string) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), next[start]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, next[id]...)
	}
	return seen
}

// hasCycle runs a single three-color DFS over the whole node set and reports
// whether any edge closes a cycle.
func (a *adjacency) hasCycle(nodes []Node) bool {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(nodes))
	for _, n := range nodes {
		state[n.ID] = unvisited
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range a.out[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited {
			if dfs(n.ID) {
				return true
			}
		}
	}
	return false
}

// CheckAcyclic returns ErrCycleDetected if the edges form a cycle. Nodes
// referenced only by edges are still considered, so a partially specified
// graph cannot hide a cycle.
func CheckAcyclic(nodes []Node, edges []Edge) error {
	all := append([]Node(nil), nodes...)
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	for _, e := range edges {
		if !known[e.Source] {
			known[e.Source] = true
			all = append(all, Node{ID: e.Source})
		}
		if !known[e.Target] {
			known[e.Target] = true
			all = append(all, Node{ID: e.Target})
		}
	}

	if buildAdjacency(edges).hasCycle(all) {
		return ErrCycleDetected
	}
	return nil
}
