package pipeline

// Severity classifies a validation issue. Errors block execution; warnings
// never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one structural problem found in the graph. NodeID is empty for
// whole-graph issues such as an empty workflow or a cycle.
type Issue struct {
	NodeID   string   `json:"node_id,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report is the full result of a validation pass.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether the graph may be submitted for execution. Warnings
// never block.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(nodeID, msg string) {
	r.Errors = append(r.Errors, Issue{NodeID: nodeID, Severity: SeverityError, Message: msg})
}

func (r *Report) warnf(nodeID, msg string) {
	r.Warnings = append(r.Warnings, Issue{NodeID: nodeID, Severity: SeverityWarning, Message: msg})
}

// Validate classifies the structural problems of a graph. It is a pure
// function of (nodes, edges), never panics, and runs in near-linear time:
// per-node reachability is a bounded walk from that node, and the cycle check
// is a single DFS shared across the whole node set.
func Validate(nodes []Node, edges []Edge) Report {
	var r Report
	r.Errors = []Issue{}
	r.Warnings = []Issue{}

	if len(nodes) == 0 {
		r.errorf("", "workflow is empty")
		return r
	}

	byType := make(map[NodeType][]Node)
	for _, n := range nodes {
		byType[n.Type] = append(byType[n.Type], n)
	}

	if len(byType[NodeDataset]) == 0 {
		r.errorf("", "workflow must include a Dataset node")
	}

	adj := buildAdjacency(edges)
	types := make(map[string]NodeType, len(nodes))
	for _, n := range nodes {
		types[n.ID] = n.Type
	}
	hasModel := len(byType[NodeModel]) > 0

	for _, n := range nodes {
		switch n.Type {
		case NodeDataset:
			if isEmpty(n.Config["datasetId"]) {
				r.errorf(n.ID, "no dataset selected")
			} else if hasModel && isEmpty(n.Config["targetColumn"]) {
				r.warnf(n.ID, "no target column selected")
			}
		case NodeModel:
			if isEmpty(n.Config["algorithm"]) {
				r.errorf(n.ID, "no algorithm selected")
			}
			if !reachesType(adj.upstream(n.ID), types, NodeDataset) {
				r.errorf(n.ID, "must be connected after a Dataset node")
			}
		case NodeEvaluate:
			if !reachesType(adj.upstream(n.ID), types, NodeModel) {
				r.errorf(n.ID, "must be connected after a Model node")
			}
		case NodeVisualize:
			up := adj.upstream(n.ID)
			if !reachesType(up, types, NodeModel) && !reachesType(up, types, NodeEvaluate) {
				r.errorf(n.ID, "must be connected after a Model or Evaluate node")
			}
		}

		if len(nodes) > 1 && len(adj.in[n.ID]) == 0 && len(adj.out[n.ID]) == 0 {
			r.warnf(n.ID, "node is not connected to the workflow")
		}
	}

	if adj.hasCycle(nodes) {
		r.errorf("", "workflow contains a circular dependency")
	}

	return r
}

// reachesType reports whether any node in the reachable set has the wanted
// type.
func reachesType(reach map[string]bool, types map[string]NodeType, want NodeType) bool {
	for id := range reach {
		if types[id] == want {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
