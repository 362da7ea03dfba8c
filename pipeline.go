// Package pipeline implements the workflow graph core of the no-code ML
// pipeline builder: the mutable graph of typed nodes and directed edges, the
// structural validation engine, the topological execution order, and the
// bounded undo/redo history over graph edits.
package pipeline

// NodeType tags a node with the kind of pipeline work it performs.
// The set is closed; the trainer wire layer translates these UI-facing names
// into the training service vocabulary.
type NodeType string

const (
	NodeDataset            NodeType = "dataset"
	NodeSplit              NodeType = "trainTestSplit"
	NodePreprocessing      NodeType = "preprocessing"
	NodeFeatureEngineering NodeType = "featureEngineering"
	NodeModel              NodeType = "model"
	NodeEnsemble           NodeType = "ensemble"
	NodeEvaluate           NodeType = "evaluate"
	NodeVisualize          NodeType = "visualize"
	NodeSave               NodeType = "save"
)

// Config is a node's type-specific configuration record.
type Config map[string]any

// Clone returns a deep copy of the config. Nested maps and slices are copied
// so a snapshot never aliases live builder state.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Position is a node's 2D canvas location. It has no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a unit of pipeline work.
// Ref is a temporary key used only during CreatePipeline for edge wiring — it
// is never persisted.
type Node struct {
	ID       string   `json:"id,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Type     NodeType `json:"type" validate:"required"`
	Config   Config   `json:"config"`
	Position Position `json:"position"`
}

// Edge represents a directed connection from one node's output to another
// node's input. SourceHandle/TargetHandle discriminate ports on nodes with
// multiple inputs or outputs.
// SourceRef / TargetRef are temporary keys used only during CreatePipeline —
// they are never persisted.
type Edge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source,omitempty"`
	Target       string `json:"target,omitempty"`
	SourceRef    string `json:"source_ref,omitempty"`
	TargetRef    string `json:"target_ref,omitempty"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// Graph is the persistent portion of a workflow: nodes, edges, and a display
// name. Transient selection and execution state never appear here, which is
// what makes Graph the unit of history snapshots and persistence.
type Graph struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" validate:"dive"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{ID: g.ID, Name: g.Name}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			n.Config = n.Config.Clone()
			out.Nodes[i] = n
		}
	}
	if g.Edges != nil {
		out.Edges = make([]Edge, len(g.Edges))
		copy(out.Edges, g.Edges)
	}
	return out
}

// Equal reports structural equality of the persistent fields: name, nodes
// (id, type, config, position) and edges, in order. The graph ID is ignored
// so two snapshots of the same pipeline compare by content alone.
func (g Graph) Equal(other Graph) bool {
	if g.Name != other.Name || len(g.Nodes) != len(other.Nodes) || len(g.Edges) != len(other.Edges) {
		return false
	}
	for i, n := range g.Nodes {
		o := other.Nodes[i]
		if n.ID != o.ID || n.Type != o.Type || n.Position != o.Position {
			return false
		}
		if !equalConfig(n.Config, o.Config) {
			return false
		}
	}
	for i, e := range g.Edges {
		if e != other.Edges[i] {
			return false
		}
	}
	return true
}

func equalConfig(a, b Config) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !equalValue(av, bv) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !equalValue(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equalValue(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
