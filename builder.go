package pipeline

import "github.com/google/uuid"

// Propagation copies dataset-derived fields into directly connected
// downstream nodes so split/preprocessing/feature/model configuration forms
// never start blank. Propagation is shallow and edge-triggered: the graph is
// tens of nodes at most, and a full dataflow re-evaluation on every keystroke
// buys nothing at that scale.
var propagatedKeys = []string{"datasetId", "targetColumn", "problemType", "rowCount"}

var propagationTargets = map[NodeType]bool{
	NodeSplit:              true,
	NodePreprocessing:      true,
	NodeFeatureEngineering: true,
	NodeModel:              true,
}

// Builder is the single source of truth for the graph being edited: nodes,
// edges, display name, and the current selection. Every mutation goes through
// one of its methods; IDs are generated per instance so multiple builders can
// coexist (one per open editor, one per test).
type Builder struct {
	name     string
	nodes    []Node
	edges    []Edge
	selected string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddNode creates a node of the given type and returns its generated ID.
// It never fails and touches no other node.
func (b *Builder) AddNode(t NodeType, cfg Config, pos Position) string {
	n := Node{
		ID:       uuid.NewString(),
		Type:     t,
		Config:   cfg.Clone(),
		Position: pos,
	}
	if n.Config == nil {
		n.Config = Config{}
	}
	b.nodes = append(b.nodes, n)
	return n.ID
}

// RemoveNode deletes the node and every edge where it is source or target.
// If the removed node was selected, the selection is cleared.
func (b *Builder) RemoveNode(id string) {
	kept := b.nodes[:0]
	found := false
	for _, n := range b.nodes {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	b.nodes = kept
	if !found {
		return
	}

	edges := b.edges[:0]
	for _, e := range b.edges {
		if e.Source == id || e.Target == id {
			continue
		}
		edges = append(edges, e)
	}
	b.edges = edges

	if b.selected == id {
		b.selected = ""
	}
}

// Connect creates a directed edge from source to target and returns its ID.
// If either endpoint is missing the call is a silent no-op returning "" —
// the diagram UI is expected to only offer valid endpoints, this is the
// backstop. On success one hop of forward configuration propagation runs.
func (b *Builder) Connect(source, target, sourceHandle, targetHandle string) string {
	src := b.node(source)
	dst := b.node(target)
	if src == nil || dst == nil {
		return ""
	}

	e := Edge{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
	b.edges = append(b.edges, e)
	b.propagate(src, dst)
	return e.ID
}

// RemoveEdge deletes an edge by ID. No-op if the edge doesn't exist.
func (b *Builder) RemoveEdge(id string) {
	kept := b.edges[:0]
	for _, e := range b.edges {
		if e.ID == id {
			continue
		}
		kept = append(kept, e)
	}
	b.edges = kept
}

// UpdateConfig merges the partial record into the node's configuration
// (shallow merge at the top level). Dataset nodes re-propagate to their
// directly downstream eligible neighbors; deeper nodes rely on the values
// captured when their own incoming edge was created.
func (b *Builder) UpdateConfig(id string, partial Config) {
	n := b.node(id)
	if n == nil {
		return
	}
	if n.Config == nil {
		n.Config = Config{}
	}
	for k, v := range partial {
		n.Config[k] = cloneValue(v)
	}

	if n.Type != NodeDataset {
		return
	}
	for _, e := range b.edges {
		if e.Source != id {
			continue
		}
		if dst := b.node(e.Target); dst != nil {
			b.propagate(n, dst)
		}
	}
}

// propagate copies the dataset-derived keys from src into dst if src carries
// dataset provenance and dst is a propagation-eligible type. Only the
// propagated keys are overwritten.
func (b *Builder) propagate(src, dst *Node) {
	if !propagationTargets[dst.Type] {
		return
	}
	if src.Type != NodeDataset && src.Config["datasetId"] == nil {
		return
	}
	if dst.Config == nil {
		dst.Config = Config{}
	}
	for _, k := range propagatedKeys {
		if v, ok := src.Config[k]; ok {
			dst.Config[k] = cloneValue(v)
		}
	}
}

// Clear empties nodes and edges and resets the selection.
func (b *Builder) Clear() {
	b.nodes = nil
	b.edges = nil
	b.selected = ""
}

// Select marks a node as selected; an unknown ID clears the selection.
func (b *Builder) Select(id string) {
	if b.node(id) == nil {
		b.selected = ""
		return
	}
	b.selected = id
}

// Selected returns the selected node ID, or "" if nothing is selected.
func (b *Builder) Selected() string { return b.selected }

// SetName sets the pipeline display name.
func (b *Builder) SetName(name string) { b.name = name }

// Name returns the pipeline display name.
func (b *Builder) Name() string { return b.name }

// Node returns a copy of the node, or nil if it doesn't exist.
func (b *Builder) Node(id string) *Node {
	n := b.node(id)
	if n == nil {
		return nil
	}
	out := *n
	out.Config = n.Config.Clone()
	return &out
}

// Nodes returns a copy of all nodes in insertion order.
func (b *Builder) Nodes() []Node {
	out := make([]Node, len(b.nodes))
	for i, n := range b.nodes {
		n.Config = n.Config.Clone()
		out[i] = n
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (b *Builder) Edges() []Edge {
	return append([]Edge(nil), b.edges...)
}

// Graph snapshots the persistent fields (nodes, edges, name). Selection and
// execution state are deliberately excluded; this is the value history and
// persistence work with.
func (b *Builder) Graph() Graph {
	return Graph{
		Name:  b.name,
		Nodes: b.Nodes(),
		Edges: b.Edges(),
	}
}

// Restore replaces the builder's persistent state with the snapshot. The
// selection is cleared if the selected node no longer exists.
func (b *Builder) Restore(g Graph) {
	g = g.Clone()
	b.name = g.Name
	b.nodes = g.Nodes
	b.edges = g.Edges
	if b.selected != "" && b.node(b.selected) == nil {
		b.selected = ""
	}
}

// Validate runs the validation engine on the current graph.
func (b *Builder) Validate() Report {
	return Validate(b.nodes, b.edges)
}

func (b *Builder) node(id string) *Node {
	for i := range b.nodes {
		if b.nodes[i].ID == id {
			return &b.nodes[i]
		}
	}
	return nil
}
