// Package trainer is the client for the remote training service: the wire
// format a graph is submitted in, and the HTTP endpoints for submitting,
// polling, and cancelling jobs.
package trainer

import "github.com/nocodeml/pipeline"

// WireNode is a node as the training service expects it: service-vocabulary
// type name and snake_case configuration keys.
type WireNode struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Config   map[string]any    `json:"config"`
	Position pipeline.Position `json:"position"`
}

// WireEdge mirrors pipeline.Edge on the wire.
type WireEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// GraphPayload is the submission body for the execute and validate endpoints.
type GraphPayload struct {
	Nodes []WireNode `json:"nodes"`
	Edges []WireEdge `json:"edges"`
}

// wireTypes maps internal UI node type names to the service vocabulary.
// Types absent here are sent unchanged.
var wireTypes = map[pipeline.NodeType]string{
	pipeline.NodeSplit:              "split",
	pipeline.NodeFeatureEngineering: "feature_engineering",
}

// wireKeys holds the per-node-type configuration key renames (camelCase →
// snake_case). All renames live in this one table: adding a configuration
// field means adding one row here, nowhere else.
var wireKeys = map[pipeline.NodeType]map[string]string{
	pipeline.NodeDataset: {
		"datasetId":    "dataset_id",
		"targetColumn": "target_column",
		"problemType":  "problem_type",
		"rowCount":     "row_count",
	},
	pipeline.NodeSplit: {
		"datasetId":    "dataset_id",
		"targetColumn": "target_column",
		"problemType":  "problem_type",
		"rowCount":     "row_count",
		"testSize":     "test_size",
		"randomState":  "random_state",
		"stratify":     "stratify",
	},
	pipeline.NodeEvaluate: {
		"cvFolds":     "cv_folds",
		"metricNames": "metrics",
	},
	pipeline.NodeVisualize: {
		"plotTypes": "plot_types",
	},
}

// EncodeGraph converts a graph into the wire format. Split sizes entered as
// percentages become fractional decimals; configuration keys without a rename
// pass through untouched.
func EncodeGraph(nodes []pipeline.Node, edges []pipeline.Edge) GraphPayload {
	p := GraphPayload{
		Nodes: make([]WireNode, 0, len(nodes)),
		Edges: make([]WireEdge, 0, len(edges)),
	}

	for _, n := range nodes {
		p.Nodes = append(p.Nodes, WireNode{
			ID:       n.ID,
			Type:     wireType(n.Type),
			Config:   encodeConfig(n.Type, n.Config),
			Position: n.Position,
		})
	}

	for _, e := range edges {
		p.Edges = append(p.Edges, WireEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}

	return p
}

func wireType(t pipeline.NodeType) string {
	if s, ok := wireTypes[t]; ok {
		return s
	}
	return string(t)
}

func encodeConfig(t pipeline.NodeType, cfg pipeline.Config) map[string]any {
	out := make(map[string]any, len(cfg))
	renames := wireKeys[t]
	for k, v := range cfg {
		if t == pipeline.NodeSplit && k == "testSize" {
			v = toFraction(v)
		}
		if name, ok := renames[k]; ok {
			k = name
		}
		out[k] = v
	}
	return out
}

// toFraction turns a percentage split size into a fraction. Values already
// in (0, 1] are assumed fractional and pass through.
func toFraction(v any) any {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	default:
		return v
	}
	if f > 1 {
		f /= 100
	}
	return f
}
