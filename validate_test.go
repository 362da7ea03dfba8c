package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configuredDataset(id string) Node {
	return Node{ID: id, Type: NodeDataset, Config: Config{
		"datasetId":    "iris.csv",
		"targetColumn": "species",
	}}
}

func TestValidateEmptyGraph(t *testing.T) {
	r := Validate(nil, nil)

	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "workflow is empty", r.Errors[0].Message)
	assert.Empty(t, r.Warnings)
}

func TestValidateDatasetRules(t *testing.T) {
	t.Run("missing dataset node is fatal", func(t *testing.T) {
		nodes := []Node{{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}}}

		r := Validate(nodes, nil)

		assert.False(t, r.Valid())
		assert.Contains(t, messages(r.Errors), "workflow must include a Dataset node")
	})

	t.Run("unselected dataset is an error", func(t *testing.T) {
		nodes := []Node{{ID: "d", Type: NodeDataset, Config: Config{}}}

		r := Validate(nodes, nil)

		assert.Contains(t, messages(r.Errors), "no dataset selected")
	})

	t.Run("missing target column warns only when a model exists", func(t *testing.T) {
		ds := Node{ID: "d", Type: NodeDataset, Config: Config{"datasetId": "iris.csv"}}

		r := Validate([]Node{ds}, nil)
		assert.Empty(t, r.Warnings)

		md := Node{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}}
		edges := []Edge{{ID: "e", Source: "d", Target: "m"}}
		r = Validate([]Node{ds, md}, edges)
		assert.Contains(t, messages(r.Warnings), "no target column selected")
	})
}

func TestValidateModelRules(t *testing.T) {
	t.Run("configured dataset into configured model is valid", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}},
		}
		edges := []Edge{{ID: "e", Source: "d", Target: "m"}}

		r := Validate(nodes, edges)

		assert.True(t, r.Valid())
		assert.Empty(t, r.Errors)
	})

	t.Run("missing algorithm is fatal", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "m", Type: NodeModel, Config: Config{}},
		}
		edges := []Edge{{ID: "e", Source: "d", Target: "m"}}

		r := Validate(nodes, edges)

		assert.Contains(t, messages(r.Errors), "no algorithm selected")
	})

	t.Run("dataset reachable through a multi-hop chain", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "p", Type: NodePreprocessing},
			{ID: "f", Type: NodeFeatureEngineering},
			{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}},
		}
		edges := []Edge{
			{ID: "e1", Source: "d", Target: "p"},
			{ID: "e2", Source: "p", Target: "f"},
			{ID: "e3", Source: "f", Target: "m"},
		}

		r := Validate(nodes, edges)

		assert.True(t, r.Valid())
	})

	t.Run("model without upstream dataset is fatal", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}},
		}

		r := Validate(nodes, nil)

		assert.Contains(t, messages(r.Errors), "must be connected after a Dataset node")
	})
}

func TestValidateConsumerRules(t *testing.T) {
	t.Run("lone evaluate node", func(t *testing.T) {
		nodes := []Node{{ID: "e", Type: NodeEvaluate}}

		r := Validate(nodes, nil)

		assert.False(t, r.Valid())
		assert.Contains(t, messages(r.Errors), "must be connected after a Model node")
	})

	t.Run("visualize accepts either model or evaluate upstream", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}},
			{ID: "v", Type: NodeVisualize},
		}
		edges := []Edge{
			{ID: "e1", Source: "d", Target: "m"},
			{ID: "e2", Source: "m", Target: "v"},
		}

		r := Validate(nodes, edges)
		assert.True(t, r.Valid())

		r = Validate(nodes, edges[:1])
		assert.Contains(t, messages(r.Errors), "must be connected after a Model or Evaluate node")
	})
}

func TestValidateIsolatedNodes(t *testing.T) {
	t.Run("single node never warns isolated", func(t *testing.T) {
		r := Validate([]Node{configuredDataset("d")}, nil)

		assert.NotContains(t, messages(r.Warnings), "node is not connected to the workflow")
	})

	t.Run("disconnected node warns when graph has more than one node", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("d"),
			{ID: "m", Type: NodeModel, Config: Config{"algorithm": "svm"}},
			{ID: "s", Type: NodeSave},
		}
		edges := []Edge{{ID: "e", Source: "d", Target: "m"}}

		r := Validate(nodes, edges)

		warned := false
		for _, w := range r.Warnings {
			if w.NodeID == "s" {
				warned = true
			}
		}
		assert.True(t, warned)
		assert.True(t, r.Valid(), "isolated node is a warning, not an error")
	})
}

func TestValidateCycles(t *testing.T) {
	t.Run("three node cycle is fatal", func(t *testing.T) {
		nodes := []Node{
			configuredDataset("a"),
			{ID: "b", Type: NodePreprocessing},
			{ID: "c", Type: NodeFeatureEngineering},
		}
		edges := []Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
			{ID: "e3", Source: "c", Target: "a"},
		}

		r := Validate(nodes, edges)

		assert.False(t, r.Valid())
		assert.Contains(t, messages(r.Errors), "workflow contains a circular dependency")
		assert.Less(t, len(ExecutionOrder(nodes, edges)), 3)
	})

	t.Run("order length below node count implies a cycle error", func(t *testing.T) {
		// Randomized-ish sweep over small graphs: whenever the resolver
		// can't place every node, validation must flag a cycle, and the
		// other way round.
		for i := 0; i < 6; i++ {
			nodes := []Node{configuredDataset("n0")}
			var edges []Edge
			for j := 1; j <= i; j++ {
				nodes = append(nodes, Node{ID: fmt.Sprintf("n%d", j), Type: NodePreprocessing})
				edges = append(edges, Edge{
					ID:     fmt.Sprintf("e%d", j),
					Source: fmt.Sprintf("n%d", j-1),
					Target: fmt.Sprintf("n%d", j),
				})
			}
			if i%2 == 1 {
				// Close the chain into a ring.
				edges = append(edges, Edge{ID: "back", Source: fmt.Sprintf("n%d", i), Target: "n0"})
			}

			order := ExecutionOrder(nodes, edges)
			r := Validate(nodes, edges)
			hasCycleErr := false
			for _, e := range r.Errors {
				if e.Message == "workflow contains a circular dependency" {
					hasCycleErr = true
				}
			}
			assert.Equal(t, len(order) < len(nodes), hasCycleErr, "nodes=%d", len(nodes))
		}
	})
}

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}
