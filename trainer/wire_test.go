package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocodeml/pipeline"
)

func TestEncodeGraphTypes(t *testing.T) {
	nodes := []pipeline.Node{
		{ID: "d", Type: pipeline.NodeDataset},
		{ID: "s", Type: pipeline.NodeSplit},
		{ID: "f", Type: pipeline.NodeFeatureEngineering},
		{ID: "m", Type: pipeline.NodeModel},
	}

	p := EncodeGraph(nodes, nil)

	require.Len(t, p.Nodes, 4)
	assert.Equal(t, "dataset", p.Nodes[0].Type)
	assert.Equal(t, "split", p.Nodes[1].Type)
	assert.Equal(t, "feature_engineering", p.Nodes[2].Type)
	assert.Equal(t, "model", p.Nodes[3].Type)
}

func TestEncodeGraphConfigKeys(t *testing.T) {
	t.Run("dataset keys become snake_case", func(t *testing.T) {
		nodes := []pipeline.Node{{
			ID:   "d",
			Type: pipeline.NodeDataset,
			Config: pipeline.Config{
				"datasetId":    "iris.csv",
				"targetColumn": "species",
				"problemType":  "classification",
				"rowCount":     150,
			},
		}}

		cfg := EncodeGraph(nodes, nil).Nodes[0].Config

		assert.Equal(t, "iris.csv", cfg["dataset_id"])
		assert.Equal(t, "species", cfg["target_column"])
		assert.Equal(t, "classification", cfg["problem_type"])
		assert.Equal(t, 150, cfg["row_count"])
		assert.NotContains(t, cfg, "datasetId")
	})

	t.Run("unmapped keys pass through untouched", func(t *testing.T) {
		nodes := []pipeline.Node{{
			ID:     "m",
			Type:   pipeline.NodeModel,
			Config: pipeline.Config{"algorithm": "svm", "maxDepth": 3},
		}}

		cfg := EncodeGraph(nodes, nil).Nodes[0].Config

		assert.Equal(t, "svm", cfg["algorithm"])
		assert.Equal(t, 3, cfg["maxDepth"])
	})
}

func TestEncodeGraphSplitSize(t *testing.T) {
	t.Run("percentage becomes fraction", func(t *testing.T) {
		nodes := []pipeline.Node{{
			ID:     "s",
			Type:   pipeline.NodeSplit,
			Config: pipeline.Config{"testSize": 20},
		}}

		cfg := EncodeGraph(nodes, nil).Nodes[0].Config

		assert.Equal(t, 0.2, cfg["test_size"])
	})

	t.Run("fraction passes through", func(t *testing.T) {
		nodes := []pipeline.Node{{
			ID:     "s",
			Type:   pipeline.NodeSplit,
			Config: pipeline.Config{"testSize": 0.25},
		}}

		assert.Equal(t, 0.25, EncodeGraph(nodes, nil).Nodes[0].Config["test_size"])
	})
}

func TestEncodeGraphEdges(t *testing.T) {
	edges := []pipeline.Edge{{
		ID:           "e1",
		Source:       "a",
		Target:       "b",
		SourceHandle: "out",
		TargetHandle: "in",
	}}

	p := EncodeGraph(nil, edges)

	require.Len(t, p.Edges, 1)
	assert.Equal(t, WireEdge{
		ID:           "e1",
		Source:       "a",
		Target:       "b",
		SourceHandle: "out",
		TargetHandle: "in",
	}, p.Edges[0])
	assert.NotNil(t, p.Nodes, "payload slices are never nil")
}
