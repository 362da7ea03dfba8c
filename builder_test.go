package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderNodes(t *testing.T) {
	t.Run("add node returns unique ids", func(t *testing.T) {
		b := NewBuilder()

		a := b.AddNode(NodeDataset, nil, Position{X: 1, Y: 2})
		c := b.AddNode(NodeModel, nil, Position{})

		assert.NotEmpty(t, a)
		assert.NotEmpty(t, c)
		assert.NotEqual(t, a, c)
		assert.Len(t, b.Nodes(), 2)
	})

	t.Run("ids are independent per builder instance", func(t *testing.T) {
		b1 := NewBuilder()
		b2 := NewBuilder()

		assert.NotEqual(t,
			b1.AddNode(NodeDataset, nil, Position{}),
			b2.AddNode(NodeDataset, nil, Position{}))
	})

	t.Run("remove node cascades to incident edges", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, nil, Position{})
		sp := b.AddNode(NodeSplit, nil, Position{})
		md := b.AddNode(NodeModel, nil, Position{})
		b.Connect(ds, sp, "", "")
		b.Connect(sp, md, "", "")
		require.Len(t, b.Edges(), 2)

		b.RemoveNode(sp)

		assert.Len(t, b.Nodes(), 2)
		assert.Empty(t, b.Edges())
	})

	t.Run("removing the selected node clears selection", func(t *testing.T) {
		b := NewBuilder()
		id := b.AddNode(NodeDataset, nil, Position{})
		b.Select(id)
		require.Equal(t, id, b.Selected())

		b.RemoveNode(id)

		assert.Empty(t, b.Selected())
	})

	t.Run("removing another node keeps selection", func(t *testing.T) {
		b := NewBuilder()
		keep := b.AddNode(NodeDataset, nil, Position{})
		drop := b.AddNode(NodeModel, nil, Position{})
		b.Select(keep)

		b.RemoveNode(drop)

		assert.Equal(t, keep, b.Selected())
	})
}

func TestBuilderConnect(t *testing.T) {
	t.Run("missing endpoint is a silent no-op", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, nil, Position{})

		assert.Empty(t, b.Connect(ds, "nope", "", ""))
		assert.Empty(t, b.Connect("nope", ds, "", ""))
		assert.Empty(t, b.Edges())
	})

	t.Run("connect stores handles", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, nil, Position{})
		md := b.AddNode(NodeModel, nil, Position{})

		id := b.Connect(ds, md, "out", "in")

		require.NotEmpty(t, id)
		edges := b.Edges()
		require.Len(t, edges, 1)
		assert.Equal(t, "out", edges[0].SourceHandle)
		assert.Equal(t, "in", edges[0].TargetHandle)
	})

	t.Run("dataset config propagates on connect", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, Config{
			"datasetId":    "iris.csv",
			"targetColumn": "species",
			"problemType":  "classification",
			"rowCount":     150,
		}, Position{})
		sp := b.AddNode(NodeSplit, Config{"testSize": 20}, Position{})

		b.Connect(ds, sp, "", "")

		cfg := b.Node(sp).Config
		assert.Equal(t, "iris.csv", cfg["datasetId"])
		assert.Equal(t, "species", cfg["targetColumn"])
		assert.Equal(t, "classification", cfg["problemType"])
		assert.Equal(t, 150, cfg["rowCount"])
		// Keys outside the propagated set are untouched.
		assert.Equal(t, 20, cfg["testSize"])
	})

	t.Run("no propagation into ineligible node types", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, Config{"datasetId": "iris.csv"}, Position{})
		ev := b.AddNode(NodeEvaluate, nil, Position{})

		b.Connect(ds, ev, "", "")

		assert.NotContains(t, b.Node(ev).Config, "datasetId")
	})

	t.Run("pass-through node carrying provenance propagates", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, Config{"datasetId": "iris.csv", "targetColumn": "species"}, Position{})
		pre := b.AddNode(NodePreprocessing, nil, Position{})
		md := b.AddNode(NodeModel, nil, Position{})

		b.Connect(ds, pre, "", "")
		b.Connect(pre, md, "", "")

		assert.Equal(t, "iris.csv", b.Node(md).Config["datasetId"])
		assert.Equal(t, "species", b.Node(md).Config["targetColumn"])
	})
}

func TestBuilderUpdateConfig(t *testing.T) {
	t.Run("merge is shallow at the top level", func(t *testing.T) {
		b := NewBuilder()
		md := b.AddNode(NodeModel, Config{"algorithm": "svm", "maxDepth": 3}, Position{})

		b.UpdateConfig(md, Config{"algorithm": "random_forest"})

		cfg := b.Node(md).Config
		assert.Equal(t, "random_forest", cfg["algorithm"])
		assert.Equal(t, 3, cfg["maxDepth"])
	})

	t.Run("dataset update re-propagates one hop", func(t *testing.T) {
		b := NewBuilder()
		ds := b.AddNode(NodeDataset, Config{"datasetId": "iris.csv"}, Position{})
		sp := b.AddNode(NodeSplit, nil, Position{})
		md := b.AddNode(NodeModel, nil, Position{})
		b.Connect(ds, sp, "", "")
		b.Connect(sp, md, "", "")

		b.UpdateConfig(ds, Config{"datasetId": "wine.csv", "targetColumn": "quality"})

		// Direct neighbor picks up the change.
		assert.Equal(t, "wine.csv", b.Node(sp).Config["datasetId"])
		assert.Equal(t, "quality", b.Node(sp).Config["targetColumn"])
		// One hop only: the model keeps what its own edge captured.
		assert.Equal(t, "iris.csv", b.Node(md).Config["datasetId"])
	})

	t.Run("unknown node is a no-op", func(t *testing.T) {
		b := NewBuilder()
		assert.NotPanics(t, func() {
			b.UpdateConfig("nope", Config{"a": 1})
		})
	})
}

func TestBuilderClear(t *testing.T) {
	b := NewBuilder()
	ds := b.AddNode(NodeDataset, nil, Position{})
	md := b.AddNode(NodeModel, nil, Position{})
	b.Connect(ds, md, "", "")
	b.Select(ds)

	b.Clear()

	assert.Empty(t, b.Nodes())
	assert.Empty(t, b.Edges())
	assert.Empty(t, b.Selected())
}

func TestBuilderSnapshots(t *testing.T) {
	t.Run("graph snapshot does not alias live state", func(t *testing.T) {
		b := NewBuilder()
		md := b.AddNode(NodeModel, Config{"algorithm": "svm"}, Position{})

		snap := b.Graph()
		b.UpdateConfig(md, Config{"algorithm": "random_forest"})

		assert.Equal(t, "svm", snap.Nodes[0].Config["algorithm"])
	})

	t.Run("restore round-trips a snapshot", func(t *testing.T) {
		b := NewBuilder()
		b.SetName("demo")
		ds := b.AddNode(NodeDataset, Config{"datasetId": "iris.csv"}, Position{X: 10})
		md := b.AddNode(NodeModel, Config{"algorithm": "svm"}, Position{X: 20})
		b.Connect(ds, md, "", "")
		snap := b.Graph()

		b.Clear()
		b.SetName("")
		require.Empty(t, b.Nodes())

		b.Restore(snap)

		assert.True(t, b.Graph().Equal(snap))
		assert.Equal(t, "demo", b.Name())
	})

	t.Run("restore clears a dangling selection", func(t *testing.T) {
		b := NewBuilder()
		empty := b.Graph()
		id := b.AddNode(NodeDataset, nil, Position{})
		b.Select(id)

		b.Restore(empty)

		assert.Empty(t, b.Selected())
	})
}
