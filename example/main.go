package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nocodeml/pipeline"
	"github.com/nocodeml/pipeline/run"
	"github.com/nocodeml/pipeline/trainer"
)

func main() {
	ctx := context.Background()

	// ── Build a workflow with the graph builder ───────────────────────
	b := pipeline.NewBuilder()
	h := pipeline.NewHistory()
	b.SetName("churn-demo")

	h.Record(b.Graph())
	ds := b.AddNode(pipeline.NodeDataset, pipeline.Config{
		"datasetId":    "churn.csv",
		"targetColumn": "churned",
		"problemType":  "classification",
		"rowCount":     7043,
	}, pipeline.Position{X: 100, Y: 100})

	h.Record(b.Graph())
	split := b.AddNode(pipeline.NodeSplit, pipeline.Config{
		"testSize": 20, // percent, converted at the wire boundary
	}, pipeline.Position{X: 300, Y: 100})

	h.Record(b.Graph())
	model := b.AddNode(pipeline.NodeModel, pipeline.Config{
		"algorithm": "random_forest",
	}, pipeline.Position{X: 500, Y: 100})

	h.Record(b.Graph())
	b.Connect(ds, split, "", "")
	h.Record(b.Graph())
	b.Connect(split, model, "", "")

	// Dataset provenance propagated into the connected nodes.
	fmt.Println("split config after connect:")
	printJSON(b.Node(split).Config)

	// ── Validate and order ────────────────────────────────────────────
	report := b.Validate()
	fmt.Printf("valid=%v errors=%d warnings=%d\n",
		report.Valid(), len(report.Errors), len(report.Warnings))
	fmt.Println("execution order:", pipeline.ExecutionOrder(b.Nodes(), b.Edges()))

	// ── Undo / redo ───────────────────────────────────────────────────
	if g, ok := h.Undo(b.Graph()); ok {
		b.Restore(g)
		fmt.Println("after undo:", len(b.Nodes()), "nodes,", len(b.Edges()), "edges")
	}
	if g, ok := h.Redo(b.Graph()); ok {
		b.Restore(g)
		fmt.Println("after redo:", len(b.Nodes()), "nodes,", len(b.Edges()), "edges")
	}

	// ── Execute against the training service ──────────────────────────
	trainerURL := os.Getenv("TRAINER_URL")
	if trainerURL == "" {
		fmt.Println("TRAINER_URL not set, skipping execution")
		return
	}

	o := run.New(trainer.NewClient(trainerURL))
	if err := o.Execute(ctx, b.Nodes(), b.Edges()); err != nil {
		log.Fatalf("execute: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	if err := o.Wait(waitCtx); err != nil {
		log.Fatalf("wait: %v", err)
	}

	state := o.State()
	fmt.Println("job finished:", state.Status)
	if state.Results != nil {
		printJSON(state.Results)
	}
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
