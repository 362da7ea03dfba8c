package pipeline

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected = errors.New("pipeline: cycle detected, graph is not acyclic")
	ErrNodeNotFound  = errors.New("pipeline: node not found")
	ErrEdgeNotFound  = errors.New("pipeline: edge not found")
)

// Store defines the contract for persisting and retrieving saved pipelines.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Pipelines (bulk operations)
	CreatePipeline(ctx context.Context, g *Graph) (*Graph, error)
	GetPipeline(ctx context.Context, pipelineID string) (*Graph, error)
	DeletePipeline(ctx context.Context, pipelineID string) error
	ListPipelines(ctx context.Context) ([]Graph, error)

	// Nodes
	AddNode(ctx context.Context, pipelineID string, node *Node) (string, error)
	GetNode(ctx context.Context, nodeID string) (*Node, error)
	UpdateNode(ctx context.Context, node *Node) error
	DeleteNode(ctx context.Context, nodeID string) error
	ListNodes(ctx context.Context, pipelineID string) ([]Node, error)

	// Edges
	AddEdge(ctx context.Context, pipelineID string, edge *Edge) (string, error)
	GetEdge(ctx context.Context, edgeID string) (*Edge, error)
	UpdateEdge(ctx context.Context, edge *Edge) error
	DeleteEdge(ctx context.Context, edgeID string) error
	ListEdges(ctx context.Context, pipelineID string) ([]Edge, error)
}
