package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nocodeml/pipeline"
)

// CreatePipeline saves a full pipeline (nodes + edges) in one transaction.
// Nodes/edges without IDs get auto-generated UUIDs.
// Edge refs (SourceRef/TargetRef) are resolved to real node IDs.
// Returns the pipeline with all IDs filled in.
func (s *PGStore) CreatePipeline(ctx context.Context, g *pipeline.Graph) (*pipeline.Graph, error) {
	// Build ref → UUID mapping and assign IDs to nodes.
	refMap := make(map[string]string)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.Ref != "" {
			refMap[n.Ref] = n.ID
		}
	}

	// Resolve edge refs and assign IDs to edges.
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.SourceRef != "" {
			id, ok := refMap[e.SourceRef]
			if !ok {
				return nil, fmt.Errorf("pipeline: unknown source_ref %q", e.SourceRef)
			}
			e.Source = id
		}
		if e.TargetRef != "" {
			id, ok := refMap[e.TargetRef]
			if !ok {
				return nil, fmt.Errorf("pipeline: unknown target_ref %q", e.TargetRef)
			}
			e.Target = id
		}
	}

	// Validate acyclic.
	if err := pipeline.CheckAcyclic(g.Nodes, g.Edges); err != nil {
		return nil, err
	}

	// Persist in a single transaction.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Upsert the pipeline row, then replace its graph content.
	if _, err := tx.Exec(ctx,
		`INSERT INTO pipelines (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		g.ID, g.Name,
	); err != nil {
		return nil, fmt.Errorf("pipeline: upsert pipeline: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pipeline_edges WHERE pipeline_id = $1`, g.ID); err != nil {
		return nil, fmt.Errorf("pipeline: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pipeline_nodes WHERE pipeline_id = $1`, g.ID); err != nil {
		return nil, fmt.Errorf("pipeline: delete nodes: %w", err)
	}

	// Insert nodes.
	for _, n := range g.Nodes {
		cfg, err := json.Marshal(n.Config)
		if err != nil {
			return nil, fmt.Errorf("pipeline: marshal config for node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO pipeline_nodes (id, pipeline_id, type, config, pos_x, pos_y) VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, g.ID, string(n.Type), cfg, n.Position.X, n.Position.Y,
		); err != nil {
			return nil, fmt.Errorf("pipeline: insert node %s: %w", n.ID, err)
		}
	}

	// Insert edges.
	for _, e := range g.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO pipeline_edges (id, pipeline_id, source_id, target_id, source_handle, target_handle) VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, g.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle,
		); err != nil {
			return nil, fmt.Errorf("pipeline: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pipeline: commit: %w", err)
	}

	// Clear ref fields from response — they are not persisted.
	for i := range g.Nodes {
		g.Nodes[i].Ref = ""
	}
	for i := range g.Edges {
		g.Edges[i].SourceRef = ""
		g.Edges[i].TargetRef = ""
	}

	return g, nil
}

// GetPipeline retrieves a full pipeline (nodes + edges) by its ID.
// Returns nil, nil if the pipeline doesn't exist.
func (s *PGStore) GetPipeline(ctx context.Context, pipelineID string) (*pipeline.Graph, error) {
	g := &pipeline.Graph{ID: pipelineID}

	err := s.db.QueryRow(ctx,
		`SELECT name FROM pipelines WHERE id = $1`, pipelineID,
	).Scan(&g.Name)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline: get pipeline: %w", err)
	}

	g.Nodes, err = s.ListNodes(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	g.Edges, err = s.ListEdges(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// DeletePipeline removes a pipeline with all its nodes and edges.
// No error if the pipelineID doesn't exist.
func (s *PGStore) DeletePipeline(ctx context.Context, pipelineID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pipelines WHERE id = $1`, pipelineID)
	if err != nil {
		return fmt.Errorf("pipeline: delete pipeline: %w", err)
	}
	return nil
}

// ListPipelines returns the id and name of every saved pipeline, ordered by
// creation time. Nodes and edges are not loaded.
func (s *PGStore) ListPipelines(ctx context.Context) ([]pipeline.Graph, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM pipelines ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []pipeline.Graph{}
	for rows.Next() {
		var g pipeline.Graph
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("pipeline: scan pipeline: %w", err)
		}
		pipelines = append(pipelines, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: rows pipelines: %w", err)
	}

	return pipelines, nil
}
