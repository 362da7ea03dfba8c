package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nocodeml/pipeline"
)

// AddEdge inserts a single edge into a pipeline.
// If edge.ID is empty, a UUID is auto-generated.
// Validates that adding this edge does not create a cycle.
// Returns the edge ID (generated or provided).
func (s *PGStore) AddEdge(ctx context.Context, pipelineID string, edge *pipeline.Edge) (string, error) {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}

	// Fetch existing edges + nodes for cycle detection.
	nodes, err := s.ListNodes(ctx, pipelineID)
	if err != nil {
		return "", err
	}
	edges, err := s.ListEdges(ctx, pipelineID)
	if err != nil {
		return "", err
	}

	// Append the new edge and validate.
	edges = append(edges, *edge)
	if err := pipeline.CheckAcyclic(nodes, edges); err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO pipeline_edges (id, pipeline_id, source_id, target_id, source_handle, target_handle) VALUES ($1, $2, $3, $4, $5, $6)`,
		edge.ID, pipelineID, edge.Source, edge.Target, edge.SourceHandle, edge.TargetHandle,
	)
	if err != nil {
		return "", fmt.Errorf("pipeline: insert edge: %w", err)
	}

	return edge.ID, nil
}

// GetEdge fetches a single edge by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetEdge(ctx context.Context, edgeID string) (*pipeline.Edge, error) {
	var e pipeline.Edge
	err := s.db.QueryRow(ctx,
		`SELECT id, source_id, target_id, source_handle, target_handle FROM pipeline_edges WHERE id = $1`, edgeID,
	).Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline: get edge: %w", err)
	}

	return &e, nil
}

// UpdateEdge updates an existing edge's endpoints and handles.
// Validates that the update does not create a cycle.
// Returns ErrEdgeNotFound if the edge doesn't exist.
func (s *PGStore) UpdateEdge(ctx context.Context, edge *pipeline.Edge) error {
	// First find the edge's pipeline_id.
	var pipelineID string
	err := s.db.QueryRow(ctx,
		`SELECT pipeline_id FROM pipeline_edges WHERE id = $1`, edge.ID,
	).Scan(&pipelineID)
	if err != nil {
		if isNoRows(err) {
			return pipeline.ErrEdgeNotFound
		}
		return fmt.Errorf("pipeline: find edge: %w", err)
	}

	// Fetch existing data for cycle detection.
	nodes, err := s.ListNodes(ctx, pipelineID)
	if err != nil {
		return err
	}
	existingEdges, err := s.ListEdges(ctx, pipelineID)
	if err != nil {
		return err
	}

	// Replace the updated edge in the list.
	for i, e := range existingEdges {
		if e.ID == edge.ID {
			existingEdges[i].Source = edge.Source
			existingEdges[i].Target = edge.Target
			break
		}
	}

	if err := pipeline.CheckAcyclic(nodes, existingEdges); err != nil {
		return err
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE pipeline_edges SET source_id = $1, target_id = $2, source_handle = $3, target_handle = $4 WHERE id = $5`,
		edge.Source, edge.Target, edge.SourceHandle, edge.TargetHandle, edge.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeline: update edge: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeline.ErrEdgeNotFound
	}
	return nil
}

// DeleteEdge deletes an edge by its ID.
// No error if the edge doesn't exist.
func (s *PGStore) DeleteEdge(ctx context.Context, edgeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pipeline_edges WHERE id = $1`, edgeID)
	if err != nil {
		return fmt.Errorf("pipeline: delete edge: %w", err)
	}
	return nil
}

// ListEdges returns all edges for a pipelineID, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEdges(ctx context.Context, pipelineID string) ([]pipeline.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, source_handle, target_handle FROM pipeline_edges WHERE pipeline_id = $1 ORDER BY created_at`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list edges: %w", err)
	}
	defer rows.Close()

	edges := []pipeline.Edge{}
	for rows.Next() {
		var e pipeline.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle); err != nil {
			return nil, fmt.Errorf("pipeline: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: rows edges: %w", err)
	}

	return edges, nil
}
