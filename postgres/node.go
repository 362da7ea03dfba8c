package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nocodeml/pipeline"
)

// AddNode inserts a single node into a pipeline.
// If node.ID is empty, a UUID is auto-generated.
// Returns the node ID (generated or provided).
func (s *PGStore) AddNode(ctx context.Context, pipelineID string, node *pipeline.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}

	cfg, err := json.Marshal(node.Config)
	if err != nil {
		return "", fmt.Errorf("pipeline: marshal config: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO pipeline_nodes (id, pipeline_id, type, config, pos_x, pos_y) VALUES ($1, $2, $3, $4, $5, $6)`,
		node.ID, pipelineID, string(node.Type), cfg, node.Position.X, node.Position.Y,
	)
	if err != nil {
		return "", fmt.Errorf("pipeline: insert node: %w", err)
	}

	return node.ID, nil
}

// GetNode fetches a single node by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetNode(ctx context.Context, nodeID string) (*pipeline.Node, error) {
	var (
		n   pipeline.Node
		typ string
		cfg []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, type, config, pos_x, pos_y FROM pipeline_nodes WHERE id = $1`, nodeID,
	).Scan(&n.ID, &typ, &cfg, &n.Position.X, &n.Position.Y)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline: get node: %w", err)
	}

	n.Type = pipeline.NodeType(typ)
	if err := json.Unmarshal(cfg, &n.Config); err != nil {
		return nil, fmt.Errorf("pipeline: unmarshal config: %w", err)
	}

	return &n, nil
}

// UpdateNode updates the config and position of an existing node.
// Returns ErrNodeNotFound if the node doesn't exist.
func (s *PGStore) UpdateNode(ctx context.Context, node *pipeline.Node) error {
	cfg, err := json.Marshal(node.Config)
	if err != nil {
		return fmt.Errorf("pipeline: marshal config: %w", err)
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE pipeline_nodes SET config = $1, pos_x = $2, pos_y = $3 WHERE id = $4`,
		cfg, node.Position.X, node.Position.Y, node.ID,
	)
	if err != nil {
		return fmt.Errorf("pipeline: update node: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pipeline.ErrNodeNotFound
	}
	return nil
}

// DeleteNode deletes a node by its ID.
// Incident edges are cascade-deleted by the DB.
// No error if the node doesn't exist.
func (s *PGStore) DeleteNode(ctx context.Context, nodeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pipeline_nodes WHERE id = $1`, nodeID)
	if err != nil {
		return fmt.Errorf("pipeline: delete node: %w", err)
	}
	return nil
}

// ListNodes returns all nodes for a pipelineID, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, pipelineID string) ([]pipeline.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, config, pos_x, pos_y FROM pipeline_nodes WHERE pipeline_id = $1 ORDER BY created_at`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []pipeline.Node{}
	for rows.Next() {
		var (
			n   pipeline.Node
			typ string
			cfg []byte
		)
		if err := rows.Scan(&n.ID, &typ, &cfg, &n.Position.X, &n.Position.Y); err != nil {
			return nil, fmt.Errorf("pipeline: scan node: %w", err)
		}
		n.Type = pipeline.NodeType(typ)
		if err := json.Unmarshal(cfg, &n.Config); err != nil {
			return nil, fmt.Errorf("pipeline: unmarshal config: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: rows nodes: %w", err)
	}

	return nodes, nil
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}
