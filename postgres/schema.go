package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipelines (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pipeline_nodes (
    id          TEXT PRIMARY KEY,
    pipeline_id TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
    type        TEXT NOT NULL,
    config      JSONB NOT NULL DEFAULT '{}',
    pos_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pipeline_edges (
    id            TEXT PRIMARY KEY,
    pipeline_id   TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
    source_id     TEXT NOT NULL REFERENCES pipeline_nodes(id) ON DELETE CASCADE,
    target_id     TEXT NOT NULL REFERENCES pipeline_nodes(id) ON DELETE CASCADE,
    source_handle TEXT NOT NULL DEFAULT '',
    target_handle TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pipeline_nodes_pipeline_id ON pipeline_nodes(pipeline_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_edges_pipeline_id ON pipeline_edges(pipeline_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_edges_source      ON pipeline_edges(source_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_edges_target      ON pipeline_edges(target_id);
`

// CreateSchema creates the pipeline tables if they don't exist.
// Dangling edges cannot be persisted: edge endpoints cascade-delete with
// their nodes.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the pipeline tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS pipeline_edges, pipeline_nodes, pipelines CASCADE;`)
	return err
}
