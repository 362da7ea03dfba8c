package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nocodeml/pipeline"
	"github.com/nocodeml/pipeline/postgres"
	"github.com/nocodeml/pipeline/run"
	"github.com/nocodeml/pipeline/trainer"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	trainerURL := os.Getenv("TRAINER_URL")
	if trainerURL == "" {
		log.Fatal("TRAINER_URL is not set")
	}
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":3000"
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store pipeline.Store = postgres.New(pool)
	api := trainer.NewClient(trainerURL)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	validate := validator.New()

	// Active runs, keyed by run ID. One orchestrator per submitted job.
	var (
		runsMu sync.Mutex
		runs   = map[string]*run.Orchestrator{}
	)

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Pipelines (bulk) ──────────────────────────────────────────────
	app.Post("/pipelines", func(c fiber.Ctx) error {
		var g pipeline.Graph
		if err := c.Bind().JSON(&g); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := validate.Struct(&g); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		result, err := store.CreatePipeline(c.Context(), &g)
		if errors.Is(err, pipeline.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(result)
	})

	app.Get("/pipelines", func(c fiber.Ctx) error {
		pipelines, err := store.ListPipelines(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(pipelines)
	})

	app.Get("/pipelines/:id", func(c fiber.Ctx) error {
		g, err := store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if g == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}
		return c.JSON(g)
	})

	app.Delete("/pipelines/:id", func(c fiber.Ctx) error {
		if err := store.DeletePipeline(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/pipelines/:id/nodes", func(c fiber.Ctx) error {
		var node pipeline.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := validate.Struct(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		id, err := store.AddNode(c.Context(), c.Params("id"), &node)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/pipelines/:id/nodes", func(c fiber.Ctx) error {
		nodes, err := store.ListNodes(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(nodes)
	})

	app.Get("/nodes/:id", func(c fiber.Ctx) error {
		n, err := store.GetNode(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if n == nil {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.JSON(n)
	})

	app.Put("/nodes/:id", func(c fiber.Ctx) error {
		var node pipeline.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		node.ID = c.Params("id")
		err := store.UpdateNode(c.Context(), &node)
		if errors.Is(err, pipeline.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/nodes/:id", func(c fiber.Ctx) error {
		if err := store.DeleteNode(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/pipelines/:id/edges", func(c fiber.Ctx) error {
		var edge pipeline.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddEdge(c.Context(), c.Params("id"), &edge)
		if errors.Is(err, pipeline.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/pipelines/:id/edges", func(c fiber.Ctx) error {
		edges, err := store.ListEdges(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(edges)
	})

	app.Get("/edges/:id", func(c fiber.Ctx) error {
		e, err := store.GetEdge(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if e == nil {
			return c.Status(404).JSON(fiber.Map{"error": "edge not found"})
		}
		return c.JSON(e)
	})

	app.Put("/edges/:id", func(c fiber.Ctx) error {
		var edge pipeline.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		edge.ID = c.Params("id")
		err := store.UpdateEdge(c.Context(), &edge)
		if errors.Is(err, pipeline.ErrEdgeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "edge not found"})
		}
		if errors.Is(err, pipeline.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/edges/:id", func(c fiber.Ctx) error {
		if err := store.DeleteEdge(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Validation / execution order ──────────────────────────────────
	app.Post("/validate", func(c fiber.Ctx) error {
		var g pipeline.Graph
		if err := c.Bind().JSON(&g); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		report := pipeline.Validate(g.Nodes, g.Edges)
		return c.JSON(fiber.Map{
			"valid":    report.Valid(),
			"errors":   report.Errors,
			"warnings": report.Warnings,
		})
	})

	app.Get("/pipelines/:id/order", func(c fiber.Ctx) error {
		g, err := store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if g == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}
		return c.JSON(fiber.Map{"order": pipeline.ExecutionOrder(g.Nodes, g.Edges)})
	})

	// ── Runs ──────────────────────────────────────────────────────────
	app.Post("/pipelines/:id/runs", func(c fiber.Ctx) error {
		g, err := store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if g == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}

		o := run.New(api, run.WithLogger(logger))
		if err := o.Execute(c.Context(), g.Nodes, g.Edges); err != nil {
			if errors.Is(err, run.ErrInvalidPipeline) {
				return c.Status(422).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}

		runID := uuid.NewString()
		runsMu.Lock()
		runs[runID] = o
		runsMu.Unlock()

		return c.Status(201).JSON(fiber.Map{"run_id": runID, "state": o.State()})
	})

	app.Get("/runs/:id", func(c fiber.Ctx) error {
		runsMu.Lock()
		o, ok := runs[c.Params("id")]
		runsMu.Unlock()
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "run not found"})
		}
		return c.JSON(o.State())
	})

	app.Post("/runs/:id/cancel", func(c fiber.Ctx) error {
		runsMu.Lock()
		o, ok := runs[c.Params("id")]
		runsMu.Unlock()
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "run not found"})
		}
		if err := o.Cancel(c.Context()); err != nil {
			if errors.Is(err, run.ErrNoActiveJob) {
				return c.Status(409).JSON(fiber.Map{"error": "no active job"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(o.State())
	})

	log.Fatal(app.Listen(addr))
}
