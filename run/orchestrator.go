// Package run coordinates remote execution of a validated pipeline: it
// submits the graph to the training service, polls job status on an interval,
// and exposes per-node and whole-job state for the UI.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nocodeml/pipeline"
	"github.com/nocodeml/pipeline/trainer"
)

var (
	ErrInvalidPipeline = errors.New("run: pipeline has validation errors")
	ErrNoActiveJob     = errors.New("run: no active job")
	ErrJobActive       = errors.New("run: a job is already executing")
)

// Status is the whole-job state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusValidating Status = "validating"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	// StatusUnreachable means the training service stopped answering status
	// polls, as distinct from the job itself failing.
	StatusUnreachable Status = "unreachable"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusUnreachable:
		return true
	}
	return false
}

// State is a point-in-time copy of the orchestrator for UI consumption.
type State struct {
	JobID   string                        `json:"job_id,omitempty"`
	Status  Status                        `json:"status"`
	Nodes   map[string]trainer.NodeStatus `json:"nodes"`
	Results *trainer.Results              `json:"results,omitempty"`
	Error   string                        `json:"error,omitempty"`
}

const (
	defaultPollInterval = 2 * time.Second
	maxPollInterval     = 30 * time.Second
	defaultFailureLimit = 8
)

// Orchestrator tracks one remote job at a time. All state lives behind one
// mutex; a poll response is applied wholesale (status, node map, results)
// so two in-flight polls can never interleave field-by-field.
type Orchestrator struct {
	api          trainer.API
	log          *slog.Logger
	interval     time.Duration
	failureLimit int

	mu       sync.Mutex
	jobID    string
	status   Status
	nodes    map[string]trainer.NodeStatus
	results  *trainer.Results
	errMsg   string
	stopPoll context.CancelFunc
	pollDone chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithPollInterval sets the base polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.interval = d }
}

// WithFailureLimit sets how many consecutive poll failures are tolerated
// before the job is marked unreachable.
func WithFailureLimit(n int) Option {
	return func(o *Orchestrator) { o.failureLimit = n }
}

// New returns an orchestrator speaking to the given training service.
func New(api trainer.API, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:          api,
		log:          slog.Default(),
		interval:     defaultPollInterval,
		failureLimit: defaultFailureLimit,
		status:       StatusPending,
		nodes:        map[string]trainer.NodeStatus{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute validates the graph, submits it, and starts the polling loop. It
// returns once the job is accepted (or rejected); progress is observed via
// State. A graph with validation errors is never submitted.
func (o *Orchestrator) Execute(ctx context.Context, nodes []pipeline.Node, edges []pipeline.Edge) error {
	if report := pipeline.Validate(nodes, edges); !report.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPipeline, report.Errors[0].Message)
	}

	o.mu.Lock()
	if o.jobID != "" && !o.status.Terminal() {
		o.mu.Unlock()
		return ErrJobActive
	}
	// Fresh job: nothing from a previous run may leak in.
	o.jobID = ""
	o.status = StatusPending
	o.nodes = map[string]trainer.NodeStatus{}
	o.results = nil
	o.errMsg = ""
	o.mu.Unlock()

	resp, err := o.api.Submit(ctx, trainer.EncodeGraph(nodes, edges))
	if err != nil {
		o.mu.Lock()
		o.status = StatusFailed
		o.errMsg = err.Error()
		o.mu.Unlock()
		return err
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	o.mu.Lock()
	o.jobID = resp.JobID
	o.status = parseStatus(resp.Status)
	o.stopPoll = cancel
	o.pollDone = done
	o.mu.Unlock()

	o.log.Info("job submitted", "job_id", resp.JobID, "status", resp.Status)
	go o.poll(pollCtx, resp.JobID, done)
	return nil
}

// poll drives the status loop for one job. Transient errors are logged and
// retried with exponential backoff; after failureLimit consecutive failures
// the job is marked unreachable and the loop exits.
func (o *Orchestrator) poll(ctx context.Context, jobID string, done chan struct{}) {
	defer close(done)

	interval := o.interval
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		resp, err := o.api.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			o.log.Warn("status poll failed", "job_id", jobID, "attempt", failures, "error", err)
			if failures >= o.failureLimit {
				o.mu.Lock()
				if !o.status.Terminal() {
					o.status = StatusUnreachable
					o.errMsg = "training service unreachable"
				}
				o.mu.Unlock()
				return
			}
			if interval *= 2; interval > maxPollInterval {
				interval = maxPollInterval
			}
			continue
		}
		failures = 0
		interval = o.interval

		if o.apply(jobID, resp) {
			return
		}
	}
}

// apply installs one poll response and reports whether the job reached a
// terminal state. The node map replaces the previous one — the server is the
// source of truth.
func (o *Orchestrator) apply(jobID string, resp *trainer.StatusResponse) (terminal bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// A cancel or reset may have raced the request; don't resurrect the job.
	if o.jobID != jobID || o.status.Terminal() {
		return true
	}

	o.status = parseStatus(resp.Status)
	o.nodes = resp.Nodes
	if o.nodes == nil {
		o.nodes = map[string]trainer.NodeStatus{}
	}

	if !o.status.Terminal() {
		return false
	}
	if resp.Results != nil {
		o.results = resp.Results
	}
	if o.status == StatusFailed {
		o.errMsg = resp.Error
	}
	o.log.Info("job finished", "job_id", jobID, "status", o.status)
	return true
}

// Cancel requests remote cancellation and optimistically marks the job
// cancelled, stopping the polling loop regardless of the remote outcome.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	jobID := o.jobID
	stop := o.stopPoll
	o.mu.Unlock()

	if jobID == "" {
		return ErrNoActiveJob
	}

	if err := o.api.Cancel(ctx, jobID); err != nil {
		o.log.Warn("remote cancel failed", "job_id", jobID, "error", err)
	}

	o.mu.Lock()
	if !o.status.Terminal() {
		o.status = StatusCancelled
	}
	o.mu.Unlock()

	if stop != nil {
		stop()
	}
	return nil
}

// Reset stops any polling and clears job id, status, node statuses, results,
// and error. Callers are expected to cancel first if a job is active.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	stop := o.stopPoll
	o.jobID = ""
	o.status = StatusPending
	o.nodes = map[string]trainer.NodeStatus{}
	o.results = nil
	o.errMsg = ""
	o.stopPoll = nil
	o.pollDone = nil
	o.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Executing reports whether a submitted job is still in flight.
func (o *Orchestrator) Executing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jobID != "" && !o.status.Terminal()
}

// State returns a copy of the orchestrator's current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	nodes := make(map[string]trainer.NodeStatus, len(o.nodes))
	for k, v := range o.nodes {
		nodes[k] = v
	}
	return State{
		JobID:   o.jobID,
		Status:  o.status,
		Nodes:   nodes,
		Results: o.results,
		Error:   o.errMsg,
	}
}

// Wait blocks until the polling loop for the current job exits, or the
// context is done. It is a test and shutdown convenience.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.pollDone
	o.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusValidating, StatusRunning, StatusCompleted,
		StatusFailed, StatusCancelled:
		return Status(s)
	default:
		return StatusRunning
	}
}
