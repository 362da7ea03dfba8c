package trainer

import "time"

// NodeStatus is the server-reported execution state of one node.
type NodeStatus struct {
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   float64    `json:"progress,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// SubmitResponse is returned by the execute endpoint.
type SubmitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is one poll of a job. Nodes is the full per-node status map;
// the server is the source of truth and the map replaces, never merges with,
// whatever the client held before.
type StatusResponse struct {
	Status  string                `json:"status"`
	Nodes   map[string]NodeStatus `json:"nodes"`
	Results *Results              `json:"results,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ValidateResponse is the server-side re-validation of a graph.
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Metric is a named metric value with an optional confidence interval.
type Metric struct {
	Name   string   `json:"name"`
	Value  float64  `json:"value"`
	CILow  *float64 `json:"ci_low,omitempty"`
	CIHigh *float64 `json:"ci_high,omitempty"`
}

// Plot references a rendered plot by URL, with an optional thumbnail.
type Plot struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Results is the payload of a completed job. It is owned by the training
// service and stored here opaquely for display.
type Results struct {
	Algorithm     string   `json:"algorithm"`
	AlgorithmName string   `json:"algorithm_name"`
	ProblemType   string   `json:"problem_type"`
	TrainingMode  string   `json:"training_mode"`
	TrainingTime  float64  `json:"training_time"`
	Metrics       []Metric `json:"metrics"`
	Plots         []Plot   `json:"plots"`
	TrainSamples  int      `json:"train_samples"`
	TestSamples   int      `json:"test_samples"`
	FeatureCount  int      `json:"feature_count"`
	ModelPath     string   `json:"model_path,omitempty"`
}
