// Package metrics provides Prometheus instrumentation for the agent
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the collector set for the agent service.
//
// A nil *Metrics is valid: every recording method is a no-op on it, so
// the loop, registry, and agent run without a metrics sink (tests, the
// chat REPL).
type Metrics struct {
	// HTTPRequests counts requests by method, route pattern, and
	// status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration measures request latency in seconds.
	// Labels: method, path
	HTTPRequestDuration *prometheus.HistogramVec

	// LoopIterations observes how many acting cycles each loop
	// execution performed before finalizing.
	LoopIterations prometheus.Histogram

	// Loops counts loop executions by outcome (done|error|cancelled).
	Loops *prometheus.CounterVec

	// ToolInvocations counts tool dispatches by tool and outcome
	// (completed|failed).
	ToolInvocations *prometheus.CounterVec

	// ToolDuration measures tool execution time in seconds.
	// Labels: tool
	ToolDuration *prometheus.HistogramVec

	// LLMTokens counts provider-reported token usage by type
	// (prompt|completion).
	LLMTokens *prometheus.CounterVec

	// StreamedTokens counts token events delivered to consumers.
	StreamedTokens prometheus.Counter
}

// NewMetrics creates the collector set and registers it with reg.
// Call once at startup; pass prometheus.DefaultRegisterer for the
// standard /metrics exposition, or a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currents_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "currents_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"method", "path"},
		),

		LoopIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "currents_loop_iterations",
				Help:    "Acting cycles performed per loop execution",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),

		Loops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currents_loops_total",
				Help: "Total number of loop executions by outcome",
			},
			[]string{"outcome"},
		),

		ToolInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currents_tool_invocations_total",
				Help: "Total number of tool dispatches by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),

		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "currents_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"tool"},
		),

		LLMTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currents_llm_tokens_total",
				Help: "Total provider-reported token usage by type",
			},
			[]string{"type"},
		),

		StreamedTokens: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "currents_tokens_streamed_total",
				Help: "Total number of token events delivered to consumers",
			},
		),
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordLoopOutcome counts one finished loop execution.
func (m *Metrics) RecordLoopOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Loops.WithLabelValues(outcome).Inc()
}

// ObserveLoopIterations records the acting cycles of one successful
// loop execution.
func (m *Metrics) ObserveLoopIterations(iterations int) {
	if m == nil {
		return
	}
	m.LoopIterations.Observe(float64(iterations))
}

// RecordToolInvocation records one tool dispatch.
func (m *Metrics) RecordToolInvocation(tool, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ToolInvocations.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// AddLLMTokens folds provider-reported usage into the token counters.
func (m *Metrics) AddLLMTokens(promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	if promptTokens > 0 {
		m.LLMTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokens.WithLabelValues("completion").Add(float64(completionTokens))
	}
}

// TokenStreamed counts one token event delivered to a consumer.
func (m *Metrics) TokenStreamed() {
	if m == nil {
		return
	}
	m.StreamedTokens.Inc()
}
