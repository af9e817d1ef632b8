package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency.
const (
	attrOutcome   = "outcome"
	attrPhase     = "phase"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
)

// Turn outcome values.
const (
	OutcomeDirectReply   = "direct_reply"
	OutcomeToolRoundTrip = "tool_round_trip"
	OutcomeFallback      = "fallback"
	OutcomeModelError    = "model_error"
	OutcomeUnauthorized  = "unauthorized"
	OutcomeIgnored       = "ignored"
)

// Result values shared by operation metrics.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics provides methods for recording observability metrics. The zero
// value is a no-op recorder, so callers never need nil checks when
// instrumentation is disabled.
type Metrics struct {
	turnsTotal   metric.Int64Counter
	turnDuration metric.Float64Histogram

	completionsTotal   metric.Int64Counter
	completionDuration metric.Float64Histogram

	storeOperationsTotal   metric.Int64Counter
	storeOperationDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.turnsTotal, err = meter.Int64Counter(
		"bot_turns_total",
		metric.WithDescription("Total number of conversation turns by outcome"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot_turns_total counter: %w", err)
	}

	m.turnDuration, err = meter.Float64Histogram(
		"bot_turn_duration_seconds",
		metric.WithDescription("End-to-end conversation turn duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot_turn_duration_seconds histogram: %w", err)
	}

	m.completionsTotal, err = meter.Int64Counter(
		"model_completions_total",
		metric.WithDescription("Total number of chat completion calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_completions_total counter: %w", err)
	}

	m.completionDuration, err = meter.Float64Histogram(
		"model_completion_duration_seconds",
		metric.WithDescription("Chat completion call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_completion_duration_seconds histogram: %w", err)
	}

	m.storeOperationsTotal, err = meter.Int64Counter(
		"task_store_operations_total",
		metric.WithDescription("Total number of task-storage API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task_store_operations_total counter: %w", err)
	}

	m.storeOperationDuration, err = meter.Float64Histogram(
		"task_store_operation_duration_seconds",
		metric.WithDescription("Task-storage API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task_store_operation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of tool dispatches requested by the model"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Tool dispatch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordTurn records one completed conversation turn.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil || m.turnsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCompletion records one chat completion call. Phase is "first" or
// "final".
func (m *Metrics) RecordCompletion(ctx context.Context, phase string, duration time.Duration, err error) {
	if m == nil || m.completionsTotal == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	attrs := metric.WithAttributes(
		attribute.String(attrPhase, phase),
		attribute.String(attrResult, result),
	)
	m.completionsTotal.Add(ctx, 1, attrs)
	m.completionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStoreOperation records one task-storage API call.
func (m *Metrics) RecordStoreOperation(ctx context.Context, operation string, duration time.Duration, failed bool) {
	if m == nil || m.storeOperationsTotal == nil {
		return
	}
	result := ResultSuccess
	if failed {
		result = ResultError
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrResult, result),
	)
	m.storeOperationsTotal.Add(ctx, 1, attrs)
	m.storeOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records one tool dispatch.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool string, duration time.Duration, ok bool) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	result := ResultSuccess
	if !ok {
		result = ResultError
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrResult, result),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
