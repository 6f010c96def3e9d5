package mealprep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"mealprep/tools"
)

// Runner executes tool calls against a ToolProvider, journaling every step and
// recording spans and metrics for each call.
type Runner struct {
	toolProvider ToolProvider
	logger       RunLogger
	runID        string
	step         int
	tracer       trace.Tracer
	calls        metric.Int64Counter
	failed       metric.Int64Counter
	duration     metric.Float64Histogram
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunLogger journals every step to logger.
func WithRunLogger(runID string, logger RunLogger) RunnerOption {
	return func(r *Runner) {
		r.runID = runID
		r.logger = logger
	}
}

// WithTelemetry records a span per call on tracer and call metrics on meter.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) RunnerOption {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
		if meter != nil {
			r.instrument(meter)
		}
	}
}

func NewRunner(provider ToolProvider, opts ...RunnerOption) *Runner {
	r := &Runner{
		toolProvider: provider,
		logger:       NewNoOpRunLogger(),
		tracer:       tracenoop.NewTracerProvider().Tracer(TracerNameTools),
	}
	r.instrument(metricnoop.NewMeterProvider().Meter(TracerNameTools))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) instrument(meter metric.Meter) {
	r.calls, _ = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	r.failed, _ = meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	r.duration, _ = meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))
}

// Result is the outcome of one tool call. Exactly one of Output and Error is set.
type Result struct {
	Name      string         `json:"name"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Run executes calls in order as one journaled step. A failing call does not stop the
// remaining ones; its error is reported in its Result. Run only returns an error when
// ctx is done or the step cannot be journaled.
func (r *Runner) Run(ctx context.Context, calls []tools.Call) ([]Result, error) {
	r.step++
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("Runner.Run.Step.%d", r.step))
	defer span.End()

	stepLog := StepLog{RunID: r.runID, Step: r.step, Timestamp: time.Now()}
	results := make([]Result, 0, len(calls))

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			stepLog.Error = err.Error()
			r.logStep(stepLog)
			span.SetStatus(codes.Error, "run cancelled")
			return results, err
		}

		res, tlog := r.call(ctx, call)
		results = append(results, res)
		stepLog.ToolCalls = append(stepLog.ToolCalls, tlog)
	}

	slog.Info("RESULT: Step complete", "step", r.step, "calls", len(calls))
	if err := r.logStep(stepLog); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Runner) call(ctx context.Context, call tools.Call) (Result, ToolCallLog) {
	nameAttr := attribute.String("tool_name", call.Name)
	ctx, span := r.tracer.Start(ctx, "Runner.Tool."+call.Name, trace.WithAttributes(nameAttr))
	defer span.End()

	r.calls.Add(ctx, 1, metric.WithAttributes(nameAttr))
	res := Result{Name: call.Name, ToolUseID: call.ToolUseID}
	tlog := ToolCallLog{Name: call.Name, Input: call.Input}

	slog.Info("TOOL: Handling tool call", "name", call.Name)
	tool, err := r.toolProvider.GetTool(call.Name)
	if err != nil {
		r.failed.Add(ctx, 1, metric.WithAttributes(nameAttr, attribute.String("error_type", "tool_not_found")))
		span.SetStatus(codes.Error, "tool not found")
		span.RecordError(err)
		res.Error = err.Error()
		tlog.Error = err.Error()
		return res, tlog
	}

	start := time.Now()
	out, err := tool.Run(ctx, call.Input)
	elapsed := time.Since(start)
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(nameAttr))
	tlog.DurationMS = elapsed.Milliseconds()

	if err != nil {
		r.failed.Add(ctx, 1, metric.WithAttributes(nameAttr, attribute.String("error_type", "tool_execution_failed")))
		span.SetStatus(codes.Error, "tool failed")
		span.RecordError(err)
		slog.Error("TOOL: Tool failed", "name", call.Name, "error", err)
		res.Error = fmt.Sprintf("tool %q failed: %v", call.Name, err)
		tlog.Error = res.Error
		return res, tlog
	}

	if _, ok := out["failure"]; ok {
		span.AddEvent("Tool reported failure")
	}
	span.SetAttributes(attribute.Float64("tool_execution_time_seconds", elapsed.Seconds()))
	slog.Debug("TOOL: Tool finished", "name", call.Name, "duration_ms", tlog.DurationMS)
	res.Output = out
	tlog.Output = out
	return res, tlog
}

func (r *Runner) logStep(step StepLog) error {
	if err := r.logger.LogStep(step); err != nil {
		slog.Error("Failed to log run step", "error", err, "step", step.Step)
		return fmt.Errorf("journal step %d: %w", step.Step, err)
	}
	return nil
}
