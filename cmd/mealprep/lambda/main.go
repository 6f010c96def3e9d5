package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mealprep"
	"mealprep/catalog"
	"mealprep/slack"
	"mealprep/tools"
	"mealprep/tools/storage"
)

// Params is the invocation payload: the tool calls to run, in order.
type Params struct {
	Calls  []tools.Call `json:"calls"`
	Notify bool         `json:"notify,omitempty"`
}

type Results struct {
	RunID   string            `json:"run_id"`
	Results []mealprep.Result `json:"results"`
}

// resultsText renders results for a Slack message.
type resultsText []mealprep.Result

func (r resultsText) Format(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		cfg, err := mealprep.LoadConfig()
		if err != nil {
			return Results{}, err
		}
		if err := mealprep.SetupLogging(mealprep.LogConfig{Level: cfg.Log.Level, Format: "json"}, os.Stderr); err != nil {
			return Results{}, err
		}
		if !cfg.Catalog.UseS3() {
			return Results{}, fmt.Errorf("missing S3 config: MEALPREP_CATALOG_S3_BUCKET and MEALPREP_CATALOG_S3_KEY must be set")
		}
		if len(params.Calls) == 0 {
			return Results{}, fmt.Errorf("no tool calls in request")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		c, err := catalog.Load(ctx, storage.NewS3CatalogState(s3Client, cfg.Catalog.S3Bucket, cfg.Catalog.S3Key))
		if err != nil {
			slog.Error("SETUP: Failed to load catalog from S3", "error", err)
			return Results{}, err
		}

		registry, err := tools.NewRegistry(c, tools.Options{
			AllowRepeats: cfg.Planner.AllowRepeats,
			Exclude:      cfg.Grocery.Exclude,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Catalog loaded from S3", "recipes", c.Len())

		tracerProvider, meterProvider, otelShutdown, err := mealprep.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		runID := mealprep.NewRunID()
		opts := []mealprep.RunnerOption{mealprep.WithRunLogger(runID, mealprep.NewStdoutRunLogger())}
		if tracerProvider != nil && meterProvider != nil {
			tracer := tracerProvider.Tracer(mealprep.TracerNameLambda)
			var span trace.Span
			ctx, span = tracer.Start(ctx, mealprep.TracerNameLambda, trace.WithAttributes(
				attribute.String("run.id", runID),
				attribute.Int("run.calls", len(params.Calls)),
			))
			defer span.End()
			opts = append(opts, mealprep.WithTelemetry(tracer, meterProvider.Meter(mealprep.TracerNameLambda)))
		}

		results, err := mealprep.NewRunner(registry, opts...).Run(ctx, params.Calls)
		if err != nil {
			slog.Error("RESULT: Error running tool calls", "error", err)
			return Results{}, err
		}

		if params.Notify && cfg.Notify.WebhookURL != "" {
			client := slack.NewClient(cfg.Notify.WebhookURL, http.DefaultClient)
			if err := client.Notify(ctx, cfg.Notify.Channel, resultsText(results)); err != nil {
				slog.Error("Failed to post result to Slack", "error", err)
			}
		}

		return Results{RunID: runID, Results: results}, nil
	}

	lambda.Start(fn)
}
