// Command mealprep plans meals from a recipe index, builds shopping lists for them and
// maintains the index itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mealprep"
	"mealprep/catalog"
	"mealprep/planner"
	"mealprep/tools/storage"
)

const (
	exitOK = iota
	exitNoPlan
	exitUsage
	exitCatalog
	exitFailure
)

const usage = `Usage: mealprep <command> [flags]

Commands:
  plan      plan meals for a number of days within time limits
  week      plan the standard week (quick weekday dinners, relaxed weekends)
  grocery   build a shopping list for recipes or a saved plan
  index     build the recipe index from a directory of Markdown recipes
  inspect   summarize the recipe index
  tools     run tool calls read as JSON, or list the available tools

Run "mealprep <command> --help" for the flags of a command.
`

// usageError marks bad command lines; they exit with exitUsage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// app carries what every command needs. Tests replace the output files, the S3 client,
// the Slack client and the standard streams.
type app struct {
	cfg    mealprep.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	tracer trace.Tracer
	meter  metric.Meter

	create   func(name string) (io.WriteCloser, error)
	s3Client func(ctx context.Context) (storage.S3API, error)
	slack    func(webhookURL string) mealprep.SlackClient
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := mealprep.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "mealprep: %v\n", err)
		return exitUsage
	}
	if err := mealprep.SetupLogging(cfg.Log, stderr); err != nil {
		fmt.Fprintf(stderr, "mealprep: %v\n", err)
		return exitUsage
	}

	tp, mp, shutdown, err := mealprep.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return exitFailure
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	a := &app{
		cfg:      cfg,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		tracer:   otel.Tracer(mealprep.TracerNameCLI),
		meter:    otel.Meter(mealprep.TracerNameCLI),
		create:   createFile,
		s3Client: newS3Client,
		slack: func(webhookURL string) mealprep.SlackClient {
			return newSlackClient(webhookURL, http.DefaultClient)
		},
	}
	if tp != nil {
		a.tracer = tp.Tracer(mealprep.TracerNameCLI)
	}
	if mp != nil {
		a.meter = mp.Meter(mealprep.TracerNameCLI)
	}
	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return exitUsage
	}

	commands := map[string]func(context.Context, []string) error{
		"plan":    a.plan,
		"week":    a.week,
		"grocery": a.grocery,
		"index":   a.index,
		"inspect": a.inspect,
		"tools":   a.tools,
	}
	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		fmt.Fprint(a.stdout, usage)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.stderr, "mealprep: unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	ctx, span := a.tracer.Start(ctx, "mealprep."+name, trace.WithAttributes(
		attribute.StringSlice("args", rest),
	))
	defer span.End()

	err := cmd(ctx, rest)
	code := exitCode(err)
	span.SetAttributes(attribute.Int("exit_code", code))
	if err != nil && code != exitOK {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		fmt.Fprintf(a.stderr, "mealprep %s: %v\n", name, err)
	}
	return code
}

func exitCode(err error) int {
	var ue *usageError
	var le *catalog.LoadError
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.As(err, &ue), errors.Is(err, planner.ErrInvalidParameters):
		return exitUsage
	case errors.As(err, &le):
		return exitCatalog
	case errors.Is(err, planner.ErrInsufficientEligibleRecipes):
		return exitNoPlan
	}
	return exitFailure
}

func createFile(name string) (io.WriteCloser, error) { return os.Create(name) }

func newS3Client(ctx context.Context) (storage.S3API, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}
