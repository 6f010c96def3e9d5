package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"mealprep"
	"mealprep/catalog"
	"mealprep/grocery"
	"mealprep/indexer"
	"mealprep/planner"
	"mealprep/slack"
	"mealprep/tools"
	"mealprep/tools/storage"
)

// outputFlags are shared by the commands that print a plan or a list.
type outputFlags struct {
	catalog string
	json    bool
	output  string
	notify  bool
}

func (o *outputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.catalog, "catalog", "", "recipe index file (default $MEALPREP_CATALOG_PATH, or S3 when configured)")
	fs.BoolVar(&o.json, "json", false, "print JSON instead of text")
	fs.StringVarP(&o.output, "output", "o", "", "write to this file instead of standard output")
	fs.BoolVar(&o.notify, "notify", false, "also post the result to Slack")
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.SortFlags = false
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return &usageError{err}
	}
	return nil
}

// openCatalog loads the index named by --catalog, or the configured S3 object or file.
func (a *app) openCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	var src catalog.Source
	switch {
	case path != "":
		src = storage.NewFileCatalogState(path)
	case a.cfg.Catalog.UseS3():
		client, err := a.s3Client(ctx)
		if err != nil {
			return nil, &catalog.LoadError{Source: "s3://" + a.cfg.Catalog.S3Bucket + "/" + a.cfg.Catalog.S3Key, Err: err}
		}
		src = storage.NewS3CatalogState(client, a.cfg.Catalog.S3Bucket, a.cfg.Catalog.S3Key)
	default:
		src = storage.NewFileCatalogState(a.cfg.Catalog.Path)
	}
	return catalog.Load(ctx, src)
}

// emit renders v as JSON or text to the chosen output and posts it to Slack on request.
func (a *app) emit(ctx context.Context, o outputFlags, v slack.Formatter) error {
	if err := a.write(o, v); err != nil {
		return err
	}
	if o.notify {
		return a.notify(ctx, v)
	}
	return nil
}

func (a *app) write(o outputFlags, v slack.Formatter) (err error) {
	w := a.stdout
	if o.output != "" {
		f, err := a.create(o.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close %s: %w", o.output, cerr))
			}
		}()
		w = f
	}

	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return v.Format(w)
}

func (a *app) notify(ctx context.Context, parts ...slack.Formatter) error {
	if a.cfg.Notify.WebhookURL == "" {
		return usagef("--notify needs SLACK_WEBHOOK_URL")
	}
	msg, err := slack.Message(parts...)
	if err != nil {
		return err
	}
	if err := a.slack(a.cfg.Notify.WebhookURL).PostMessage(ctx, a.cfg.Notify.Channel, msg); err != nil {
		return fmt.Errorf("notify %s: %w", a.cfg.Notify.Channel, err)
	}
	slog.Info("RESULT: Posted to Slack", "channel", a.cfg.Notify.Channel)
	return nil
}

func newSlackClient(webhookURL string, hc mealprep.HTTPClient) mealprep.SlackClient {
	return slack.NewClient(webhookURL, hc)
}

// explain prints what a caller can relax after a failed plan.
func (a *app) explain(c *catalog.Catalog, err error, o outputFlags) error {
	var pe *planner.PlanError
	if !errors.As(err, &pe) {
		return err
	}
	if o.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if jerr := enc.Encode(map[string]any{"failure": pe}); jerr != nil {
			return jerr
		}
	}
	if pe.Kind == planner.InsufficientEligibleRecipes {
		if lo, hi, ok := c.ActiveRange(); ok {
			fmt.Fprintf(a.stderr, "Catalog has %d recipes with active times from %d to %d minutes.\n", c.Len(), lo, hi)
		}
	}
	return err
}

// planList adapts several candidate plans to one Formatter.
type planList []*planner.MealPlan

func (p planList) Format(w io.Writer) error {
	for i, plan := range p {
		if _, err := fmt.Fprintf(w, "Candidate %d\n\n", i+1); err != nil {
			return err
		}
		if err := plan.Format(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) plan(ctx context.Context, args []string) error {
	fs := a.flags("plan")
	var (
		o   outputFlags
		req planner.Request
	)
	fs.IntVar(&req.Days, "days", 0, "number of days to plan (required)")
	fs.IntVar(&req.MealsPerDay, "meals-per-day", 0, "meals per day (required)")
	fs.IntVar(&req.ActiveCap, "active-time", 0, "maximum active cooking minutes per meal (required)")
	fs.IntVar(&req.TotalCap, "total-time", 0, "maximum total cooking minutes per meal (required)")
	seed := fs.Uint64("seed", 0, "random seed for a reproducible plan")
	fs.BoolVar(&req.AllowRepeats, "allow-repeats", a.cfg.Planner.AllowRepeats, "allow a recipe more than once")
	candidates := fs.Int("candidates", a.cfg.Planner.Candidates, "number of alternative plans to generate")
	o.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	for _, name := range []string{"days", "meals-per-day", "active-time", "total-time"} {
		if !fs.Changed(name) {
			return usagef("--%s is required", name)
		}
	}
	if *candidates < 1 {
		return usagef("--candidates must be at least 1")
	}

	c, err := a.openCatalog(ctx, o.catalog)
	if err != nil {
		return err
	}

	if *candidates == 1 {
		var rng *rand.Rand
		if fs.Changed("seed") {
			rng = planner.NewRand(*seed)
		}
		plan, err := planner.Compose(c, req, rng)
		if err != nil {
			return a.explain(c, err, o)
		}
		return a.emit(ctx, o, plan)
	}

	base := *seed
	if !fs.Changed("seed") {
		base = rand.Uint64()
	}
	plans, err := planner.ComposeBatch(ctx, c, req, planner.Seeds(base, *candidates))
	if err != nil {
		return a.explain(c, err, o)
	}
	return a.emit(ctx, o, planList(plans))
}

func (a *app) week(ctx context.Context, args []string) error {
	fs := a.flags("week")
	var o outputFlags
	seed := fs.Uint64("seed", 0, "random seed for a reproducible plan")
	repeats := fs.Bool("allow-repeats", a.cfg.Planner.AllowRepeats, "allow a recipe more than once")
	withList := fs.Bool("grocery", false, "append the shopping list for the planned week")
	o.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	c, err := a.openCatalog(ctx, o.catalog)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if fs.Changed("seed") {
		rng = planner.NewRand(*seed)
	}
	plan, err := planner.ComposeSchedule(c, planner.WeeklySchedule(), *repeats, rng)
	if err != nil {
		return a.explain(c, err, o)
	}
	if !*withList {
		return a.emit(ctx, o, plan)
	}
	list := grocery.Consolidate(c, plan.RecipeNames()).Without(a.cfg.Grocery.Exclude...)
	return a.emit(ctx, o, weekWithList{Plan: plan, Grocery: list})
}

type weekWithList struct {
	Plan    *planner.MealPlan `json:"plan"`
	Grocery *grocery.List     `json:"grocery"`
}

func (w weekWithList) Format(out io.Writer) error {
	if err := w.Plan.Format(out); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return w.Grocery.Format(out)
}

func (a *app) grocery(ctx context.Context, args []string) error {
	fs := a.flags("grocery")
	var o outputFlags
	planFile := fs.String("plan", "", `read recipe names from a plan written with --json ("-" for standard input)`)
	exclude := fs.StringSlice("exclude", a.cfg.Grocery.Exclude, "ingredients to leave off the list")
	o.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	names := fs.Args()
	if *planFile != "" {
		fromPlan, err := a.readPlan(*planFile)
		if err != nil {
			return err
		}
		names = append(fromPlan, names...)
	}
	if len(names) == 0 {
		return usagef("name at least one recipe, or pass --plan")
	}

	c, err := a.openCatalog(ctx, o.catalog)
	if err != nil {
		return err
	}

	list := grocery.Consolidate(c, names).Without(*exclude...)
	if missing := list.Missing(); len(missing) > 0 {
		slog.Warn("GROCERY: Recipes not found", "names", missing)
	}
	return a.emit(ctx, o, list)
}

func (a *app) readPlan(path string) ([]string, error) {
	r := a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, usagef("read plan: %w", err)
		}
		defer f.Close()
		r = f
	}
	names, err := planner.ReadRecipeNames(r)
	if err != nil {
		return nil, usagef("read plan %s: %w", path, err)
	}
	return names, nil
}

func (a *app) index(ctx context.Context, args []string) error {
	fs := a.flags("index")
	output := fs.StringP("output", "o", a.cfg.Catalog.Path, "index file to write")
	toS3 := fs.Bool("s3", false, "upload the index to $MEALPREP_CATALOG_S3_BUCKET/$MEALPREP_CATALOG_S3_KEY")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return usagef("index takes one recipe directory, got %d", fs.NArg())
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}

	res, err := indexer.Build(ctx, os.DirFS(dir), ".")
	if err != nil {
		return err
	}
	for _, p := range res.Problems {
		fmt.Fprintf(a.stderr, "warning: %v\n", p)
	}

	var sink storage.CatalogSink = storage.NewFileCatalogState(*output)
	if *toS3 {
		if !a.cfg.Catalog.UseS3() {
			return usagef("--s3 needs MEALPREP_CATALOG_S3_BUCKET and MEALPREP_CATALOG_S3_KEY")
		}
		client, err := a.s3Client(ctx)
		if err != nil {
			return err
		}
		sink = storage.NewS3CatalogState(client, a.cfg.Catalog.S3Bucket, a.cfg.Catalog.S3Key)
	}
	if err := indexer.Write(ctx, res.Catalog, sink); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Indexed %d recipes from %d files into %s (%d problems)\n",
		res.Catalog.Len(), res.Files, sink, len(res.Problems))
	return nil
}

func (a *app) inspect(ctx context.Context, args []string) error {
	fs := a.flags("inspect")
	path := fs.String("catalog", "", "recipe index file (default $MEALPREP_CATALOG_PATH, or S3 when configured)")
	dump := fs.Bool("dump", false, "print every recipe in full")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := a.openCatalog(ctx, *path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Recipes: %d\n", c.Len())
	if lo, hi, ok := c.ActiveRange(); ok {
		fmt.Fprintf(a.stdout, "Active time: %d-%d minutes\n", lo, hi)
	}
	warnings := c.Warnings()
	fmt.Fprintf(a.stdout, "Warnings: %d\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(a.stdout, "  %s\n", w)
	}
	if *dump {
		var recipes []catalog.RecipeSummary
		for r := range c.All() {
			recipes = append(recipes, r)
		}
		mealprep.Dump(a.stdout, recipes)
	}
	return nil
}

func (a *app) tools(ctx context.Context, args []string) error {
	fs := a.flags("tools")
	path := fs.String("catalog", "", "recipe index file (default $MEALPREP_CATALOG_PATH, or S3 when configured)")
	list := fs.Bool("list", false, "list the tools and their input schemas")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return usagef("tools reads one file of calls, got %d", fs.NArg())
	}

	c, err := a.openCatalog(ctx, *path)
	if err != nil {
		return err
	}
	registry, err := tools.NewRegistry(c, tools.Options{
		AllowRepeats: a.cfg.Planner.AllowRepeats,
		Exclude:      a.cfg.Grocery.Exclude,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if *list {
		var out []map[string]any
		for _, t := range registry.GetTools() {
			out = append(out, map[string]any{
				"name":          t.Name(),
				"title":         t.Title(),
				"description":   t.Description(),
				"input_schema":  t.InputSchema(),
				"output_schema": t.OutputSchema(),
			})
		}
		return enc.Encode(out)
	}

	calls, err := a.readCalls(fs.Arg(0))
	if err != nil {
		return err
	}

	runID := mealprep.NewRunID()
	logger, cleanup, err := a.newRunLogger(runID)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush run journal", "error", err)
		}
	}()

	runner := mealprep.NewRunner(registry,
		mealprep.WithRunLogger(runID, logger),
		mealprep.WithTelemetry(a.tracer, a.meter),
	)
	results, err := runner.Run(ctx, calls)
	if err != nil {
		return err
	}
	return enc.Encode(results)
}

// readCalls accepts a JSON array of calls or a single call object.
func (a *app) readCalls(path string) ([]tools.Call, error) {
	r := a.stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, usagef("read calls: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var calls []tools.Call
	if err := json.Unmarshal(data, &calls); err != nil {
		var call tools.Call
		if err := json.Unmarshal(data, &call); err != nil || call.Name == "" {
			return nil, usagef("calls must be a JSON object or array of {\"name\", \"input\"}")
		}
		calls = []tools.Call{call}
	}
	return calls, nil
}

func (a *app) newRunLogger(runID string) (mealprep.RunLogger, func() error, error) {
	if a.cfg.Journal.Dir == "" {
		return mealprep.NewNoOpRunLogger(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(a.cfg.Journal.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	logFile, err := os.Create(mealprep.NewRunLogFilePath(a.cfg.Journal.Dir, "tools"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	logger := mealprep.NewFileRunLogger(runID, logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
