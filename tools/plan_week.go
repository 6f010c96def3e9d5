package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealprep/catalog"
	"mealprep/planner"
)

// PlanWeek fills the standard week: quick weekday dinners and more relaxed weekend meals.
type PlanWeek struct {
	catalog      *catalog.Catalog
	schedule     planner.Schedule
	allowRepeats bool
}

func NewPlanWeek(c *catalog.Catalog, allowRepeats bool) *PlanWeek {
	return &PlanWeek{catalog: c, schedule: planner.WeeklySchedule(), allowRepeats: allowRepeats}
}

func (t *PlanWeek) Name() string  { return "plan_week" }
func (t *PlanWeek) Title() string { return "Plan Week" }
func (t *PlanWeek) Description() string {
	return "Plans a full week where each meal has its own time limits: weekday dinners under 20 minutes active and 40 total, longer weekend lunches and dinners. Returns the plan grouped by day, or a failure naming the meal that could not be filled."
}

func (t *PlanWeek) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"seed":          {Type: "integer", Minimum: minimum(0), Description: "Makes the plan reproducible"},
			"allow_repeats": {Type: "boolean"},
		},
	}
}

func (t *PlanWeek) OutputSchema() *jsonschema.Schema {
	return planOutputSchema()
}

func (t *PlanWeek) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repeats := t.allowRepeats
	if _, ok := input["allow_repeats"]; ok {
		v, err := boolArg(input, "allow_repeats")
		if err != nil {
			return invalidInput(err.Error())
		}
		repeats = v
	}
	rng, err := seedArg(input)
	if err != nil {
		return invalidInput(err.Error())
	}

	plan, err := planner.ComposeSchedule(t.catalog, t.schedule, repeats, rng)
	if err != nil {
		slog.Info("TOOL: No plan", "tool", t.Name(), "reason", err)
		return failure(err)
	}
	return asMap(plan)
}
