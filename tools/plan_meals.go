package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealprep/catalog"
	"mealprep/planner"
)

type PlanMeals struct {
	catalog      *catalog.Catalog
	allowRepeats bool
}

// NewPlanMeals returns the plan_meals tool. allowRepeats is the default used when the
// input does not say.
func NewPlanMeals(c *catalog.Catalog, allowRepeats bool) *PlanMeals {
	return &PlanMeals{catalog: c, allowRepeats: allowRepeats}
}

func (t *PlanMeals) Name() string  { return "plan_meals" }
func (t *PlanMeals) Title() string { return "Plan Meals" }
func (t *PlanMeals) Description() string {
	return "Plans one recipe per meal for a number of days, keeping every meal within the active and total cooking time limits. Returns the plan grouped by day, or a failure explaining which limit to relax."
}

func (t *PlanMeals) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"days":          {Type: "integer", Minimum: minimum(1)},
			"meals_per_day": {Type: "integer", Minimum: minimum(1)},
			"active_time":   {Type: "integer", Minimum: minimum(0), Description: "Maximum active cooking minutes per meal"},
			"total_time":    {Type: "integer", Minimum: minimum(0), Description: "Maximum total cooking minutes per meal"},
			"seed":          {Type: "integer", Minimum: minimum(0), Description: "Makes the plan reproducible"},
			"allow_repeats": {Type: "boolean"},
		},
		Required: []string{"days", "meals_per_day", "active_time", "total_time"},
	}
}

func (t *PlanMeals) OutputSchema() *jsonschema.Schema {
	return planOutputSchema()
}

func (t *PlanMeals) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := planner.Request{AllowRepeats: t.allowRepeats}
	for _, arg := range []struct {
		key string
		dst *int
	}{
		{"days", &req.Days},
		{"meals_per_day", &req.MealsPerDay},
		{"active_time", &req.ActiveCap},
		{"total_time", &req.TotalCap},
	} {
		v, ok, err := intArg(input, arg.key)
		if err != nil {
			return invalidInput(err.Error())
		}
		if !ok {
			return invalidInput(arg.key + " is required")
		}
		*arg.dst = v
	}
	if _, ok := input["allow_repeats"]; ok {
		repeats, err := boolArg(input, "allow_repeats")
		if err != nil {
			return invalidInput(err.Error())
		}
		req.AllowRepeats = repeats
	}
	rng, err := seedArg(input)
	if err != nil {
		return invalidInput(err.Error())
	}

	plan, err := planner.Compose(t.catalog, req, rng)
	if err != nil {
		slog.Info("TOOL: No plan", "tool", t.Name(), "reason", err)
		return failure(err)
	}
	return asMap(plan)
}

func invalidInput(reason string) (map[string]any, error) {
	return failure(&planner.PlanError{Kind: planner.InvalidParameters, Reason: reason})
}

func planOutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"days": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"day":   {Type: "integer"},
						"label": {Type: "string"},
						"meals": {
							Type: "array",
							Items: &jsonschema.Schema{
								Type: "object",
								Properties: map[string]*jsonschema.Schema{
									"meal":           {Type: "string"},
									"recipe":         {Type: "string"},
									"active_minutes": {Type: "integer"},
									"total_minutes":  {Type: "integer"},
								},
							},
						},
					},
				},
			},
			"recipes": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"failure": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"kind":       {Type: "string", Enum: []any{string(planner.InvalidParameters), string(planner.InsufficientEligibleRecipes)}},
					"reason":     {Type: "string"},
					"eligible":   {Type: "integer"},
					"required":   {Type: "integer"},
					"active_cap": {Type: "integer"},
					"total_cap":  {Type: "integer"},
					"slot":       {Type: "string"},
				},
			},
		},
	}
}
