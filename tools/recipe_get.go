package tools

import (
	"context"
	"math"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealprep/catalog"
)

type RecipeGet struct{ catalog *catalog.Catalog }

func NewRecipeGet(c *catalog.Catalog) *RecipeGet { return &RecipeGet{catalog: c} }

func (t *RecipeGet) Name() string  { return "recipe_get" }
func (t *RecipeGet) Title() string { return "Get Recipes" }
func (t *RecipeGet) Description() string {
	return "Gets recipes by exact name, or all recipes within optional active/total time limits and tags, quickest first."
}

func (t *RecipeGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":       {Type: "string", Description: "Exact recipe name"},
			"max_active": {Type: "integer", Minimum: minimum(0), Description: "Maximum active cooking minutes"},
			"max_total":  {Type: "integer", Minimum: minimum(0), Description: "Maximum total cooking minutes"},
			"tags": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Keep recipes carrying any of these tags",
			},
		},
	}
}

func (t *RecipeGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":           {Type: "string"},
						"active_minutes": {Type: "integer"},
						"total_minutes":  {Type: "integer"},
						"tags":           {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"tools":          {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"ingredients":    {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
				},
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *RecipeGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if name, _ := input["name"].(string); name != "" {
		r, err := t.catalog.Lookup(name)
		if err != nil {
			return map[string]any{"recipes": []map[string]any{}}, nil
		}
		return map[string]any{"recipes": []map[string]any{recipeView(r)}}, nil
	}

	maxActive, ok, err := intArg(input, "max_active")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxActive = math.MaxInt
	}
	maxTotal, ok, err := intArg(input, "max_total")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxTotal = math.MaxInt
	}
	tags, err := stringsArg(input, "tags")
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for r := range t.catalog.RecipesWithin(maxActive, maxTotal) {
		if len(tags) > 0 && !slices.ContainsFunc(tags, r.HasTag) {
			continue
		}
		out = append(out, recipeView(r))
	}
	return map[string]any{"recipes": out}, nil
}

func recipeView(r catalog.RecipeSummary) map[string]any {
	ingredients := make([]string, 0, len(r.Ingredients))
	for _, e := range r.Ingredients {
		ingredients = append(ingredients, e.String())
	}
	view := map[string]any{
		"name":           r.Name,
		"active_minutes": r.ActiveMinutes,
		"total_minutes":  r.TotalMinutes,
		"tags":           nonNil(r.Tags),
		"tools":          nonNil(r.Tools),
		"ingredients":    ingredients,
	}
	if r.FilePath != "" {
		view["file_path"] = r.FilePath
	}
	return view
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
