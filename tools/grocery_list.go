package tools

import (
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealprep/grocery"
)

type GroceryList struct {
	recipes grocery.Resolver
	exclude []string
}

// NewGroceryList returns the grocery_list tool. exclude names the staples dropped
// from every list unless the input overrides it.
func NewGroceryList(r grocery.Resolver, exclude []string) *GroceryList {
	return &GroceryList{recipes: r, exclude: slices.Clone(exclude)}
}

func (t *GroceryList) Name() string  { return "grocery_list" }
func (t *GroceryList) Title() string { return "Grocery List" }
func (t *GroceryList) Description() string {
	return "Builds one shopping list for a set of recipes by name. Ingredients with the same name and unit are added together; amounts in different units stay on separate lines. Recipe names that are not in the catalog are reported under missing."
}

func (t *GroceryList) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Recipe names, for example the recipes of a plan",
			},
			"exclude": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Ingredients to leave off the list. Defaults to common staples such as water",
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *GroceryList) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"quantity": {Type: "number", Description: "Null when some recipe gives no amount"},
						"unit":     {Type: "string"},
						"recipes":  {Type: "integer"},
						"optional": {Type: "boolean"},
						"note":     {Type: "string"},
					},
					Required: []string{"name", "quantity", "recipes"},
				},
			},
			"missing":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"excluded": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"items", "missing"},
	}
}

func (t *GroceryList) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := stringsArg(input, "recipes")
	if err != nil {
		return nil, err
	}
	exclude := t.exclude
	if _, ok := input["exclude"]; ok {
		if exclude, err = stringsArg(input, "exclude"); err != nil {
			return nil, err
		}
	}

	list := grocery.Consolidate(t.recipes, names).Without(exclude...)
	return asMap(list)
}
