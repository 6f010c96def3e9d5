package tools

import (
	"fmt"
	"slices"
	"strings"

	"mealprep/catalog"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// Options holds the defaults tools fall back on when their input leaves a choice open.
type Options struct {
	AllowRepeats bool
	Exclude      []string
}

// NewRegistry creates a registry of every tool over the given catalog.
func NewRegistry(c *catalog.Catalog, opts Options) (*Registry, error) {
	if c == nil {
		return nil, fmt.Errorf("registry needs a catalog")
	}
	registry := Registry{}
	for _, t := range []Tool{
		NewRecipeGet(c),
		NewPlanMeals(c, opts.AllowRepeats),
		NewPlanWeek(c, opts.AllowRepeats),
		NewGroceryList(c, opts.Exclude),
	} {
		registry[t.Name()] = t
	}
	return &registry, nil
}

// GetTools returns all tools in the registry, ordered by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	slices.SortFunc(tools, func(a, b Tool) int { return strings.Compare(a.Name(), b.Name()) })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
