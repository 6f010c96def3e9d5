package grocery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"mealprep/catalog"
	"mealprep/ingredient"
)

// Resolver looks recipes up by name. *catalog.Catalog satisfies it.
type Resolver interface {
	Lookup(name string) (catalog.RecipeSummary, error)
}

// Consolidate resolves names in order and merges their ingredients. Names that do not
// resolve are collected in Missing and never fail the call. A name given twice counts
// its recipe twice.
func Consolidate(r Resolver, names []string) *List {
	l := newList()
	for _, name := range names {
		recipe, err := r.Lookup(name)
		if err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				slog.Warn("GROCERY: Lookup failed", "recipe", name, "error", err)
			}
			l.addMissing(name)
			continue
		}
		l.addRecipe(recipe.Name, recipe.Ingredients)
	}
	slog.Debug("GROCERY: Consolidated", "recipes", len(l.recipes), "missing", len(l.missing), "ingredients", len(l.entries))
	return l
}

// Format writes the list as plain text.
func (l *List) Format(w io.Writer) error {
	items := l.Items()
	var b strings.Builder
	b.WriteString("GROCERY SHOPPING LIST\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	if len(items) == 0 {
		b.WriteString("No ingredients found.\n")
	}
	for _, it := range items {
		fmt.Fprintf(&b, "• %s: %s", it.Name, describe(it))
		if it.Recipes > 1 {
			fmt.Fprintf(&b, " (%d recipes)", it.Recipes)
		}
		if it.Optional {
			b.WriteString(" [optional]")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal ingredients: %d\n", len(items))
	if len(l.missing) > 0 {
		fmt.Fprintf(&b, "Recipes not found: %s\n", strings.Join(l.missing, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func describe(it Item) string {
	switch {
	case it.Amount.Specified:
		return it.Amount.String()
	case it.Unit != "":
		return "as needed (" + it.Unit + ")"
	}
	return "as needed"
}

// View returns the items in their serialized form, as used by JSON output and tools.
func (l *List) View() []map[string]any {
	out := make([]map[string]any, 0, len(l.entries))
	for _, it := range l.Items() {
		m := map[string]any{"name": it.Name, "recipes": it.Recipes, "quantity": nil}
		if it.Amount.Specified {
			m["quantity"] = it.Amount.Value
		}
		if it.Unit != "" {
			m["unit"] = it.Unit
		}
		if it.Optional {
			m["optional"] = true
		}
		if it.Note != "" {
			m["note"] = it.Note
		}
		out = append(out, m)
	}
	return out
}

func (l *List) MarshalJSON() ([]byte, error) {
	missing := l.missing
	if missing == nil {
		missing = []string{}
	}
	return json.Marshal(struct {
		Items    []map[string]any `json:"items"`
		Missing  []string         `json:"missing"`
		Excluded []string         `json:"excluded,omitempty"`
	}{l.View(), missing, l.excluded})
}

// Total returns the specified total for an ingredient in a unit, if one exists.
func (l *List) Total(name, unit string) (ingredient.Amount, bool) {
	e, ok := l.entries[ingredient.NormalizeName(name)]
	if !ok || e.bare > 0 {
		return ingredient.Unspecified(), ok
	}
	b, ok := e.units[ingredient.NormalizeUnit(unit)]
	if !ok {
		return ingredient.Unspecified(), false
	}
	return b.amount, true
}
