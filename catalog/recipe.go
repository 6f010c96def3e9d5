package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mealprep/ingredient"
)

// ErrNotFound is returned by Lookup for unknown recipe names.
var ErrNotFound = errors.New("recipe not found")

// errIntegrity marks records whose data contradicts itself, such as a total time shorter
// than the active time.
var errIntegrity = errors.New("data integrity")

// RecipeSummary is the catalog view of one recipe. Values handed out by a Catalog share
// their slices with it and must be treated as read-only.
type RecipeSummary struct {
	Name          string
	ActiveMinutes int
	TotalMinutes  int
	Tags          []string
	Ingredients   []ingredient.Entry
	Tools         []string
	FilePath      string
}

// Validate checks the invariants a catalog entry must hold.
func (r RecipeSummary) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("missing name")
	}
	if r.ActiveMinutes < 0 {
		return fmt.Errorf("%s: negative active time %d", r.Name, r.ActiveMinutes)
	}
	if r.TotalMinutes < r.ActiveMinutes {
		return fmt.Errorf("%w: %s: total time %d is less than active time %d",
			errIntegrity, r.Name, r.TotalMinutes, r.ActiveMinutes)
	}
	for i, e := range r.Ingredients {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%s: ingredient %d: %w", r.Name, i+1, err)
		}
	}
	return nil
}

// Fits reports whether the recipe respects both time caps.
func (r RecipeSummary) Fits(maxActive, maxTotal int) bool {
	return r.ActiveMinutes <= maxActive && r.TotalMinutes <= maxTotal
}

// HasTag reports whether the recipe carries tag, ignoring case.
func (r RecipeSummary) HasTag(tag string) bool {
	return slices.ContainsFunc(r.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

func (r RecipeSummary) clone() RecipeSummary {
	r.Name = strings.TrimSpace(r.Name)
	r.Tags = uniq(r.Tags)
	r.Tools = uniq(r.Tools)
	r.Ingredients = slices.Clone(r.Ingredients)
	return r
}

func uniq(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func compareRecipes(a, b RecipeSummary) int {
	if a.ActiveMinutes != b.ActiveMinutes {
		return a.ActiveMinutes - b.ActiveMinutes
	}
	if a.TotalMinutes != b.TotalMinutes {
		return a.TotalMinutes - b.TotalMinutes
	}
	return strings.Compare(a.Name, b.Name)
}
