// Package catalog holds the read-only recipe index a planning run works from. A Catalog
// is built once, never mutated, and safe to share between goroutines.
package catalog

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
)

// WarningKind classifies a problem absorbed while building a catalog.
type WarningKind string

const (
	RecordSkipped WarningKind = "record_skipped"
	DuplicateName WarningKind = "duplicate_name"
)

// Warning describes one record that was skipped or superseded.
type Warning struct {
	Kind  WarningKind
	Index int
	Name  string
	Err   error
}

func (w Warning) String() string {
	switch w.Kind {
	case DuplicateName:
		return fmt.Sprintf("record %d: %q supersedes an earlier record with the same name", w.Index, w.Name)
	default:
		return fmt.Sprintf("record %d skipped: %v", w.Index, w.Err)
	}
}

// LoadError is returned when the index as a whole cannot be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source provides the raw bytes of an index.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Catalog is an immutable, time-sorted set of recipes keyed by name.
type Catalog struct {
	recipes  []RecipeSummary
	byName   map[string]int
	warnings []Warning
}

// New builds a catalog from recipes. Invalid recipes are skipped and later duplicates
// supersede earlier ones; both are reported through Warnings.
func New(recipes []RecipeSummary) *Catalog {
	b := newBuilder()
	for i, r := range recipes {
		b.add(i, r)
	}
	return b.build()
}

// Load reads and decodes the index from src. Any failure to obtain or parse the index is
// returned as a *LoadError; per-record problems are logged and kept as warnings.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	name := fmt.Sprint(src)
	data, err := src.Load(ctx)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	c, err := Decode(data)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	for _, w := range c.warnings {
		slog.Warn("CATALOG: "+string(w.Kind), "source", name, "record", w.Index, "name", w.Name, "error", w.Err)
	}
	slog.Info("CATALOG: Loaded", "source", name, "recipes", c.Len(), "warnings", len(c.warnings))
	return c, nil
}

// Len returns the number of recipes.
func (c *Catalog) Len() int { return len(c.recipes) }

// Warnings returns the problems absorbed while building the catalog.
func (c *Catalog) Warnings() []Warning { return slices.Clone(c.warnings) }

// Lookup returns the recipe with the exact (case-sensitive) name.
func (c *Catalog) Lookup(name string) (RecipeSummary, error) {
	i, ok := c.byName[name]
	if !ok {
		return RecipeSummary{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c.recipes[i], nil
}

// All yields every recipe in catalog order.
func (c *Catalog) All() iter.Seq[RecipeSummary] {
	return func(yield func(RecipeSummary) bool) {
		for _, r := range c.recipes {
			if !yield(r) {
				return
			}
		}
	}
}

// RecipesWithin lazily yields recipes whose active and total times fit the caps, ordered
// by active time, then total time, then name.
func (c *Catalog) RecipesWithin(maxActive, maxTotal int) iter.Seq[RecipeSummary] {
	return func(yield func(RecipeSummary) bool) {
		for _, r := range c.recipes {
			if r.ActiveMinutes > maxActive {
				return
			}
			if r.TotalMinutes <= maxTotal && !yield(r) {
				return
			}
		}
	}
}

// ActiveRange returns the smallest and largest active times in the catalog.
func (c *Catalog) ActiveRange() (minMinutes, maxMinutes int, ok bool) {
	if len(c.recipes) == 0 {
		return 0, 0, false
	}
	return c.recipes[0].ActiveMinutes, c.recipes[len(c.recipes)-1].ActiveMinutes, true
}

type builder struct {
	recipes  []RecipeSummary
	byName   map[string]int
	warnings []Warning
}

func newBuilder() *builder {
	return &builder{byName: map[string]int{}}
}

func (b *builder) skip(index int, name string, err error) {
	b.warnings = append(b.warnings, Warning{Kind: RecordSkipped, Index: index, Name: name, Err: err})
}

func (b *builder) add(index int, r RecipeSummary) {
	r = r.clone()
	if err := r.Validate(); err != nil {
		b.skip(index, r.Name, err)
		return
	}
	if i, ok := b.byName[r.Name]; ok {
		b.warnings = append(b.warnings, Warning{Kind: DuplicateName, Index: index, Name: r.Name})
		b.recipes[i] = r
		return
	}
	b.byName[r.Name] = len(b.recipes)
	b.recipes = append(b.recipes, r)
}

func (b *builder) build() *Catalog {
	slices.SortFunc(b.recipes, compareRecipes)
	byName := make(map[string]int, len(b.recipes))
	for i, r := range b.recipes {
		byName[r.Name] = i
	}
	return &Catalog{recipes: b.recipes, byName: byName, warnings: b.warnings}
}
