package catalog

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"mealprep/ingredient"
)

// Index is the on-disk layout of a recipe index. JSON indexes decode through the same
// path since JSON is valid YAML.
type Index struct {
	Recipes []Record `yaml:"recipes"`
	Summary *Summary `yaml:"summary,omitempty"`
}

// Summary mirrors the statistics block written next to the sorted recipes.
type Summary struct {
	TotalRecipes int       `yaml:"total_recipes"`
	ActiveRange  TimeRange `yaml:"active_cooking_time_range"`
}

// TimeRange is an inclusive range in minutes.
type TimeRange struct {
	MinMinutes int `yaml:"min_minutes"`
	MaxMinutes int `yaml:"max_minutes"`
}

// Record is one recipe as stored in the index.
type Record struct {
	Name          string             `yaml:"name"`
	ActiveMinutes *int               `yaml:"active_minutes,omitempty"`
	TotalMinutes  *int               `yaml:"total_minutes,omitempty"`
	Tags          []string           `yaml:"tags,flow"`
	Tools         []string           `yaml:"tools,omitempty,flow"`
	Ingredients   []IngredientRecord `yaml:"ingredients,omitempty"`
	FilePath      string             `yaml:"file_path,omitempty"`

	// Older indexes spell the times out.
	LegacyActive *int `yaml:"active_cooking_time_minutes,omitempty"`
	LegacyTotal  *int `yaml:"total_cooking_time_minutes,omitempty"`
}

// IngredientRecord is an ingredient in the index, either a mapping
// {name, quantity, unit} or a plain line such as "Soy sauce [2 tablespoons]".
type IngredientRecord struct {
	Name     string   `yaml:"name"`
	Quantity *float64 `yaml:"quantity,omitempty"`
	Unit     string   `yaml:"unit,omitempty"`
	Note     string   `yaml:"note,omitempty"`
	Optional bool     `yaml:"optional,omitempty"`
}

func (r *IngredientRecord) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		e, err := ingredient.ParseLine(n.Value)
		if err != nil {
			return err
		}
		*r = NewIngredientRecord(e)
		return nil
	}
	type plain IngredientRecord
	return n.Decode((*plain)(r))
}

// NewIngredientRecord converts an entry to its index form.
func NewIngredientRecord(e ingredient.Entry) IngredientRecord {
	r := IngredientRecord{Name: e.Name, Note: e.Note, Optional: e.Optional}
	if e.Amount.Specified {
		v := e.Amount.Value
		r.Quantity = &v
		r.Unit = e.Amount.Unit
	}
	return r
}

// Entry converts the record to an ingredient entry.
func (r IngredientRecord) Entry() (ingredient.Entry, error) {
	e := ingredient.Entry{Name: r.Name, Note: r.Note, Optional: r.Optional}
	switch {
	case r.Quantity != nil:
		e.Amount = ingredient.Quantity(*r.Quantity, r.Unit)
	case r.Unit != "":
		return e, fmt.Errorf("%w: %q has unit %q without a quantity", ingredient.ErrMalformed, r.Name, r.Unit)
	}
	return e, e.Validate()
}

// NewRecord converts a summary to its index form.
func NewRecord(r RecipeSummary) Record {
	active, total := r.ActiveMinutes, r.TotalMinutes
	rec := Record{
		Name:          r.Name,
		ActiveMinutes: &active,
		TotalMinutes:  &total,
		Tags:          r.Tags,
		Tools:         r.Tools,
		FilePath:      r.FilePath,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	for _, e := range r.Ingredients {
		rec.Ingredients = append(rec.Ingredients, NewIngredientRecord(e))
	}
	return rec
}

// Summary converts the record to a catalog entry.
func (r Record) Summary() (RecipeSummary, error) {
	active, total := r.ActiveMinutes, r.TotalMinutes
	if active == nil {
		active = r.LegacyActive
	}
	if total == nil {
		total = r.LegacyTotal
	}
	if active == nil || total == nil {
		return RecipeSummary{}, fmt.Errorf("%q: missing active or total time", r.Name)
	}

	s := RecipeSummary{
		Name:          r.Name,
		ActiveMinutes: *active,
		TotalMinutes:  *total,
		Tags:          r.Tags,
		Tools:         r.Tools,
		FilePath:      r.FilePath,
	}
	for i, ir := range r.Ingredients {
		e, err := ir.Entry()
		if err != nil {
			return RecipeSummary{}, fmt.Errorf("%q: ingredient %d: %w", r.Name, i+1, err)
		}
		s.Ingredients = append(s.Ingredients, e)
	}
	return s, nil
}

// Decode parses an index. The recipes may sit under "recipes", under the older
// "sorted_recipes_by_active_cooking_time" key, or form a top-level sequence. A record
// that fails to decode or validate is skipped with a warning; only an unreadable
// document is an error.
func Decode(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("parse index: empty document")
	}

	nodes, err := recordNodes(doc.Content[0])
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	for i, n := range nodes {
		var rec Record
		if err := n.Decode(&rec); err != nil {
			b.skip(i, nameOf(n), err)
			continue
		}
		s, err := rec.Summary()
		if err != nil {
			b.skip(i, rec.Name, err)
			continue
		}
		b.add(i, s)
	}
	return b.build(), nil
}

func recordNodes(root *yaml.Node) ([]*yaml.Node, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return root.Content, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			switch root.Content[i].Value {
			case "recipes", "sorted_recipes_by_active_cooking_time":
				list := root.Content[i+1]
				if list.Kind != yaml.SequenceNode {
					return nil, fmt.Errorf("parse index: %q is not a list", root.Content[i].Value)
				}
				return list.Content, nil
			}
		}
		return nil, errors.New("parse index: no recipes list")
	}
	return nil, errors.New("parse index: unexpected document shape")
}

func nameOf(n *yaml.Node) string {
	if n.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "name" {
			return n.Content[i+1].Value
		}
	}
	return ""
}

// Encode writes recipes as a sorted index with its summary block.
func Encode(c *Catalog) ([]byte, error) {
	idx := Index{Recipes: make([]Record, 0, c.Len())}
	for r := range c.All() {
		idx.Recipes = append(idx.Recipes, NewRecord(r))
	}
	if lo, hi, ok := c.ActiveRange(); ok {
		idx.Summary = &Summary{TotalRecipes: c.Len(), ActiveRange: TimeRange{MinMinutes: lo, MaxMinutes: hi}}
	}
	return yaml.Marshal(idx)
}
