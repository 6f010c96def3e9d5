// Package grocery turns a set of recipes into one shopping list.
//
// Entries are merged by normalized ingredient name and unit. Quantities with the same
// unit are summed; different units stay on separate lines because nothing here knows
// how to convert between them. A recipe that names an ingredient without an amount
// makes every line for that ingredient "as needed", since a partial total would
// understate what to buy.
package grocery

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"mealprep/ingredient"
)

const (
	noteUnquantified = "at least one recipe lists it without an amount"
	noteManyUnits    = "also listed in other units"
)

// Item is one line of a shopping list.
type Item struct {
	Name     string
	Unit     string
	Amount   ingredient.Amount
	Recipes  int
	Optional bool
	Note     string
}

func (i Item) String() string {
	var b strings.Builder
	b.WriteString(i.Name)
	if i.Amount.Specified {
		b.WriteString(" [" + i.Amount.String() + "]")
	} else if i.Unit != "" {
		b.WriteString(" [as needed, " + i.Unit + "]")
	}
	return b.String()
}

// bucket is the running total for one unit of one ingredient.
type bucket struct {
	amount  ingredient.Amount
	recipes int
}

// entry gathers every mention of one normalized ingredient name.
type entry struct {
	display  string
	units    map[string]*bucket
	bare     int
	required bool
}

// List is a consolidated shopping list together with the recipe names that could not
// be resolved. Lists are not modified once built; Merge and Without return new lists.
type List struct {
	entries  map[string]*entry
	recipes  []string
	missing  []string
	excluded []string
}

func newList() *List {
	return &List{entries: map[string]*entry{}}
}

// Recipes returns the resolved recipe names in input order.
func (l *List) Recipes() []string { return slices.Clone(l.recipes) }

// Missing returns the names that did not resolve, without duplicates.
func (l *List) Missing() []string { return slices.Clone(l.missing) }

// Len returns the number of items.
func (l *List) Len() int { return len(l.Items()) }

// addRecipe folds one recipe's ingredients into the list. Repeated lines for the same
// ingredient within a recipe are collapsed first so the recipe is counted once.
func (l *List) addRecipe(name string, entries []ingredient.Entry) {
	l.recipes = append(l.recipes, name)

	type mention struct {
		display  string
		units    map[string]ingredient.Amount
		bare     bool
		required bool
	}
	var order []string
	local := map[string]*mention{}
	for _, e := range entries {
		k := e.Key()
		m, ok := local[k.Name]
		if !ok {
			m = &mention{display: strings.Join(strings.Fields(e.Name), " "), units: map[string]ingredient.Amount{}}
			local[k.Name] = m
			order = append(order, k.Name)
		}
		m.required = m.required || !e.Optional
		if !e.Amount.Specified {
			m.bare = true
			continue
		}
		sum, ok := m.units[k.Unit]
		if !ok {
			m.units[k.Unit] = ingredient.Quantity(e.Amount.Value, k.Unit)
			continue
		}
		m.units[k.Unit], _ = sum.Add(ingredient.Quantity(e.Amount.Value, k.Unit))
	}

	for _, key := range order {
		m := local[key]
		ent := l.entry(key, m.display)
		ent.required = ent.required || m.required
		if m.bare {
			ent.bare++
			continue
		}
		for unit, amt := range m.units {
			ent.add(unit, &bucket{amount: amt, recipes: 1})
		}
	}
}

func (l *List) entry(key, display string) *entry {
	ent, ok := l.entries[key]
	if !ok {
		ent = &entry{display: display, units: map[string]*bucket{}}
		l.entries[key] = ent
	}
	return ent
}

func (e *entry) add(unit string, b *bucket) {
	cur, ok := e.units[unit]
	if !ok {
		e.units[unit] = &bucket{amount: b.amount, recipes: b.recipes}
		return
	}
	cur.amount, _ = cur.amount.Add(b.amount)
	cur.recipes += b.recipes
}

func (l *List) addMissing(names ...string) {
	for _, n := range names {
		if !slices.Contains(l.missing, n) {
			l.missing = append(l.missing, n)
		}
	}
}

// Merge returns the list obtained by consolidating the recipes of l and other
// together. Merging is associative: consolidating [A, B] and merging [C] gives the
// same items as consolidating [A, B, C].
func (l *List) Merge(other *List) *List {
	out := newList()
	for _, src := range []*List{l, other} {
		out.recipes = append(out.recipes, src.recipes...)
		out.addMissing(src.missing...)
		for key, e := range src.entries {
			ent := out.entry(key, e.display)
			ent.bare += e.bare
			ent.required = ent.required || e.required
			for unit, b := range e.units {
				ent.add(unit, b)
			}
		}
	}
	return out
}

// Without returns a copy of the list with the named ingredients dropped. Names are
// compared after normalization.
func (l *List) Without(names ...string) *List {
	out := newList().Merge(l)
	out.excluded = slices.Clone(l.excluded)
	for _, n := range names {
		key := ingredient.NormalizeName(n)
		if e, ok := out.entries[key]; ok {
			out.excluded = append(out.excluded, e.display)
			delete(out.entries, key)
		}
	}
	return out
}

// Excluded returns the display names removed by Without.
func (l *List) Excluded() []string { return slices.Clone(l.excluded) }

// Items returns the list lines ordered by descending recipe count, then name, then unit.
func (l *List) Items() []Item {
	var items []Item
	for _, e := range l.entries {
		var note []string
		if e.bare > 0 {
			note = append(note, noteUnquantified)
		}
		if len(e.units) > 1 {
			note = append(note, noteManyUnits)
		}

		if len(e.units) == 0 {
			items = append(items, Item{
				Name:     e.display,
				Amount:   ingredient.Unspecified(),
				Recipes:  e.bare,
				Optional: !e.required,
				Note:     strings.Join(note, "; "),
			})
			continue
		}
		for _, unit := range slices.Sorted(maps.Keys(e.units)) {
			b := e.units[unit]
			it := Item{
				Name:     e.display,
				Unit:     unit,
				Amount:   b.amount,
				Recipes:  b.recipes,
				Optional: !e.required,
				Note:     strings.Join(note, "; "),
			}
			if e.bare > 0 {
				it.Amount = ingredient.Unspecified()
				it.Recipes += e.bare
			}
			items = append(items, it)
		}
	}

	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(b.Recipes, a.Recipes),
			cmp.Compare(ingredient.NormalizeName(a.Name), ingredient.NormalizeName(b.Name)),
			cmp.Compare(a.Unit, b.Unit),
		)
	})
	return items
}
