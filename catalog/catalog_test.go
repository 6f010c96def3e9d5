package catalog

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealprep/ingredient"
	"mealprep/tools/storage"
)

const sampleIndex = `
recipes:
  - name: Stew
    active_minutes: 20
    total_minutes: 140
    tags: [Treat]
    ingredients:
      - name: Salt
      - name: Beef
        quantity: 500
        unit: grams
  - name: Firm Tofu
    active_minutes: 5
    total_minutes: 10
    tags: [Vegetables_Protein]
    tools: [Rice Cooker]
    ingredients:
      - "Firm tofu [1 block]"
      - "Salt [1 tablespoon]"
  - name: Soup
    active_minutes: 15
    total_minutes: 15
  - name: Broken
    active_minutes: 30
    total_minutes: 10
  - name: Untimed
  - name: Bad Unit
    active_minutes: 1
    total_minutes: 1
    ingredients:
      - name: Pepper
        unit: pinch
  - name: Soup
    active_minutes: 10
    total_minutes: 15
`

func names(seq func(func(RecipeSummary) bool)) []string {
	var out []string
	for r := range seq {
		out = append(out, r.Name)
	}
	return out
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(sampleIndex))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"Firm Tofu", "Soup", "Stew"}, names(c.All()))

	warnings := c.Warnings()
	require.Len(t, warnings, 4)
	kinds := map[WarningKind]int{}
	for _, w := range warnings {
		kinds[w.Kind]++
	}
	assert.Equal(t, 3, kinds[RecordSkipped])
	assert.Equal(t, 1, kinds[DuplicateName])

	t.Run("later duplicate supersedes", func(t *testing.T) {
		soup, err := c.Lookup("Soup")
		require.NoError(t, err)
		assert.Equal(t, 10, soup.ActiveMinutes)
	})

	t.Run("ingredients in both forms", func(t *testing.T) {
		tofu, err := c.Lookup("Firm Tofu")
		require.NoError(t, err)
		require.Len(t, tofu.Ingredients, 2)
		assert.Equal(t, ingredient.Quantity(1, "block"), tofu.Ingredients[0].Amount)
		assert.Equal(t, "Salt", tofu.Ingredients[1].Name)
		assert.Equal(t, []string{"Rice Cooker"}, tofu.Tools)
		assert.True(t, tofu.HasTag("vegetables_protein"))

		stew, err := c.Lookup("Stew")
		require.NoError(t, err)
		assert.False(t, stew.Ingredients[0].Amount.Specified)
		assert.Equal(t, "gram", stew.Ingredients[1].Amount.Unit)
	})
}

func TestDecode_LegacyLayout(t *testing.T) {
	legacy := `
sorted_recipes_by_active_cooking_time:
  - name: "Egg Drop Soup"
    active_cooking_time_minutes: 10
    total_cooking_time_minutes: 15
    tags: ['Vegetables_Protein']
    file_path: "recipes/chinese/egg_drop_soup.md"
summary:
  total_recipes: 1
  active_cooking_time_range:
    min_minutes: 10
    max_minutes: 10
`
	c, err := Decode([]byte(legacy))
	require.NoError(t, err)
	r, err := c.Lookup("Egg Drop Soup")
	require.NoError(t, err)
	assert.Equal(t, 10, r.ActiveMinutes)
	assert.Equal(t, 15, r.TotalMinutes)
	assert.Equal(t, "recipes/chinese/egg_drop_soup.md", r.FilePath)
}

func TestDecode_JSONArray(t *testing.T) {
	c, err := Decode([]byte(`[
		{"name": "Toast", "active_minutes": 2, "total_minutes": 4, "ingredients": [{"name": "bread", "quantity": 2, "unit": "slices"}]},
		{"name": "Oops", "active_minutes": "soon", "total_minutes": 4}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	require.Len(t, c.Warnings(), 1)
	assert.Equal(t, "Oops", c.Warnings()[0].Name)
}

func TestDecode_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":         "",
		"not yaml":      "recipes: [unclosed",
		"no recipes":    "summary: {}",
		"recipes shape": "recipes: 3",
		"scalar":        "just text",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, err := Load(context.Background(), storage.NewTestCatalogState([]byte(sampleIndex)))
		require.NoError(t, err)
		assert.Equal(t, 3, c.Len())
	})

	t.Run("source error", func(t *testing.T) {
		_, err := Load(context.Background(), storage.NewTestCatalogStateWithError())
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "memory", loadErr.Source)
	})

	t.Run("malformed index", func(t *testing.T) {
		_, err := Load(context.Background(), storage.NewTestCatalogState([]byte("{")))
		var loadErr *LoadError
		assert.ErrorAs(t, err, &loadErr)
	})
}

func TestRecipesWithin(t *testing.T) {
	c := New([]RecipeSummary{
		{Name: "Tofu", ActiveMinutes: 5, TotalMinutes: 10},
		{Name: "Soup", ActiveMinutes: 15, TotalMinutes: 15},
		{Name: "Stew", ActiveMinutes: 20, TotalMinutes: 140},
		{Name: "Salad", ActiveMinutes: 5, TotalMinutes: 5},
		{Name: "Bread", ActiveMinutes: 5, TotalMinutes: 5},
		{Name: "Raw", ActiveMinutes: 0, TotalMinutes: 0},
	})

	assert.Equal(t, []string{"Raw", "Bread", "Salad", "Tofu", "Soup"}, names(c.RecipesWithin(20, 60)))
	assert.Equal(t, []string{"Raw"}, names(c.RecipesWithin(0, 0)))
	assert.Empty(t, names(c.RecipesWithin(-1, 100)))
	assert.Equal(t, []string{"Raw", "Bread", "Salad", "Tofu", "Soup", "Stew"}, names(c.RecipesWithin(60, 200)))

	t.Run("stops when the consumer stops", func(t *testing.T) {
		var got []string
		for r := range c.RecipesWithin(60, 200) {
			got = append(got, r.Name)
			if len(got) == 2 {
				break
			}
		}
		assert.Len(t, got, 2)
	})

	lo, hi, ok := c.ActiveRange()
	assert.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 20, hi)
}

func TestNew_IsolatedFromCaller(t *testing.T) {
	tags := []string{"Protein", "Protein", " "}
	in := []RecipeSummary{{Name: " Fried Beef ", ActiveMinutes: 10, TotalMinutes: 20, Tags: tags}}
	c := New(in)
	tags[0] = "Changed"

	r, err := c.Lookup("Fried Beef")
	require.NoError(t, err)
	assert.Equal(t, []string{"Protein"}, r.Tags)

	_, err = c.Lookup("fried beef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEncode_RoundTrip(t *testing.T) {
	c, err := Decode([]byte(sampleIndex))
	require.NoError(t, err)

	data, err := Encode(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), "active_cooking_time_range")

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, again.Warnings())
	assert.Equal(t, slices.Collect(c.All()), slices.Collect(again.All()))
}

func TestRecipeSummary_Validate(t *testing.T) {
	assert.Error(t, RecipeSummary{}.Validate())
	assert.Error(t, RecipeSummary{Name: "x", ActiveMinutes: -1, TotalMinutes: 0}.Validate())
	assert.ErrorIs(t, RecipeSummary{Name: "x", ActiveMinutes: 10, TotalMinutes: 5}.Validate(), errIntegrity)
	assert.NoError(t, RecipeSummary{Name: "x", ActiveMinutes: 0, TotalMinutes: 0}.Validate())
}
