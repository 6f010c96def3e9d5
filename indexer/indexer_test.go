package indexer

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealprep/catalog"
	"mealprep/ingredient"
	"mealprep/tools/storage"
)

const firmTofu = `# Firm Tofu

#Vegetables_Protein

## Cooking Time
- **Active Cooking Time:** 5 minutes
- **Total Cooking Time:** 10 minutes

## Efficiency Tools
- Rice Cooker

## Ingredients
- Firm tofu [1 block]
- Soy sauce [2 tablespoons]
- Salt

## Instructions
1. Slice the tofu.
- Not an ingredient [1 cup]
`

const beefStew = `# Beef Stew
#Treat
Active Cooking Time: 30 minutes
Ready in: 2 hours (plus overnight marination)

## Ingredients
- Beef [500 grams]
- Carrot [2-3 pieces]
- Broth [2 cups
`

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"10 minutes":                     10,
		"10 min":                         10,
		"1 hour":                         60,
		"1.5 hours":                      90,
		"1 hour 30 minutes":              90,
		"2 days":                         2880,
		"1 day 2 hours":                  1560,
		"45":                             45,
		"10-15 minutes":                  15,
		"3 hrs (plus overnight resting)": 180,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDuration(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseDuration("a while")
	assert.Error(t, err)
}

func TestParseDocument(t *testing.T) {
	rec, err := ParseDocument("recipes/chinese/firm_tofu.md", strings.NewReader(firmTofu))
	require.NoError(t, err)

	assert.Equal(t, "Firm Tofu", rec.Name)
	assert.Equal(t, 5, rec.ActiveMinutes)
	assert.Equal(t, 10, rec.TotalMinutes)
	assert.Equal(t, []string{"Vegetables_Protein"}, rec.Tags)
	assert.Equal(t, []string{"Rice Cooker"}, rec.Tools)
	assert.Equal(t, []ingredient.Entry{
		{Name: "Firm tofu", Amount: ingredient.Quantity(1, "block")},
		{Name: "Soy sauce", Amount: ingredient.Quantity(2, "tablespoon")},
		{Name: "Salt"},
	}, rec.Ingredients)
	assert.Equal(t, "recipes/chinese/firm_tofu.md", rec.FilePath)
}

func TestParseDocument_PartlyReadable(t *testing.T) {
	rec, err := ParseDocument("beef_stew.md", strings.NewReader(beefStew))
	assert.ErrorIs(t, err, ingredient.ErrMalformed)
	assert.Equal(t, "Beef Stew", rec.Name)
	assert.Equal(t, 30, rec.ActiveMinutes)
	assert.Equal(t, 120, rec.TotalMinutes)
	assert.Equal(t, []string{"Treat"}, rec.Tags)
	require.Len(t, rec.Ingredients, 2)
	assert.Equal(t, ingredient.Quantity(3, "piece"), rec.Ingredients[1].Amount)
}

func TestParseDocument_Rejected(t *testing.T) {
	_, err := ParseDocument("notes.md", strings.NewReader("# Notes\n\nJust some text.\n"))
	assert.ErrorIs(t, err, errNoActiveTime)

	_, err = ParseDocument("bad.md", strings.NewReader("# Bad\nActive Cooking Time: 30 minutes\nTotal Cooking Time: 10 minutes\n"))
	assert.Error(t, err)

	rec, err := ParseDocument("recipes/egg_drop_soup.md", strings.NewReader("Active Cooking Time: 10 minutes\n"))
	require.NoError(t, err)
	assert.Equal(t, "Egg Drop Soup", rec.Name)
	assert.Equal(t, 10, rec.TotalMinutes)
}

func TestBuild(t *testing.T) {
	fsys := fstest.MapFS{
		"recipes/chinese/firm_tofu.md": {Data: []byte(firmTofu)},
		"recipes/western/beef_stew.md": {Data: []byte(beefStew)},
		"recipes/western/notes.md":     {Data: []byte("# Notes\n")},
		"recipes/README.txt":           {Data: []byte("ignored")},
	}

	res, err := Build(context.Background(), fsys, "recipes")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 2, res.Catalog.Len())
	assert.Len(t, res.Problems, 2)

	sink := storage.NewTestCatalogState(nil)
	require.NoError(t, Write(context.Background(), res.Catalog, sink))

	c, err := catalog.Decode(sink.Saved())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	tofu, err := c.Lookup("Firm Tofu")
	require.NoError(t, err)
	assert.Equal(t, "recipes/chinese/firm_tofu.md", tofu.FilePath)
	assert.Contains(t, string(sink.Saved()), "min_minutes: 5")

	_, err = Build(context.Background(), fsys, "missing")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, fsys, "recipes")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Error(t, Write(context.Background(), res.Catalog, storage.NewTestCatalogStateWithError()))
}
