package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealprep/catalog"
)

func scenarioCatalog() *catalog.Catalog {
	return catalog.New([]catalog.RecipeSummary{
		{Name: "Tofu", ActiveMinutes: 5, TotalMinutes: 10},
		{Name: "Soup", ActiveMinutes: 15, TotalMinutes: 15},
		{Name: "Stew", ActiveMinutes: 20, TotalMinutes: 140},
	})
}

func fakeCatalog(seed int64, n int) *catalog.Catalog {
	f := gofakeit.New(seed)
	recipes := make([]catalog.RecipeSummary, n)
	for i := range recipes {
		active := f.IntRange(0, 60)
		recipes[i] = catalog.RecipeSummary{
			Name:          fmt.Sprintf("%s #%d", f.Dinner(), i),
			ActiveMinutes: active,
			TotalMinutes:  active + f.IntRange(0, 120),
		}
	}
	return catalog.New(recipes)
}

func TestCompose_ScenarioA(t *testing.T) {
	c := scenarioCatalog()

	for seed := range uint64(20) {
		plan, err := Compose(c, Request{Days: 1, MealsPerDay: 2, ActiveCap: 20, TotalCap: 60}, NewRand(seed))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Tofu", "Soup"}, plan.RecipeNames())
	}

	_, err := Compose(c, Request{Days: 1, MealsPerDay: 3, ActiveCap: 20, TotalCap: 60}, NewRand(1))
	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrInsufficientEligibleRecipes)
	assert.Equal(t, 2, pe.Eligible)
	assert.Equal(t, 3, pe.Required)
	assert.Equal(t, 20, pe.ActiveCap)
	assert.Equal(t, 60, pe.TotalCap)
}

func TestCompose_ZeroCaps(t *testing.T) {
	_, err := Compose(scenarioCatalog(), Request{Days: 1, MealsPerDay: 1}, NewRand(1))
	assert.ErrorIs(t, err, ErrInsufficientEligibleRecipes)

	c := catalog.New([]catalog.RecipeSummary{{Name: "Raw Oysters"}, {Name: "Tofu", ActiveMinutes: 5, TotalMinutes: 10}})
	plan, err := Compose(c, Request{Days: 1, MealsPerDay: 1}, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Raw Oysters"}, plan.RecipeNames())
}

func TestCompose_InvalidParameters(t *testing.T) {
	tests := map[string]Request{
		"zero days":                 {Days: 0, MealsPerDay: 1, ActiveCap: 10, TotalCap: 10},
		"negative meals":            {Days: 1, MealsPerDay: -1, ActiveCap: 10, TotalCap: 10},
		"active above total":        {Days: 1, MealsPerDay: 1, ActiveCap: 30, TotalCap: 20},
		"negative active cap":       {Days: 1, MealsPerDay: 1, ActiveCap: -5, TotalCap: 20},
		"negative both caps":        {Days: 1, MealsPerDay: 1, ActiveCap: -5, TotalCap: -1},
		"zero days and meals":       {},
		"days without meals":        {Days: 7, ActiveCap: 10, TotalCap: 10},
		"meals without days":        {MealsPerDay: 2, ActiveCap: 10, TotalCap: 10},
		"slot count overflows":      {Days: math.MaxInt, MealsPerDay: math.MaxInt, ActiveCap: 20, TotalCap: 60},
		"slot count wraps negative": {Days: math.MaxInt/2 + 1, MealsPerDay: 2, ActiveCap: 20, TotalCap: 60},
		"above slot limit":          {Days: MaxSlots + 1, MealsPerDay: 1, ActiveCap: 20, TotalCap: 60},
		"huge plan with repeats":    {Days: 1_000_000_000, MealsPerDay: 1, ActiveCap: 20, TotalCap: 60, AllowRepeats: true},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			plan, err := Compose(scenarioCatalog(), req, NewRand(1))
			assert.Nil(t, plan)
			var pe *PlanError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, InvalidParameters, pe.Kind)
			assert.ErrorIs(t, err, ErrInvalidParameters)
			assert.NotEmpty(t, pe.Reason)
		})
	}
}

func TestCompose_Properties(t *testing.T) {
	c := fakeCatalog(42, 80)
	f := gofakeit.New(7)

	for i := range 200 {
		total := f.IntRange(0, 180)
		req := Request{
			Days:        f.IntRange(1, 7),
			MealsPerDay: f.IntRange(1, 3),
			ActiveCap:   f.IntRange(0, total),
			TotalCap:    total,
		}
		eligible := 0
		for range c.RecipesWithin(req.ActiveCap, req.TotalCap) {
			eligible++
		}

		plan, err := Compose(c, req, NewRand(uint64(i)))
		if eligible < req.Slots() {
			assert.ErrorIs(t, err, ErrInsufficientEligibleRecipes, "%+v", req)
			assert.Nil(t, plan)
			continue
		}
		require.NoError(t, err, "%+v", req)
		require.Len(t, plan.Assignments, req.Slots())

		seen := map[string]bool{}
		for j, a := range plan.Assignments {
			assert.LessOrEqual(t, a.Recipe.ActiveMinutes, req.ActiveCap)
			assert.LessOrEqual(t, a.Recipe.TotalMinutes, req.TotalCap)
			assert.False(t, seen[a.Recipe.Name], "duplicate %q", a.Recipe.Name)
			seen[a.Recipe.Name] = true
			assert.Equal(t, j/req.MealsPerDay, a.Slot.Day)
			assert.Equal(t, j%req.MealsPerDay, a.Slot.Meal)
		}
	}
}

func TestCompose_Seeded(t *testing.T) {
	c := fakeCatalog(3, 50)
	req := Request{Days: 3, MealsPerDay: 2, ActiveCap: 60, TotalCap: 180}

	a, err := Compose(c, req, NewRand(99))
	require.NoError(t, err)
	b, err := Compose(c, req, NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, a.RecipeNames(), b.RecipeNames())

	differs := false
	for seed := range uint64(10) {
		other, err := Compose(c, req, NewRand(seed+100))
		require.NoError(t, err)
		if fmt.Sprint(other.RecipeNames()) != fmt.Sprint(a.RecipeNames()) {
			differs = true
			break
		}
	}
	assert.True(t, differs, "different seeds should produce different plans")

	_, err = Compose(c, req, nil)
	assert.NoError(t, err)
}

func TestCompose_AllowRepeats(t *testing.T) {
	c := catalog.New([]catalog.RecipeSummary{{Name: "Fried Rice", ActiveMinutes: 10, TotalMinutes: 15}})
	req := Request{Days: 2, MealsPerDay: 2, ActiveCap: 20, TotalCap: 20, AllowRepeats: true}

	plan, err := Compose(c, req, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Fried Rice", "Fried Rice", "Fried Rice", "Fried Rice"}, plan.RecipeNames())

	req.ActiveCap, req.TotalCap = 5, 5
	_, err = Compose(c, req, NewRand(1))
	assert.ErrorIs(t, err, ErrInsufficientEligibleRecipes)
}

func TestComposeSchedule_Augments(t *testing.T) {
	c := catalog.New([]catalog.RecipeSummary{
		{Name: "Quick", ActiveMinutes: 5, TotalMinutes: 5},
		{Name: "Slow", ActiveMinutes: 15, TotalMinutes: 15},
	})
	s := Schedule{
		{Slot: Slot{Day: 0, DayLabel: "Monday", MealLabel: "Dinner"}, ActiveCap: 10, TotalCap: 10},
		{Slot: Slot{Day: 1, DayLabel: "Tuesday", MealLabel: "Dinner"}, ActiveCap: 20, TotalCap: 20},
	}

	for seed := range uint64(20) {
		plan, err := ComposeSchedule(c, s, false, NewRand(seed))
		require.NoError(t, err)
		assert.Equal(t, []string{"Quick", "Slow"}, plan.RecipeNames())
	}
}

func TestComposeSchedule_Infeasible(t *testing.T) {
	c := catalog.New([]catalog.RecipeSummary{{Name: "Quick", ActiveMinutes: 5, TotalMinutes: 5}})
	s := Schedule{
		{Slot: Slot{Day: 0, DayLabel: "Monday", MealLabel: "Dinner"}, ActiveCap: 10, TotalCap: 10},
		{Slot: Slot{Day: 1, DayLabel: "Tuesday", MealLabel: "Dinner"}, ActiveCap: 10, TotalCap: 10},
	}

	_, err := ComposeSchedule(c, s, false, NewRand(1))
	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InsufficientEligibleRecipes, pe.Kind)
	assert.Equal(t, 1, pe.Eligible)
	assert.Equal(t, 2, pe.Required)
	assert.NotEmpty(t, pe.Slot)

	plan, err := ComposeSchedule(c, s, true, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Quick", "Quick"}, plan.RecipeNames())

	s[1].ActiveCap, s[1].TotalCap = 1, 1
	_, err = ComposeSchedule(c, s, true, NewRand(1))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Tuesday Dinner", pe.Slot)
	assert.Equal(t, 0, pe.Eligible)
}

func TestComposeSchedule_Invalid(t *testing.T) {
	_, err := ComposeSchedule(scenarioCatalog(), nil, false, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	s := WeeklySchedule()
	s[2].ActiveCap = 90
	_, err = ComposeSchedule(scenarioCatalog(), s, false, NewRand(1))
	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Wednesday Dinner", pe.Slot)
}

func TestWeeklySchedule(t *testing.T) {
	s := WeeklySchedule()
	require.Len(t, s, 9)
	assert.Equal(t, "Monday Dinner", s[0].String())
	assert.Equal(t, SlotSpec{Slot: Slot{Day: 5, Meal: 1, DayLabel: "Saturday", MealLabel: "Dinner"}, ActiveCap: 60, TotalCap: 120}, s[6])
	assert.Equal(t, 1, s[8].Meal)

	c := fakeCatalog(11, 200)
	plan, err := ComposeSchedule(c, s, false, NewRand(5))
	require.NoError(t, err)
	require.Len(t, plan.Assignments, len(s))
	seen := map[string]bool{}
	for i, a := range plan.Assignments {
		assert.True(t, a.Recipe.Fits(s[i].ActiveCap, s[i].TotalCap), "%s: %s", s[i], a.Recipe.Name)
		assert.False(t, seen[a.Recipe.Name])
		seen[a.Recipe.Name] = true
	}
	assert.Len(t, plan.ByDay(), 7)
}

func TestComposeBatch(t *testing.T) {
	c := fakeCatalog(8, 60)
	req := Request{Days: 2, MealsPerDay: 2, ActiveCap: 60, TotalCap: 180}
	seeds := Seeds(1000, 16)

	plans, err := ComposeBatch(context.Background(), c, req, seeds)
	require.NoError(t, err)
	require.Len(t, plans, len(seeds))
	for i, seed := range seeds {
		want, err := Compose(c, req, NewRand(seed))
		require.NoError(t, err)
		assert.Equal(t, want.RecipeNames(), plans[i].RecipeNames())
	}

	_, err = ComposeBatch(context.Background(), c, Request{Days: 1, MealsPerDay: 500, ActiveCap: 60, TotalCap: 180}, seeds)
	assert.ErrorIs(t, err, ErrInsufficientEligibleRecipes)

	_, err = ComposeBatch(context.Background(), c, Request{}, seeds)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ComposeBatch(ctx, c, req, seeds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMealPlan_Output(t *testing.T) {
	plan, err := Compose(scenarioCatalog(), Request{Days: 2, MealsPerDay: 1, ActiveCap: 20, TotalCap: 60}, NewRand(4))
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, plan.Format(&text))
	assert.Contains(t, text.String(), "Day 1")
	assert.Contains(t, text.String(), "Day 2")
	assert.Contains(t, text.String(), "Meal 1:")

	data, err := json.Marshal(plan)
	require.NoError(t, err)
	names, err := ReadRecipeNames(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, plan.RecipeNames(), names)

	names, err = ReadRecipeNames(bytes.NewReader([]byte(`{"days":[{"day":1,"meals":[{"recipe":"Tofu"}]}]}`)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tofu"}, names)

	_, err = ReadRecipeNames(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}

func TestReadRecipeNames_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected []string
	}{
		{
			name:     "single plan",
			doc:      `{"days":[],"recipes":["Tofu","Soup"]}`,
			expected: []string{"Tofu", "Soup"},
		},
		{
			name:     "candidate plans use the first",
			doc:      `[{"recipes":["Tofu"]},{"recipes":["Soup"]}]`,
			expected: []string{"Tofu"},
		},
		{
			name:     "week with shopping list",
			doc:      `{"plan":{"days":[{"day":1,"meals":[{"recipe":"Stew"}]}]},"grocery":{"items":[],"missing":[]}}`,
			expected: []string{"Stew"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := ReadRecipeNames(bytes.NewReader([]byte(tt.doc)))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names)
		})
	}

	_, err := ReadRecipeNames(bytes.NewReader([]byte("[]")))
	assert.Error(t, err)
}

func TestPlanError_Message(t *testing.T) {
	err := &PlanError{Kind: InsufficientEligibleRecipes, Eligible: 2, Required: 3, ActiveCap: 20, TotalCap: 60}
	assert.Equal(t, "InsufficientEligibleRecipes: 2 eligible, 3 required (active <= 20 min, total <= 60 min)", err.Error())

	err = invalid("days must be at least 1, got %d", 0)
	assert.Equal(t, "InvalidParameters: days must be at least 1, got 0", err.Error())
}
