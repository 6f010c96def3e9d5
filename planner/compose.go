package planner

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"mealprep/catalog"
)

// NewRand returns a deterministic source for seed. Plans composed with sources built
// from the same seed are identical.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func randomSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Compose fills days × meals-per-day slots with recipes that respect both caps. The
// eligible pool is drawn from once, without replacement unless repeats are allowed, and
// the draws are laid out day-major. A nil rng uses a randomly seeded source.
func Compose(c *catalog.Catalog, req Request, rng *rand.Rand) (*MealPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = randomSource()
	}

	eligible := slices.Collect(c.RecipesWithin(req.ActiveCap, req.TotalCap))
	required := req.Slots()
	if len(eligible) == 0 || (!req.AllowRepeats && len(eligible) < required) {
		return nil, &PlanError{
			Kind:      InsufficientEligibleRecipes,
			Eligible:  len(eligible),
			Required:  required,
			ActiveCap: req.ActiveCap,
			TotalCap:  req.TotalCap,
		}
	}

	picks := draw(eligible, required, req.AllowRepeats, rng)
	plan := &MealPlan{Assignments: make([]Assignment, 0, required)}
	for i, r := range picks {
		day, meal := i/req.MealsPerDay, i%req.MealsPerDay
		plan.Assignments = append(plan.Assignments, Assignment{
			Slot: Slot{
				Day:       day,
				Meal:      meal,
				DayLabel:  fmt.Sprintf("Day %d", day+1),
				MealLabel: fmt.Sprintf("Meal %d", meal+1),
			},
			Recipe: r,
		})
	}

	slog.Debug("PLANNER: Composed plan", "days", req.Days, "meals_per_day", req.MealsPerDay,
		"eligible", len(eligible), "repeats", req.AllowRepeats)
	return plan, nil
}

// draw picks n recipes from pool. Without replacement it runs a partial Fisher-Yates
// shuffle over a copy, so pool itself is left untouched.
func draw(pool []catalog.RecipeSummary, n int, replace bool, rng *rand.Rand) []catalog.RecipeSummary {
	out := make([]catalog.RecipeSummary, n)
	if replace {
		for i := range out {
			out[i] = pool[rng.IntN(len(pool))]
		}
		return out
	}

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	for i := range n {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = pool[idx[i]]
	}
	return out
}
