package planner

import (
	"log/slog"
	"math/rand/v2"

	"mealprep/catalog"
)

// SlotSpec is a slot with its own time budget.
type SlotSpec struct {
	Slot
	ActiveCap int
	TotalCap  int
}

// Schedule is an ordered list of slots, possibly with different caps.
type Schedule []SlotSpec

// WeeklySchedule is the default week: a quick dinner on weekdays, a slow Saturday
// dinner and relaxed weekend lunches.
func WeeklySchedule() Schedule {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	var s Schedule
	add := func(day int, meal string, active, total int) {
		n := 0
		if len(s) > 0 && s[len(s)-1].Day == day {
			n = s[len(s)-1].Meal + 1
		}
		s = append(s, SlotSpec{
			Slot:      Slot{Day: day, Meal: n, DayLabel: days[day], MealLabel: meal},
			ActiveCap: active,
			TotalCap:  total,
		})
	}
	for day := range 5 {
		add(day, "Dinner", 20, 40)
	}
	add(5, "Lunch", 30, 60)
	add(5, "Dinner", 60, 120)
	add(6, "Lunch", 30, 60)
	add(6, "Dinner", 30, 60)
	return s
}

// Validate rejects empty schedules and slots whose caps can never be met.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return invalid("schedule has no slots")
	}
	for _, spec := range s {
		if err := validateCaps(spec.ActiveCap, spec.TotalCap); err != nil {
			pe := err.(*PlanError)
			pe.Slot = spec.String()
			pe.Reason = spec.String() + ": " + pe.Reason
			return pe
		}
	}
	return nil
}

// ComposeSchedule assigns one recipe to every slot of s, each within its slot's caps.
// Without repeats this is a bipartite matching between slots and recipes; slots and
// candidates are shuffled before augmenting so the result is random, and a plan is
// found whenever any repeat-free assignment exists.
func ComposeSchedule(c *catalog.Catalog, s Schedule, allowRepeats bool, rng *rand.Rand) (*MealPlan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = randomSource()
	}

	var pool []catalog.RecipeSummary
	index := map[string]int{}
	adj := make([][]int, len(s))
	for i, spec := range s {
		for r := range c.RecipesWithin(spec.ActiveCap, spec.TotalCap) {
			j, ok := index[r.Name]
			if !ok {
				j = len(pool)
				index[r.Name] = j
				pool = append(pool, r)
			}
			adj[i] = append(adj[i], j)
		}
		if len(adj[i]) == 0 {
			return nil, insufficient(spec, len(adj[i]), 1)
		}
		rng.Shuffle(len(adj[i]), func(a, b int) { adj[i][a], adj[i][b] = adj[i][b], adj[i][a] })
	}

	picks := make([]int, len(s))
	if allowRepeats {
		for i := range s {
			picks[i] = adj[i][rng.IntN(len(adj[i]))]
		}
	} else {
		m := &matcher{adj: adj, owner: make([]int, len(pool)), seen: make([]bool, len(pool))}
		for j := range m.owner {
			m.owner[j] = -1
		}
		for _, i := range rng.Perm(len(s)) {
			clear(m.seen)
			if !m.augment(i) {
				return nil, insufficient(s[i], len(pool), len(s))
			}
		}
		for j, i := range m.owner {
			if i >= 0 {
				picks[i] = j
			}
		}
	}

	plan := &MealPlan{Assignments: make([]Assignment, len(s))}
	for i, spec := range s {
		plan.Assignments[i] = Assignment{Slot: spec.Slot, Recipe: pool[picks[i]]}
	}
	slog.Debug("PLANNER: Composed schedule", "slots", len(s), "pool", len(pool), "repeats", allowRepeats)
	return plan, nil
}

func insufficient(spec SlotSpec, eligible, required int) *PlanError {
	return &PlanError{
		Kind:      InsufficientEligibleRecipes,
		Eligible:  eligible,
		Required:  required,
		ActiveCap: spec.ActiveCap,
		TotalCap:  spec.TotalCap,
		Slot:      spec.String(),
	}
}

// matcher finds augmenting paths from slots to recipes (Kuhn's algorithm).
type matcher struct {
	adj   [][]int
	owner []int
	seen  []bool
}

func (m *matcher) augment(slot int) bool {
	for _, r := range m.adj[slot] {
		if m.seen[r] {
			continue
		}
		m.seen[r] = true
		if m.owner[r] < 0 || m.augment(m.owner[r]) {
			m.owner[r] = slot
			return true
		}
	}
	return false
}
