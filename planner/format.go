package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DayView is the serialized form of one planned day.
type DayView struct {
	Day   int        `json:"day"`
	Label string     `json:"label"`
	Meals []MealView `json:"meals"`
}

// MealView is the serialized form of one assignment.
type MealView struct {
	Meal          string `json:"meal"`
	Recipe        string `json:"recipe"`
	ActiveMinutes int    `json:"active_minutes"`
	TotalMinutes  int    `json:"total_minutes"`
}

// View is the day-grouped serialized form of a plan.
type View struct {
	Days    []DayView `json:"days"`
	Recipes []string  `json:"recipes"`
}

// View returns the day-grouped form of the plan.
func (p *MealPlan) View() View {
	v := View{Days: []DayView{}, Recipes: p.RecipeNames()}
	for _, day := range p.ByDay() {
		dv := DayView{Day: day[0].Slot.Day + 1, Label: day[0].Slot.DayLabel}
		for _, a := range day {
			dv.Meals = append(dv.Meals, MealView{
				Meal:          a.Slot.MealLabel,
				Recipe:        a.Recipe.Name,
				ActiveMinutes: a.Recipe.ActiveMinutes,
				TotalMinutes:  a.Recipe.TotalMinutes,
			})
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

func (p *MealPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.View())
}

// Format writes the plan as day-grouped text.
func (p *MealPlan) Format(w io.Writer) error {
	var b strings.Builder
	b.WriteString("MEAL PLAN\n=========\n")
	for _, day := range p.ByDay() {
		fmt.Fprintf(&b, "\n%s\n", day[0].Slot.DayLabel)
		for _, a := range day {
			fmt.Fprintf(&b, "  %-8s %s (%d min active, %d min total)\n",
				a.Slot.MealLabel+":", a.Recipe.Name, a.Recipe.ActiveMinutes, a.Recipe.TotalMinutes)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ReadRecipeNames extracts the recipe names from a plan previously written as JSON.
// It accepts a single plan, a plan wrapped under "plan" next to a shopping list, or a
// list of candidate plans, in which case the first candidate is read.
func ReadRecipeNames(r io.Reader) ([]string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var v View
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var candidates []View
		if err := json.Unmarshal(trimmed, &candidates); err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("read plan: no candidate plans")
		}
		v = candidates[0]
	} else {
		var doc struct {
			View
			Plan *View `json:"plan"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
		v = doc.View
		if doc.Plan != nil {
			v = *doc.Plan
		}
	}

	if len(v.Recipes) > 0 {
		return v.Recipes, nil
	}
	var names []string
	for _, d := range v.Days {
		for _, m := range d.Meals {
			names = append(names, m.Recipe)
		}
	}
	return names, nil
}
