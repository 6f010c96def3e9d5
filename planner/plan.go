// Package planner assigns catalog recipes to meal slots under per-meal time budgets.
//
// Planning is a pure function of a catalog, a request and an explicit random source:
// nothing is shared between calls, so plans for the same catalog can be composed from
// any number of goroutines.
package planner

import (
	"errors"
	"fmt"

	"mealprep/catalog"
)

var (
	ErrInvalidParameters           = errors.New("invalid parameters")
	ErrInsufficientEligibleRecipes = errors.New("insufficient eligible recipes")
)

// FailureKind names the reason no plan could be produced.
type FailureKind string

const (
	InvalidParameters           FailureKind = "InvalidParameters"
	InsufficientEligibleRecipes FailureKind = "InsufficientEligibleRecipes"
)

// PlanError is returned instead of a plan. It carries the numbers a caller needs to
// relax a constraint: the eligible pool size, the slots required and the caps used.
type PlanError struct {
	Kind      FailureKind `json:"kind"`
	Reason    string      `json:"reason"`
	Eligible  int         `json:"eligible"`
	Required  int         `json:"required"`
	ActiveCap int         `json:"active_cap"`
	TotalCap  int         `json:"total_cap"`
	Slot      string      `json:"slot,omitempty"`
}

func (e *PlanError) Error() string {
	if e.Kind == InsufficientEligibleRecipes {
		msg := fmt.Sprintf("%s: %d eligible, %d required (active <= %d min, total <= %d min)",
			e.Kind, e.Eligible, e.Required, e.ActiveCap, e.TotalCap)
		if e.Slot != "" {
			msg += ": cannot fill " + e.Slot
		}
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *PlanError) Unwrap() error {
	switch e.Kind {
	case InvalidParameters:
		return ErrInvalidParameters
	case InsufficientEligibleRecipes:
		return ErrInsufficientEligibleRecipes
	}
	return nil
}

func invalid(format string, args ...any) *PlanError {
	return &PlanError{Kind: InvalidParameters, Reason: fmt.Sprintf(format, args...)}
}

// MaxSlots bounds the number of slots one plan may cover.
const MaxSlots = 1 << 16

// Request describes a uniform plan: every slot shares the same caps.
type Request struct {
	Days         int
	MealsPerDay  int
	ActiveCap    int
	TotalCap     int
	AllowRepeats bool
}

// Slots returns the number of meal slots the request covers.
func (r Request) Slots() int { return r.Days * r.MealsPerDay }

// Validate rejects requests that can never be planned.
func (r Request) Validate() error {
	switch {
	case r.Days < 1:
		return invalid("days must be at least 1, got %d", r.Days)
	case r.MealsPerDay < 1:
		return invalid("meals per day must be at least 1, got %d", r.MealsPerDay)
	case r.Days > MaxSlots/r.MealsPerDay:
		return invalid("%d days of %d meals exceeds the limit of %d slots", r.Days, r.MealsPerDay, MaxSlots)
	}
	return validateCaps(r.ActiveCap, r.TotalCap)
}

func validateCaps(active, total int) error {
	switch {
	case active < 0 || total < 0:
		return invalid("time caps must not be negative (active %d, total %d)", active, total)
	case active > total:
		return invalid("active time cap %d exceeds total time cap %d", active, total)
	}
	return nil
}

// Slot is one (day, meal) cell of a plan.
type Slot struct {
	Day       int    `json:"day"`
	Meal      int    `json:"meal"`
	DayLabel  string `json:"day_label"`
	MealLabel string `json:"meal_label"`
}

func (s Slot) String() string { return s.DayLabel + " " + s.MealLabel }

// Assignment pairs a slot with the recipe chosen for it.
type Assignment struct {
	Slot   Slot
	Recipe catalog.RecipeSummary
}

// MealPlan is a complete assignment, ordered day-major. A plan never has empty slots.
type MealPlan struct {
	Assignments []Assignment
}

// RecipeNames returns the assigned recipe names in slot order.
func (p *MealPlan) RecipeNames() []string {
	names := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		names = append(names, a.Recipe.Name)
	}
	return names
}

// ByDay groups the assignments by day, preserving slot order.
func (p *MealPlan) ByDay() [][]Assignment {
	var days [][]Assignment
	for i, a := range p.Assignments {
		if i == 0 || a.Slot.Day != p.Assignments[i-1].Slot.Day {
			days = append(days, nil)
		}
		days[len(days)-1] = append(days[len(days)-1], a)
	}
	return days
}
