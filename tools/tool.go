// Package tools exposes catalog lookups, meal planning and shopping lists as tools
// with JSON-schema described inputs and outputs, for use by an external agent or by
// the command line runner.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealprep/planner"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// failure renders a planning failure as tool output. Planning failures are answers,
// not errors: the caller gets the kind and the numbers needed to relax a constraint.
func failure(err error) (map[string]any, error) {
	var pe *planner.PlanError
	if !errors.As(err, &pe) {
		return nil, err
	}
	out, err := asMap(pe)
	if err != nil {
		return nil, err
	}
	return map[string]any{"failure": out}, nil
}

func minimum(v float64) *float64 { return &v }

func asMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// intArg reads an integer input. JSON numbers arrive as float64; fractional values
// are rejected.
func intArg(input map[string]any, key string) (int, bool, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, true, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, true, fmt.Errorf("%s: %w", key, err)
		}
		return int(n), true, nil
	}
	return 0, true, fmt.Errorf("%s must be a number, got %T", key, raw)
}

func boolArg(input map[string]any, key string) (bool, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, raw)
	}
	return b, nil
}

func stringsArg(input map[string]any, key string) ([]string, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain strings, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must be a list of strings, got %T", key, raw)
}

// seedArg returns a seeded source when the input names a seed, or nil for a random one.
func seedArg(input map[string]any) (*rand.Rand, error) {
	seed, ok, err := intArg(input, "seed")
	if err != nil || !ok {
		return nil, err
	}
	if seed < 0 {
		return nil, fmt.Errorf("seed must not be negative, got %d", seed)
	}
	return planner.NewRand(uint64(seed)), nil
}
