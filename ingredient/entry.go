// Package ingredient models the ingredient lines of a recipe: a free-text name plus an
// optional amount. It owns the single normalization used wherever ingredients are compared.
package ingredient

import (
	"fmt"
	"strings"
)

// Entry is one line of a recipe's ingredient section.
type Entry struct {
	Name     string
	Amount   Amount
	Note     string
	Optional bool
}

// Key identifies entries that may be summed together.
type Key struct {
	Name string
	Unit string
}

// Key returns the merge key of the entry.
func (e Entry) Key() Key {
	return Key{Name: NormalizeName(e.Name), Unit: NormalizeUnit(e.Amount.Unit)}
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrMalformed)
	}
	if !e.Amount.Specified && e.Amount.Unit != "" {
		return fmt.Errorf("%w: %q has unit %q without a quantity", ErrMalformed, e.Name, e.Amount.Unit)
	}
	if e.Amount.Specified && e.Amount.Value < 0 {
		return fmt.Errorf("%w: %q has negative quantity", ErrMalformed, e.Name)
	}
	return nil
}

func (e Entry) String() string {
	if !e.Amount.Specified {
		return e.Name
	}
	return fmt.Sprintf("%s [%s]", e.Name, e.Amount)
}

// ParseLine reads an ingredient line of the form "- Name [quantity unit] (note)".
// A bracketed "[optional]" marks the entry optional. Bracketed text without a leading
// number, such as "[to taste]", leaves the amount unspecified and is kept as a note.
func ParseLine(line string) (Entry, error) {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.TrimLeft(s, "-*•"))
	if s == "" || strings.HasPrefix(s, "#") {
		return Entry{}, fmt.Errorf("%w: %q is not an ingredient line", ErrMalformed, line)
	}

	end := strings.IndexAny(s, "[(")
	if end < 0 {
		end = len(s)
	}
	e := Entry{Name: strings.Join(strings.Fields(s[:end]), " ")}
	if e.Name == "" {
		return Entry{}, fmt.Errorf("%w: %q has no name", ErrMalformed, line)
	}

	var notes []string
	rest := s[end:]
	for rest != "" {
		open := rest[0]
		closer := byte(']')
		if open == '(' {
			closer = ')'
		}
		stop := strings.IndexByte(rest, closer)
		if stop < 0 {
			return Entry{}, fmt.Errorf("%w: unbalanced %q in %q", ErrMalformed, open, line)
		}
		inner := strings.TrimSpace(rest[1:stop])
		rest = strings.TrimSpace(rest[stop+1:])

		switch {
		case open == '(':
			notes = append(notes, inner)
		case strings.EqualFold(inner, "optional"):
			e.Optional = true
		case !e.Amount.Specified:
			if a, err := ParseAmount(inner); err == nil {
				e.Amount = a
			} else {
				notes = append(notes, inner)
			}
		default:
			notes = append(notes, inner)
		}

		if rest != "" && rest[0] != '[' && rest[0] != '(' {
			notes = append(notes, rest)
			break
		}
	}
	e.Note = strings.Join(notes, "; ")
	return e, nil
}
