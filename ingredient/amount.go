package ingredient

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnitMismatch is returned when two specified amounts with different units are added.
	ErrUnitMismatch = errors.New("unit mismatch")
	// ErrMalformed is returned for text that cannot be read as an ingredient or amount.
	ErrMalformed = errors.New("malformed ingredient")
)

// Amount is a quantity with an optional unit. An unspecified amount never carries a unit.
type Amount struct {
	Value     float64
	Unit      string
	Specified bool
}

// Unspecified returns the amount of a bare mention such as "Salt".
func Unspecified() Amount { return Amount{} }

// Quantity returns a specified amount with a normalized unit.
func Quantity(value float64, unit string) Amount {
	return Amount{Value: value, Unit: NormalizeUnit(unit), Specified: true}
}

// Add sums two amounts. Absence dominates: if either side is unspecified the result is
// unspecified. Two specified amounts must share a unit; there is no unit conversion.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.Specified || !b.Specified {
		return Unspecified(), nil
	}
	if a.Unit != b.Unit {
		return Amount{}, fmt.Errorf("%w: %q and %q", ErrUnitMismatch, a.Unit, b.Unit)
	}
	return Amount{Value: a.Value + b.Value, Unit: a.Unit, Specified: true}, nil
}

func (a Amount) String() string {
	if !a.Specified {
		return "as needed"
	}
	if a.Unit == "" {
		return FormatValue(a.Value)
	}
	return FormatValue(a.Value) + " " + a.Unit
}

// FormatValue renders a quantity without trailing zeros, rounded to three decimals.
func FormatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

var (
	numberPattern = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+)\s*(.*)$`)
	rangePattern  = regexp.MustCompile(`^(?:-|–|to\s)\s*(\d+(?:\.\d+)?)\s*(.*)$`)
)

var vulgarFractions = strings.NewReplacer(
	"½", " 1/2",
	"⅓", " 1/3",
	"⅔", " 2/3",
	"¼", " 1/4",
	"¾", " 3/4",
	"⅛", " 1/8",
)

// ParseAmount reads text such as "2 tablespoons", "1/2 cup", "1 1/2 cups", "0.5 kg",
// "2-3 cloves" (upper bound wins) or "1 cup + 2 cups". Compound amounts must share a unit.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty amount", ErrMalformed)
	}

	if strings.Contains(s, "+") {
		var total Amount
		for i, part := range strings.Split(s, "+") {
			a, err := ParseAmount(part)
			if err != nil {
				return Amount{}, err
			}
			if i == 0 {
				total = a
				continue
			}
			if total, err = total.Add(a); err != nil {
				return Amount{}, fmt.Errorf("amount %q: %w", s, err)
			}
		}
		return total, nil
	}

	s = strings.Join(strings.Fields(vulgarFractions.Replace(s)), " ")
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return Amount{}, fmt.Errorf("%w: no quantity in %q", ErrMalformed, s)
	}

	value, err := parseNumber(m[1])
	if err != nil {
		return Amount{}, err
	}
	unit := m[2]
	if r := rangePattern.FindStringSubmatch(unit); r != nil {
		upper, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: range %q", ErrMalformed, s)
		}
		value, unit = math.Max(value, upper), r[2]
	}
	return Quantity(value, unit), nil
}

func parseNumber(s string) (float64, error) {
	var whole float64
	if fields := strings.Fields(s); len(fields) == 2 {
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: number %q", ErrMalformed, s)
		}
		whole, s = w, fields[1]
	}

	num, den, isFraction := strings.Cut(s, "/")
	if !isFraction {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: number %q", ErrMalformed, s)
		}
		return whole + v, nil
	}

	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, fmt.Errorf("%w: fraction %q", ErrMalformed, s)
	}
	return whole + n/d, nil
}
