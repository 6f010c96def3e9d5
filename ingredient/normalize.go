package ingredient

import "strings"

// NormalizeName folds case and whitespace so the same ingredient written differently
// across recipes shares one key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

var unitAliases = map[string]string{
	"tbsp":       "tablespoon",
	"tbs":        "tablespoon",
	"tbl":        "tablespoon",
	"tsp":        "teaspoon",
	"g":          "gram",
	"gr":         "gram",
	"gm":         "gram",
	"kg":         "kilogram",
	"mg":         "milligram",
	"ml":         "milliliter",
	"millilitre": "milliliter",
	"l":          "liter",
	"litre":      "liter",
	"lb":         "pound",
	"lbs":        "pound",
	"oz":         "ounce",
	"pc":         "piece",
	"pcs":        "piece",
}

var irregularPlurals = map[string]string{
	"leaves": "leaf",
	"loaves": "loaf",
	"halves": "half",
}

// NormalizeUnit lower-cases a unit token, expands common abbreviations and reduces it to
// the singular so "Tablespoons", "tbsp." and "tablespoon" compare equal. It does not
// convert between units.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.Join(strings.Fields(unit), " "))
	u = strings.TrimSuffix(u, ".")
	if u == "" {
		return ""
	}
	if alias, ok := unitAliases[u]; ok {
		return alias
	}

	words := strings.Fields(u)
	last := singular(words[len(words)-1])
	if alias, ok := unitAliases[last]; ok {
		last = alias
	}
	words[len(words)-1] = last
	return strings.Join(words, " ")
}

func singular(w string) string {
	if s, ok := irregularPlurals[w]; ok {
		return s
	}
	switch {
	case len(w) <= 2:
		return w
	case strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}
