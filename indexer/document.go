// Package indexer builds a recipe index from Markdown recipe documents.
package indexer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mealprep/catalog"
	"mealprep/ingredient"
)

var (
	tagPattern      = regexp.MustCompile(`#(\w+)`)
	activePattern   = regexp.MustCompile(`(?i)active cooking time:\s*(.+)`)
	totalPattern    = regexp.MustCompile(`(?i)(?:total cooking time|ready in):\s*(.+)`)
	durationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(d(?:ays?)?|h(?:ours?|rs?)?|m(?:in(?:ute)?s?)?)\b`)
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	asidePattern    = regexp.MustCompile(`\s*\([^)]*\)`)
)

var errNoActiveTime = errors.New("no active cooking time")

// ParseDuration reads a cooking time such as "10 minutes", "1.5 hours" or
// "1 day 2 hours" and returns whole minutes. A bare number is read as minutes and a
// range such as "10-15 minutes" counts as its upper bound.
func ParseDuration(s string) (int, error) {
	s = asidePattern.ReplaceAllString(s, "")
	matches := durationPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		n := numberPattern.FindAllString(s, -1)
		if len(n) == 0 {
			return 0, fmt.Errorf("no duration in %q", s)
		}
		v, err := strconv.ParseFloat(n[len(n)-1], 64)
		if err != nil {
			return 0, err
		}
		return int(math.Round(v)), nil
	}

	var minutes float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(m[2])[0] {
		case 'd':
			minutes += v * 24 * 60
		case 'h':
			minutes += v * 60
		default:
			minutes += v
		}
	}
	return int(math.Round(minutes)), nil
}

// ParseDocument reads one recipe document. The name comes from the first "# " heading,
// falling back to the file name. A document without an active cooking time is rejected;
// a missing total time defaults to the active time. Lines that cannot be read are
// dropped and reported in the returned error next to a usable recipe.
func ParseDocument(filePath string, r io.Reader) (catalog.RecipeSummary, error) {
	rec := catalog.RecipeSummary{FilePath: filePath}
	var (
		section  string
		haveAct  bool
		haveTot  bool
		problems []error
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		plain := strings.ReplaceAll(line, "*", "")

		switch {
		case strings.HasPrefix(line, "# "):
			if rec.Name == "" {
				rec.Name = strings.TrimSpace(line[2:])
			}
			section = ""
		case strings.HasPrefix(line, "## "):
			section = strings.ToLower(strings.TrimSpace(line[3:]))
		case strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##"):
			for _, m := range tagPattern.FindAllStringSubmatch(line, -1) {
				rec.Tags = append(rec.Tags, m[1])
			}
		case activePattern.MatchString(plain):
			v, err := ParseDuration(activePattern.FindStringSubmatch(plain)[1])
			if err != nil {
				problems = append(problems, fmt.Errorf("active time: %w", err))
				continue
			}
			rec.ActiveMinutes, haveAct = v, true
		case totalPattern.MatchString(plain):
			v, err := ParseDuration(totalPattern.FindStringSubmatch(plain)[1])
			if err != nil {
				problems = append(problems, fmt.Errorf("total time: %w", err))
				continue
			}
			rec.TotalMinutes, haveTot = v, true
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "* "):
			switch section {
			case "ingredients":
				e, err := ingredient.ParseLine(line)
				if err != nil {
					problems = append(problems, err)
					continue
				}
				rec.Ingredients = append(rec.Ingredients, e)
			case "efficiency tools":
				if tool := strings.TrimSpace(strings.TrimLeft(line, "-* ")); tool != "" {
					rec.Tools = append(rec.Tools, tool)
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return catalog.RecipeSummary{}, fmt.Errorf("read %s: %w", filePath, err)
	}

	if rec.Name == "" {
		rec.Name = titleFromPath(filePath)
	}
	if !haveAct {
		return catalog.RecipeSummary{}, fmt.Errorf("%s: %w", filePath, errors.Join(append([]error{errNoActiveTime}, problems...)...))
	}
	if !haveTot {
		rec.TotalMinutes = rec.ActiveMinutes
	}
	if err := rec.Validate(); err != nil {
		return catalog.RecipeSummary{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return rec, errors.Join(problems...)
}

func titleFromPath(p string) string {
	stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
	return cases.Title(language.English).String(strings.ReplaceAll(stem, "_", " "))
}
