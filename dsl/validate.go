package dsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ValidationError describes a likely mistake in a script. Validation is
// opt-in: the engine itself never rejects a script that parses.
type ValidationError struct {
	Step    string
	Line    int
	Field   string
	Message string
	Hint    string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Step != "" {
		msg = "step " + e.Step + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Hint != "" {
		msg = msg + "\n  → " + e.Hint
	}
	return msg
}

// Validate checks a parsed script for undefined targets, unreachable
// branches, unbalanced locks and placeholders that are never bound.
func Validate(script *Script) []*ValidationError {
	var errs []*ValidationError
	names := append([]string(nil), script.Order...)

	if _, ok := script.Steps[StartStep]; !ok {
		errs = append(errs, &ValidationError{
			Message: fmt.Sprintf("no %q step; conversations start there", StartStep),
		})
	}

	for _, name := range script.Redefined {
		errs = append(errs, &ValidationError{
			Step:    name,
			Line:    script.Steps[name].Line,
			Message: "defined more than once; the last definition is used",
		})
	}

	locked := make(map[string]bool)
	bound := make(map[string]bool)
	for _, step := range script.Steps {
		for _, a := range step.Actions {
			switch a := a.(type) {
			case *Lock:
				locked[a.Resource] = true
			case *ListenAssign:
				bound[a.Var] = true
			case *DBQuery:
				bound[a.Var] = true
			}
		}
	}

	for _, name := range names {
		step := script.Steps[name]
		var (
			listens  int
			defaults int
			branches int
		)

		for _, a := range step.Actions {
			if target, ok := Target(a); ok {
				if _, defined := script.Steps[target]; !defined {
					ve := &ValidationError{
						Step:    step.Name,
						Line:    step.Line,
						Field:   a.Kind(),
						Message: fmt.Sprintf("target step %q is not defined", target),
					}
					if similar := findSimilar(target, names); similar != "" {
						ve.Hint = fmt.Sprintf("did you mean %q?", similar)
					}
					errs = append(errs, ve)
				}
			}

			switch a := a.(type) {
			case *Listen:
				listens++
			case *Case:
				branches++
			case *Default:
				branches++
				defaults++
			case *Unlock:
				if !locked[a.Resource] {
					errs = append(errs, &ValidationError{
						Step:    step.Name,
						Line:    step.Line,
						Field:   a.Kind(),
						Message: fmt.Sprintf("resource %q is never locked", a.Resource),
					})
				}
			case *Speak:
				errs = append(errs, unboundPlaceholders(step, a.Kind(), a.Text, bound)...)
			case *DBQuery:
				errs = append(errs, unboundPlaceholders(step, a.Kind(), a.SQL, bound)...)
			case *DBExec:
				errs = append(errs, unboundPlaceholders(step, a.Kind(), a.SQL, bound)...)
			}
		}

		if defaults > 1 {
			errs = append(errs, &ValidationError{
				Step:    step.Name,
				Line:    step.Line,
				Field:   "Default",
				Message: "more than one Default; the last one is used",
			})
		}
		if branches > 0 && listens == 0 {
			errs = append(errs, &ValidationError{
				Step:    step.Name,
				Line:    step.Line,
				Field:   "Case",
				Message: "Case/Default without a Listen are never consulted",
			})
		}
	}

	return errs
}

func unboundPlaceholders(step *Step, kind, text string, bound map[string]bool) []*ValidationError {
	var errs []*ValidationError
	for _, name := range Placeholders(text) {
		if bound[name] {
			continue
		}
		errs = append(errs, &ValidationError{
			Step:    step.Name,
			Line:    step.Line,
			Field:   kind,
			Message: fmt.Sprintf("placeholder {%s} is never bound", name),
			Hint:    fmt.Sprintf("bind it with Listen assign %s or a DBQuery", name),
		})
	}
	return errs
}

// findSimilar returns the candidate closest to target, or "".
func findSimilar(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(target), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist >= 0 && bestDist <= 3 {
		return best
	}
	return ""
}
