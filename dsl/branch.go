package dsl

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	chat "github.com/everydev1618/gochat"
)

// Resolver picks the step that follows a Listen.
type Resolver struct {
	// Classifier maps free text onto Case patterns. Optional.
	Classifier chat.Classifier

	// ExitWords short-circuit to the goodbye step, compared case-insensitively.
	ExitWords []string

	Logger *slog.Logger

	// OnClassifierError is called when the classifier fails. Optional.
	OnClassifierError func(error)
}

// IsExit reports whether utterance is one of the exit synonyms.
func (r *Resolver) IsExit(utterance string) bool {
	u := strings.TrimSpace(utterance)
	for _, w := range r.exitWords() {
		if strings.EqualFold(u, w) {
			return true
		}
	}
	return false
}

func (r *Resolver) exitWords() []string {
	if r.ExitWords == nil {
		return chat.DefaultExitWords
	}
	return r.ExitWords
}

// Resolve returns the next step for utterance given the Case and Default
// actions of step. The first rule that applies wins:
//
//  1. exit synonym: goodbye
//  2. exact Case pattern
//  3. classifier label equal to a Case pattern
//  4. Default target
//  5. fallback, or welcome when the step has no Case at all
func (r *Resolver) Resolve(ctx context.Context, step *Step, utterance string) string {
	if r.IsExit(utterance) {
		return GoodbyeStep
	}

	cases := step.Cases()
	for _, c := range cases {
		if utterance == c.Pattern {
			return c.Target
		}
	}

	if r.Classifier != nil && len(cases) > 0 {
		labels := make([]string, len(cases))
		for i, c := range cases {
			labels[i] = c.Pattern
		}

		label, err := r.Classifier.Classify(ctx, utterance, labels)
		if err != nil {
			r.logger().Warn("classifier failed", "step", step.Name, "error", err)
			if r.OnClassifierError != nil {
				r.OnClassifierError(err)
			}
		} else if i := slices.Index(labels, label); i >= 0 {
			r.logger().Debug("classified utterance", "step", step.Name, "label", label)
			return cases[i].Target
		}
	}

	if d := step.Default(); d != nil {
		return d.Target
	}
	if len(cases) == 0 {
		return StartStep
	}
	return FallbackStep
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
