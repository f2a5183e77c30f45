// Package rules evaluates a design's conditional rules against a filler's
// variable assignment and answers one question per field: is it active for
// this filling pass, and with which style override.
//
// Evaluation is a pure function of the rule list and the assignment. Rules
// run in declaration order and each matching rule overwrites its targets'
// whole activation record, so with the default policy the last matching
// rule wins. Fields no rule mentions stay active.
package rules

import (
	"fmt"
	"slices"

	"github.com/AdamNissen/speedyf/project"
)

// Assignment maps control variable names to the values a filler chose.
type Assignment map[string]string

// Activation is the outcome for one field: whether it stamps, and an
// optional style override applied when it does.
type Activation struct {
	Active bool
	Style  *project.Style
}

// ActivationSet holds the evaluated outcome for every field a rule touched.
// Fields outside the set are active with no override.
type ActivationSet struct {
	byField map[string]Activation
}

// Active reports whether the field with the given ID stamps. Unmentioned
// fields default to active.
func (s ActivationSet) Active(id string) bool {
	if a, ok := s.byField[id]; ok {
		return a.Active
	}
	return true
}

// Style returns the style override for a field, or nil when the field keeps
// its own parameters.
func (s ActivationSet) Style(id string) *project.Style {
	if a, ok := s.byField[id]; ok {
		return a.Style
	}
	return nil
}

// Explicit returns a copy of the records rules actually wrote, keyed by
// field ID. Fields absent from the map carry the default: active, no
// override.
func (s ActivationSet) Explicit() map[string]Activation {
	out := make(map[string]Activation, len(s.byField))
	for id, a := range s.byField {
		out[id] = a
	}
	return out
}

// UnknownVariableError reports a condition or assignment that names a
// control variable with no value. It is recoverable: the caller fixes the
// assignment and evaluates again.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("rules: unknown control variable %q", e.Name)
}

// DomainError reports an assignment value outside a variable's declared
// domain.
type DomainError struct {
	Variable string
	Value    string
	Domain   []string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("rules: value %q not allowed for %q (domain %v)", e.Value, e.Variable, e.Domain)
}

// Option adjusts evaluation policy.
type Option func(*config)

type config struct {
	firstMatch bool
}

// WithFirstMatch makes the first matching rule claim each target instead of
// the last. Designs written for the default policy read differently under
// this one; it exists for callers migrating rule sets that assumed
// first-match precedence.
func WithFirstMatch() Option {
	return func(c *config) {
		c.firstMatch = true
	}
}

// Evaluate runs every rule against the assignment and folds the outcomes
// into an ActivationSet. A condition that reads an unassigned variable
// stops evaluation with an *UnknownVariableError and no partial result.
func Evaluate(ruleList []project.Rule, a Assignment, opts ...Option) (ActivationSet, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	set := ActivationSet{byField: make(map[string]Activation)}
	var claimed map[string]bool
	if cfg.firstMatch {
		claimed = make(map[string]bool)
	}
	for i := range ruleList {
		r := &ruleList[i]
		matched, err := evalCondition(r.When, a)
		if err != nil {
			return ActivationSet{}, err
		}
		if !matched {
			continue
		}
		outcome := activationFor(r)
		for _, id := range r.Targets {
			if cfg.firstMatch {
				if claimed[id] {
					continue
				}
				claimed[id] = true
			}
			set.byField[id] = outcome
		}
	}
	return set, nil
}

func activationFor(r *project.Rule) Activation {
	switch r.Action {
	case project.ActionDeactivate:
		return Activation{Active: false}
	case project.ActionAltStyle:
		return Activation{Active: true, Style: r.Style}
	default:
		return Activation{Active: true}
	}
}

// evalCondition decides one condition node. Conjunctions stop at the first
// false branch and disjunctions at the first true one, in declaration
// order, so an unassigned variable in a later branch is never touched.
func evalCondition(c project.Condition, a Assignment) (bool, error) {
	switch {
	case c.All != nil:
		for _, sub := range c.All {
			ok, err := evalCondition(sub, a)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case c.Any != nil:
		for _, sub := range c.Any {
			ok, err := evalCondition(sub, a)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case c.Eq != nil:
		v, ok := a[c.Var]
		if !ok {
			return false, &UnknownVariableError{Name: c.Var}
		}
		return v == *c.Eq, nil
	case c.In != nil:
		v, ok := a[c.Var]
		if !ok {
			return false, &UnknownVariableError{Name: c.Var}
		}
		return slices.Contains(c.In, v), nil
	}
	return false, fmt.Errorf("rules: condition with no branch")
}

// CheckAssignment verifies an assignment against the project's variable
// declarations: every assigned name must be declared, and values must stay
// inside non-empty domains. Declared variables may be left unassigned here;
// Evaluate reports them only if a condition actually reads them.
func CheckAssignment(vars []project.Variable, a Assignment) error {
	for i := range vars {
		v := &vars[i]
		value, ok := a[v.Name]
		if !ok {
			continue
		}
		if len(v.Domain) > 0 && !slices.Contains(v.Domain, value) {
			return &DomainError{Variable: v.Name, Value: value, Domain: v.Domain}
		}
	}
	var extraneous []string
	for name := range a {
		if !slices.ContainsFunc(vars, func(v project.Variable) bool { return v.Name == name }) {
			extraneous = append(extraneous, name)
		}
	}
	if len(extraneous) > 0 {
		slices.Sort(extraneous)
		return &UnknownVariableError{Name: extraneous[0]}
	}
	return nil
}
