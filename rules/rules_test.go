package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AdamNissen/speedyf/project"
)

func strptr(s string) *string { return &s }

func TestDefaultActive(t *testing.T) {
	set, err := Evaluate(nil, Assignment{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !set.Active("inst_anything") {
		t.Error("field with no rules is inactive")
	}
	if set.Style("inst_anything") != nil {
		t.Error("field with no rules has a style override")
	}
}

func TestLastMatchWins(t *testing.T) {
	ruleList := []project.Rule{
		{
			When:    project.Condition{Var: "plan", Eq: strptr("basic")},
			Action:  project.ActionDeactivate,
			Targets: []string{"inst_extras"},
		},
		{
			When:    project.Condition{Var: "plan", In: []string{"basic", "pro"}},
			Action:  project.ActionActivate,
			Targets: []string{"inst_extras"},
		},
	}
	set, err := Evaluate(ruleList, Assignment{"plan": "basic"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !set.Active("inst_extras") {
		t.Error("last matching rule activates, field reported inactive")
	}

	// Reversed declaration order flips the outcome.
	reversed := []project.Rule{ruleList[1], ruleList[0]}
	set, err = Evaluate(reversed, Assignment{"plan": "basic"})
	if err != nil {
		t.Fatalf("Evaluate reversed: %v", err)
	}
	if set.Active("inst_extras") {
		t.Error("last matching rule deactivates, field reported active")
	}
}

func TestFirstMatchOption(t *testing.T) {
	ruleList := []project.Rule{
		{
			When:    project.Condition{Var: "plan", Eq: strptr("basic")},
			Action:  project.ActionDeactivate,
			Targets: []string{"inst_extras"},
		},
		{
			When:    project.Condition{Var: "plan", Eq: strptr("basic")},
			Action:  project.ActionActivate,
			Targets: []string{"inst_extras"},
		},
	}
	set, err := Evaluate(ruleList, Assignment{"plan": "basic"}, WithFirstMatch())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if set.Active("inst_extras") {
		t.Error("first-match policy: first rule deactivates, field reported active")
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	ruleList := []project.Rule{
		{
			When:    project.Condition{Var: "region", In: []string{"CA", "NY"}},
			Action:  project.ActionAltStyle,
			Targets: []string{"inst_a", "inst_b"},
			Style:   &project.Style{FontStyle: "B"},
		},
		{
			When:    project.Condition{Var: "region", Eq: strptr("CA")},
			Action:  project.ActionDeactivate,
			Targets: []string{"inst_b", "inst_c"},
		},
	}
	a := Assignment{"region": "CA"}
	first, err := Evaluate(ruleList, a)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Evaluate(ruleList, a)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if diff := cmp.Diff(first.Explicit(), again.Explicit()); diff != "" {
			t.Fatalf("repeated evaluation diverged (-first +again):\n%s", diff)
		}
	}
}

func TestAltStyleActivatesWithOverride(t *testing.T) {
	style := &project.Style{Color: &project.Color{R: 200}, FontStyle: "B"}
	ruleList := []project.Rule{
		{
			When:    project.Condition{Var: "urgent", Eq: strptr("yes")},
			Action:  project.ActionDeactivate,
			Targets: []string{"inst_notice"},
		},
		{
			When:    project.Condition{Var: "urgent", Eq: strptr("yes")},
			Action:  project.ActionAltStyle,
			Targets: []string{"inst_notice"},
			Style:   style,
		},
	}
	set, err := Evaluate(ruleList, Assignment{"urgent": "yes"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !set.Active("inst_notice") {
		t.Error("alt-style rule leaves field inactive")
	}
	if got := set.Style("inst_notice"); got != style {
		t.Errorf("Style = %+v, want the rule's override", got)
	}

	// A later deactivate replaces the whole record, override included.
	ruleList = append(ruleList, project.Rule{
		When:    project.Condition{Var: "urgent", Eq: strptr("yes")},
		Action:  project.ActionDeactivate,
		Targets: []string{"inst_notice"},
	})
	set, err = Evaluate(ruleList, Assignment{"urgent": "yes"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if set.Active("inst_notice") {
		t.Error("trailing deactivate did not win")
	}
	if set.Style("inst_notice") != nil {
		t.Error("deactivated field kept a stale style override")
	}
}

func TestConditionShortCircuit(t *testing.T) {
	// The second branch reads an unassigned variable. Declaration-order
	// short-circuiting means it is never evaluated.
	anyRule := project.Rule{
		When: project.Condition{Any: []project.Condition{
			{Var: "plan", Eq: strptr("pro")},
			{Var: "unset", Eq: strptr("x")},
		}},
		Action:  project.ActionDeactivate,
		Targets: []string{"inst_a"},
	}
	set, err := Evaluate([]project.Rule{anyRule}, Assignment{"plan": "pro"})
	if err != nil {
		t.Fatalf("Evaluate any: %v", err)
	}
	if set.Active("inst_a") {
		t.Error("matched disjunction did not apply")
	}

	allRule := project.Rule{
		When: project.Condition{All: []project.Condition{
			{Var: "plan", Eq: strptr("basic")},
			{Var: "unset", Eq: strptr("x")},
		}},
		Action:  project.ActionDeactivate,
		Targets: []string{"inst_a"},
	}
	if _, err := Evaluate([]project.Rule{allRule}, Assignment{"plan": "pro"}); err != nil {
		t.Fatalf("Evaluate all with false first branch: %v", err)
	}

	// Once the first branch passes, the unassigned variable is reached.
	_, err = Evaluate([]project.Rule{allRule}, Assignment{"plan": "basic"})
	var uv *UnknownVariableError
	if !errors.As(err, &uv) || uv.Name != "unset" {
		t.Fatalf("Evaluate: got %v, want UnknownVariableError for %q", err, "unset")
	}
}

func TestUnknownVariableIsRecoverable(t *testing.T) {
	ruleList := []project.Rule{{
		When:    project.Condition{Var: "plan", Eq: strptr("basic")},
		Action:  project.ActionDeactivate,
		Targets: []string{"inst_extras"},
	}}
	_, err := Evaluate(ruleList, Assignment{})
	var uv *UnknownVariableError
	if !errors.As(err, &uv) {
		t.Fatalf("Evaluate: got %v, want UnknownVariableError", err)
	}
	set, err := Evaluate(ruleList, Assignment{"plan": "basic"})
	if err != nil {
		t.Fatalf("Evaluate after assigning: %v", err)
	}
	if set.Active("inst_extras") {
		t.Error("rule did not apply after the variable was assigned")
	}
}

func TestEvaluateDoesNotMutateAssignment(t *testing.T) {
	a := Assignment{"plan": "basic"}
	ruleList := []project.Rule{{
		When:    project.Condition{Var: "plan", Eq: strptr("basic")},
		Action:  project.ActionActivate,
		Targets: []string{"inst_a"},
	}}
	if _, err := Evaluate(ruleList, a); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if diff := cmp.Diff(Assignment{"plan": "basic"}, a); diff != "" {
		t.Errorf("assignment mutated (-want +got):\n%s", diff)
	}
}

func TestCheckAssignment(t *testing.T) {
	vars := []project.Variable{
		{Name: "plan", Domain: []string{"basic", "pro"}},
		{Name: "note"},
	}
	if err := CheckAssignment(vars, Assignment{"plan": "pro", "note": "anything at all"}); err != nil {
		t.Errorf("valid assignment rejected: %v", err)
	}
	err := CheckAssignment(vars, Assignment{"plan": "enterprise"})
	var de *DomainError
	if !errors.As(err, &de) || de.Variable != "plan" || de.Value != "enterprise" {
		t.Fatalf("CheckAssignment: got %v, want DomainError for plan", err)
	}
	err = CheckAssignment(vars, Assignment{"plan": "pro", "ghost": "x"})
	var uv *UnknownVariableError
	if !errors.As(err, &uv) || uv.Name != "ghost" {
		t.Fatalf("CheckAssignment: got %v, want UnknownVariableError for ghost", err)
	}
	if err := CheckAssignment(vars, Assignment{}); err != nil {
		t.Errorf("partial assignment rejected: %v", err)
	}
}
