package dsl

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	script := mustParse(t, `module "m"
Step start
  Speak "Hello {name}"
  Case "x" -> goto nowhere
Step checkStock
  Unlock "phone_stock"
  Listen
  Default -> goto checkStok
  Default -> goto start
Step start
  goto chekStock
`)

	errs := Validate(script)

	want := []string{
		`no "welcome" step`,
		"step start: defined more than once",
		"step checkStock: Unlock: resource \"phone_stock\" is never locked",
		"step checkStock: Default: target step \"checkStok\" is not defined",
		"did you mean \"checkStock\"?",
		"step checkStock: Default: more than one Default",
		"step start: Goto: target step \"chekStock\" is not defined",
	}

	var all strings.Builder
	for _, e := range errs {
		all.WriteString(e.Error())
		all.WriteString("\n")
	}
	for _, w := range want {
		if !strings.Contains(all.String(), w) {
			t.Errorf("validation output missing %q\ngot:\n%s", w, all.String())
		}
	}

	// The first definition of start is gone, so its Case and placeholder are not reported.
	if strings.Contains(all.String(), "nowhere") || strings.Contains(all.String(), "{name}") {
		t.Errorf("redefined step should only be validated once:\n%s", all.String())
	}
}

func TestValidateCaseWithoutListen(t *testing.T) {
	script := mustParse(t, `module "m"
Step welcome
  Speak "hi"
  Case "a" -> goto welcome
`)
	errs := Validate(script)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "never consulted") {
		t.Errorf("error = %q", errs[0].Error())
	}
}

func TestValidateUnboundPlaceholder(t *testing.T) {
	script := mustParse(t, `module "m"
Step welcome
  Speak "You have {count} items"
  DBExec "DELETE FROM cart WHERE id={cartId}"
  Listen assign cartId
  Exit
`)
	errs := Validate(script)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != "Speak" || !strings.Contains(errs[0].Message, "{count}") {
		t.Errorf("error = %+v", errs[0])
	}
	if errs[0].Hint == "" {
		t.Error("expected a hint")
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := &ValidationError{Step: "buy", Line: 4, Field: "Goto", Message: "target step \"x\" is not defined", Hint: "did you mean \"y\"?"}
	want := "step buy: Goto: target step \"x\" is not defined (line 4)\n  → did you mean \"y\"?"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"welcome", "checkStock", "goodbye"}

	tests := []struct {
		target string
		want   string
	}{
		{"checkStok", "checkStock"},
		{"goodbey", "goodbye"},
		{"zzzzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := findSimilar(tt.target, candidates); got != tt.want {
			t.Errorf("findSimilar(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
	if got := findSimilar("x", nil); got != "" {
		t.Errorf("findSimilar with no candidates = %q", got)
	}
}
