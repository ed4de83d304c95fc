package predicate_test

import (
	"strings"
	"testing"

	"github.com/chronodb/chronodb/internal/predicate"
)

func mustParse(t *testing.T, input string) []predicate.Comparison {
	t.Helper()
	preds, err := predicate.ParseWhere(input)
	if err != nil {
		t.Fatalf("ParseWhere(%q): %v", input, err)
	}
	return preds
}

func TestParseSimpleComparison(t *testing.T) {
	preds := mustParse(t, "time < 100")
	if len(preds) != 1 {
		t.Fatalf("got %d predicates", len(preds))
	}
	p := preds[0]
	if col, ok := p.Left.(predicate.Column); !ok || col.Name != "time" {
		t.Fatalf("left = %v", p.Left)
	}
	if p.Op != predicate.OpLess {
		t.Fatalf("op = %v", p.Op)
	}
	if c, ok := p.Right.(predicate.Const); !ok || c.Value != int64(100) {
		t.Fatalf("right = %v", p.Right)
	}
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		input string
		want  predicate.Operator
	}{
		{"x < 1", predicate.OpLess},
		{"x <= 1", predicate.OpLessEqual},
		{"x = 1", predicate.OpEqual},
		{"x >= 1", predicate.OpGreaterEqual},
		{"x > 1", predicate.OpGreater},
		{"x != 1", predicate.OpNotEqual},
		{"x <> 1", predicate.OpNotEqual},
	}
	for _, tt := range tests {
		preds := mustParse(t, tt.input)
		if preds[0].Op != tt.want {
			t.Errorf("%q: op = %v, want %v", tt.input, preds[0].Op, tt.want)
		}
	}
}

func TestParseConjunction(t *testing.T) {
	preds := mustParse(t, "time >= 10 AND time < 20 AND device = 'web'")
	if len(preds) != 3 {
		t.Fatalf("got %d predicates, want 3", len(preds))
	}
	if c, ok := preds[2].Right.(predicate.Const); !ok || c.Value != "web" {
		t.Fatalf("string constant = %v", preds[2].Right)
	}
}

func TestParseParenthesizedConjunction(t *testing.T) {
	preds := mustParse(t, "(time >= 10 AND time < 20) AND device = 'web'")
	if len(preds) != 3 {
		t.Fatalf("got %d predicates, want 3", len(preds))
	}
}

func TestParseIn(t *testing.T) {
	preds := mustParse(t, "device IN ('a', 'b', 'c')")
	if len(preds) != 1 {
		t.Fatalf("got %d predicates", len(preds))
	}
	if preds[0].Op != predicate.OpEqual {
		t.Fatalf("IN must desugar to =, got %v", preds[0].Op)
	}
	arr, ok := preds[0].Right.(predicate.Array)
	if !ok {
		t.Fatalf("right = %T", preds[0].Right)
	}
	if !arr.UseOr {
		t.Fatal("IN list must be an OR array")
	}
	if len(arr.Values) != 3 || arr.Values[0] != "a" {
		t.Fatalf("values = %v", arr.Values)
	}
}

func TestParseAnyAll(t *testing.T) {
	preds := mustParse(t, "device = ANY (1, 2)")
	arr := preds[0].Right.(predicate.Array)
	if !arr.UseOr {
		t.Fatal("ANY must be an OR array")
	}

	preds = mustParse(t, "device = ALL (1, 2)")
	arr = preds[0].Right.(predicate.Array)
	if arr.UseOr {
		t.Fatal("ALL must be an AND array")
	}
}

func TestParseConstantOnLeft(t *testing.T) {
	preds := mustParse(t, "100 > time")
	if _, ok := preds[0].Left.(predicate.Const); !ok {
		t.Fatalf("left = %v", preds[0].Left)
	}
	// Normalization to the column side is the classifier's job, not the
	// parser's.
	if preds[0].Op != predicate.OpGreater {
		t.Fatalf("op = %v", preds[0].Op)
	}
}

func TestParseFunctionCall(t *testing.T) {
	preds := mustParse(t, "time > now()")
	f, ok := preds[0].Right.(predicate.Func)
	if !ok {
		t.Fatalf("right = %T", preds[0].Right)
	}
	if f.Name != "now" {
		t.Fatalf("func name = %q", f.Name)
	}
	if !preds[0].Volatile() {
		t.Fatal("function call must make the comparison volatile")
	}
}

func TestParseNumbers(t *testing.T) {
	preds := mustParse(t, "a = -5 AND b = 2.5")
	if c := preds[0].Right.(predicate.Const); c.Value != int64(-5) {
		t.Fatalf("negative int = %v (%T)", c.Value, c.Value)
	}
	if c := preds[1].Right.(predicate.Const); c.Value != float64(2.5) {
		t.Fatalf("float = %v (%T)", c.Value, c.Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{"a = 1 OR b = 2", "OR"},
		{"NOT a = 1", "NOT"},
		{"a = ", "unexpected"},
		{"a = 1 b = 2", "unexpected"},
		{"a IN ()", "constant"},
		{"a IN (b)", "constant"},
		{"= 1", "unexpected"},
	}
	for _, tt := range tests {
		_, err := predicate.ParseWhere(tt.input)
		if err == nil {
			t.Errorf("ParseWhere(%q): expected error", tt.input)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("ParseWhere(%q): error %q does not mention %q", tt.input, err, tt.wantMsg)
		}
	}
}

func TestOperatorCommute(t *testing.T) {
	tests := []struct {
		in, want predicate.Operator
	}{
		{predicate.OpLess, predicate.OpGreater},
		{predicate.OpLessEqual, predicate.OpGreaterEqual},
		{predicate.OpGreater, predicate.OpLess},
		{predicate.OpGreaterEqual, predicate.OpLessEqual},
		{predicate.OpEqual, predicate.OpEqual},
		{predicate.OpNotEqual, predicate.OpNotEqual},
	}
	for _, tt := range tests {
		if got := tt.in.Commute(); got != tt.want {
			t.Errorf("Commute(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
