// Package predicate defines the canonical scalar predicate form consumed by
// the chunk pruning core, and a small parser that turns WHERE-clause text
// into that form for the CLI and HTTP surfaces. Planners that already hold
// normalized predicates construct Comparisons directly.
package predicate

import (
	"fmt"
	"strings"

	"github.com/chronodb/chronodb/internal/types"
)

// Operator is a scalar comparison operator. The pruning core only folds the
// five btree strategies; OpNotEqual exists in the surface form and is always
// rejected by the classifier.
type Operator uint8

const (
	OpInvalid Operator = iota
	OpLess
	OpLessEqual
	OpEqual
	OpGreaterEqual
	OpGreater
	OpNotEqual
)

var opNames = map[Operator]string{
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpEqual:        "=",
	OpGreaterEqual: ">=",
	OpGreater:      ">",
	OpNotEqual:     "!=",
}

func (op Operator) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "invalid"
}

// Commute returns the operator to use after swapping the operands of a
// comparison: 5 < x becomes x > 5.
func (op Operator) Commute() Operator {
	switch op {
	case OpLess:
		return OpGreater
	case OpLessEqual:
		return OpGreaterEqual
	case OpGreater:
		return OpLess
	case OpGreaterEqual:
		return OpLessEqual
	default:
		return op
	}
}

// Operand is one side of a comparison.
type Operand interface {
	operandNode()
	String() string
}

// Column references a table column by name.
type Column struct {
	Name string
}

func (Column) operandNode()     {}
func (c Column) String() string { return c.Name }

// Const is a single constant value as produced by the parser (int64, float64
// or string) or supplied natively by a planner. Coercion to the dimension
// column's type happens in the classifier.
type Const struct {
	Value types.Value
}

func (Const) operandNode()     {}
func (c Const) String() string { return fmt.Sprintf("%v", c.Value) }

// Array is a constant value list from IN (...), = ANY (...) or = ALL (...).
// UseOr is true when the values are alternatives (IN/ANY) and false when all
// of them must hold (ALL).
type Array struct {
	Values []types.Value
	UseOr  bool
}

func (Array) operandNode() {}
func (a Array) String() string {
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	sep := " AND "
	if a.UseOr {
		sep = " OR "
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Func is a function call operand. The parser cannot constant-fold calls, so
// any comparison containing one is treated as non-deterministic and never
// used for pruning.
type Func struct {
	Name string
	Args []Operand
}

func (Func) operandNode()     {}
func (f Func) String() string { return f.Name + "(...)" }

// Comparison is one canonical scalar predicate: left OP right.
type Comparison struct {
	Left  Operand
	Op    Operator
	Right Operand
}

// Volatile reports whether the comparison contains a sub-expression whose
// value can change between evaluations, which makes it unsafe for pruning.
func (c Comparison) Volatile() bool {
	return operandVolatile(c.Left) || operandVolatile(c.Right)
}

func operandVolatile(o Operand) bool {
	f, ok := o.(Func)
	if !ok {
		return false
	}
	for _, arg := range f.Args {
		if operandVolatile(arg) {
			return true
		}
	}
	// No catalog of immutable functions exists here, so every call is
	// treated as volatile.
	return true
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}
