package dsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrIncomparable is returned when If compares values that have no ordering.
var ErrIncomparable = errors.New("incomparable operands")

// comparePrograms holds one compiled comparison per operator. The programs
// are compiled without an environment so operand types are checked at run
// time, where a mismatch becomes ErrIncomparable.
var comparePrograms = func() map[Operator]*vm.Program {
	programs := make(map[Operator]*vm.Program)
	for _, op := range []Operator{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe} {
		program, err := expr.Compile("l " + string(op) + " r")
		if err != nil {
			panic(fmt.Sprintf("dsl: compile %s: %v", op, err))
		}
		programs[op] = program
	}
	return programs
}()

// Evaluate tests cond against vars.
//
// Identifier and string operands are looked up in vars; an unbound name is
// used as literal text. Number operands are integers. Before comparing,
// Coerce converts text to a number when the other side is numeric.
func Evaluate(cond Condition, vars map[string]any) (bool, error) {
	program, ok := comparePrograms[cond.Op]
	if !ok {
		return false, fmt.Errorf("unknown operator %q", cond.Op)
	}

	left, right := Coerce(resolveOperand(cond.Left, vars), resolveOperand(cond.Right, vars))

	out, err := expr.Run(program, map[string]any{"l": left, "r": right})
	if err != nil {
		return false, fmt.Errorf("%s: %w", describeCompare(left, cond.Op, right), ErrIncomparable)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%s: %w", describeCompare(left, cond.Op, right), ErrIncomparable)
	}
	return result, nil
}

// Coerce applies the mixed-type conversion rules used by If:
//
//	text   vs number -> text parsed as a number (float if it contains ".", else int)
//	number vs text   -> same, on the right side
//	anything else    -> unchanged
//
// A text value that does not parse is kept unchanged.
func Coerce(left, right any) (any, any) {
	switch {
	case isText(left) && isNumber(right):
		if n, ok := parseNumber(left.(string)); ok {
			left = n
		}
	case isNumber(left) && isText(right):
		if n, ok := parseNumber(right.(string)); ok {
			right = n
		}
	}
	return left, right
}

func resolveOperand(o Operand, vars map[string]any) any {
	if o.Kind == OperandNumber {
		return o.Number
	}
	if v, ok := vars[o.Text]; ok {
		return normalize(v)
	}
	return o.Text
}

// normalize narrows driver values to the handful of types comparisons understand.
func normalize(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint32:
		return int64(v)
	case float32:
		return float64(v)
	}
	return v
}

func isText(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case int64, float64, uint64:
		return true
	}
	return false
}

func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func describeCompare(left any, op Operator, right any) string {
	return fmt.Sprintf("%T(%v) %s %T(%v)", left, left, op, right, right)
}
