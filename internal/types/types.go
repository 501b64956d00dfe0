// Package types implements the type descriptors and conversion/operator
// compatibility tables described in spec.md §3 and §4.1: BaseType, the
// simple/functional TypeDesc shapes, TYPE_CONVERTIBILITY, and
// BIN_OP_TYPE_COMPATIBILITY.
package types

import (
	"fmt"
	"strings"
)

// BaseType enumerates the primitive types of the source language.
type BaseType int

const (
	VOID BaseType = iota
	INT
	FLOAT
	STR
	CHAR
)

func (bt BaseType) String() string {
	switch bt {
	case VOID:
		return "void"
	case INT:
		return "int"
	case FLOAT:
		return "float"
	case STR:
		return "string"
	case CHAR:
		return "char"
	default:
		return fmt.Sprintf("BaseType(%d)", int(bt))
	}
}

// TypeDesc describes a type: either a simple wrapper around one
// BaseType, or a functional type (a return type plus an ordered tuple
// of simple parameter types). Simple TypeDescs are singletons per
// BaseType — construct them only via FromBase/FromStr so equality by
// value always matches the struct comparison used in Equals.
type TypeDesc struct {
	base       BaseType
	returnType *TypeDesc
	params     []*TypeDesc
}

// Simple base-type singletons, matching spec.md's
// "simple types are singletons per BaseType" invariant.
var (
	Void   = &TypeDesc{base: VOID}
	Int    = &TypeDesc{base: INT}
	Float  = &TypeDesc{base: FLOAT}
	Str    = &TypeDesc{base: STR}
	Char   = &TypeDesc{base: CHAR}
	simple = map[BaseType]*TypeDesc{VOID: Void, INT: Int, FLOAT: Float, STR: Str, CHAR: Char}
)

// FromBase returns the singleton simple TypeDesc for a BaseType.
func FromBase(bt BaseType) *TypeDesc {
	return simple[bt]
}

// FromStr resolves a source type name ("int", "float", ...) to its
// TypeDesc, or reports "Unknown type X" per spec.md §4.1.
func FromStr(name string) (*TypeDesc, error) {
	switch name {
	case "void":
		return Void, nil
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "string":
		return Str, nil
	case "char":
		return Char, nil
	default:
		return nil, fmt.Errorf("Unknown type %s", name)
	}
}

// NewFunc builds a functional TypeDesc from a return type and ordered
// parameter types.
func NewFunc(ret *TypeDesc, params ...*TypeDesc) *TypeDesc {
	return &TypeDesc{returnType: ret, params: params}
}

// IsSimple reports whether t wraps a single BaseType.
func (t *TypeDesc) IsSimple() bool { return t.returnType == nil }

// IsFunc reports whether t is a functional type.
func (t *TypeDesc) IsFunc() bool { return t.returnType != nil }

// Base returns the wrapped BaseType. Only meaningful when IsSimple.
func (t *TypeDesc) Base() BaseType { return t.base }

// ReturnType returns the function's return type. Only meaningful when IsFunc.
func (t *TypeDesc) ReturnType() *TypeDesc { return t.returnType }

// Params returns the function's ordered parameter types. Only meaningful when IsFunc.
func (t *TypeDesc) Params() []*TypeDesc { return t.params }

// Equals performs structural equality: two simple types are equal iff
// their BaseType matches; two functional types are equal iff their
// return types and parameter tuples match pairwise.
func (t *TypeDesc) Equals(other *TypeDesc) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.IsFunc() != other.IsFunc() {
		return false
	}
	if !t.IsFunc() {
		return t.base == other.base
	}
	if !t.returnType.Equals(other.returnType) {
		return false
	}
	if len(t.params) != len(other.params) {
		return false
	}
	for i := range t.params {
		if !t.params[i].Equals(other.params[i]) {
			return false
		}
	}
	return true
}

// String formats a simple type as its base name, and a functional type
// as "return (p1, p2, ...)".
func (t *TypeDesc) String() string {
	if !t.IsFunc() {
		return t.base.String()
	}
	var sb strings.Builder
	sb.WriteString(t.returnType.String())
	sb.WriteString(" (")
	for i, p := range t.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// TypeConvertibility is the directed map of permitted implicit
// conversions between base types (spec.md §3). No transitive closure
// is taken: only these direct edges are considered.
var TypeConvertibility = map[BaseType][]BaseType{
	INT:   {FLOAT, STR, CHAR},
	FLOAT: {STR},
	STR:   {CHAR},
	CHAR:  {STR},
}

// CanConvert reports whether an implicit conversion from `from` to
// `to` is permitted: both types must be simple and `to` must be a
// direct edge out of `from` in TypeConvertibility.
func CanConvert(from, to *TypeDesc) bool {
	if from == nil || to == nil || !from.IsSimple() || !to.IsSimple() {
		return false
	}
	for _, edge := range TypeConvertibility[from.base] {
		if edge == to.base {
			return true
		}
	}
	return false
}

// ConvertibleTargets returns the base types `from` may be implicitly
// converted to, in table order.
func ConvertibleTargets(from BaseType) []BaseType {
	return TypeConvertibility[from]
}

// BinOp enumerates the thirteen binary operators of spec.md §3.
type BinOp string

const (
	Add BinOp = "+"
	Sub BinOp = "-"
	Mul BinOp = "*"
	Div BinOp = "/"
	Mod BinOp = "%"
	Gt  BinOp = ">"
	Lt  BinOp = "<"
	Ge  BinOp = ">="
	Le  BinOp = "<="
	Eq  BinOp = "=="
	Ne  BinOp = "!="
	And BinOp = "&&"
	Or  BinOp = "||"
)

type typePair struct{ a, b BaseType }

// BinOpTypeCompatibility maps, for each binary operator, the operand
// BaseType pairs it accepts to the BaseType of the result (spec.md §3).
var BinOpTypeCompatibility = map[BinOp]map[typePair]BaseType{
	Add: {
		{INT, INT}:     INT,
		{FLOAT, FLOAT}: FLOAT,
		{STR, STR}:     STR,
		{CHAR, CHAR}:   STR,
	},
	Sub: {{INT, INT}: INT, {FLOAT, FLOAT}: FLOAT},
	Mul: {{INT, INT}: INT, {FLOAT, FLOAT}: FLOAT},
	Div: {{INT, INT}: INT, {FLOAT, FLOAT}: FLOAT},
	Mod: {{INT, INT}: INT, {FLOAT, FLOAT}: FLOAT},
	Gt:  comparisonResults(),
	Lt:  comparisonResults(),
	Ge:  comparisonResults(),
	Le:  comparisonResults(),
	Eq:  comparisonResults(),
	Ne:  comparisonResults(),
	And: {{INT, INT}: INT},
	Or:  {{INT, INT}: INT},
}

// comparisonResults builds the (INT,INT)/(FLOAT,FLOAT)/(STR,STR)/(CHAR,CHAR) -> INT
// table shared by all six comparison operators.
func comparisonResults() map[typePair]BaseType {
	return map[typePair]BaseType{
		{INT, INT}:     INT,
		{FLOAT, FLOAT}: INT,
		{STR, STR}:     INT,
		{CHAR, CHAR}:   INT,
	}
}

// LookupBinOp returns the result BaseType of applying op to operands of
// BaseTypes a and b, if that exact pair is listed for op.
func LookupBinOp(op BinOp, a, b BaseType) (BaseType, bool) {
	table, ok := BinOpTypeCompatibility[op]
	if !ok {
		return VOID, false
	}
	result, ok := table[typePair{a, b}]
	return result, ok
}
