package ops

import (
	"fmt"
	"strconv"
)

// Kind is the closed set of primitive variants.
type Kind uint8

const (
	KindConstant Kind = iota
	KindArgument
	KindModifier
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindArgument:
		return "argument"
	case KindModifier:
		return "modifier"
	case KindOperator:
		return "operator"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Primitive is a single gene-level operation: a constant, a positional
// argument, a unary modifier or a binary operator.
//
// The zero value is the constant 0. Primitives are values; nothing mutates
// them after construction.
type Primitive struct {
	kind   Kind
	value  float64
	index  int
	tag    string
	unary  func(float64) float64
	binary func(float64, float64) float64
}

func Constant(v float64) Primitive {
	return Primitive{kind: KindConstant, value: v}
}

// Argument refers to args[index] of the evaluated expression. Vocabularies
// create these themselves; NewVocabulary rejects caller-supplied ones.
func Argument(index int) Primitive {
	return Primitive{kind: KindArgument, index: index}
}

func Modifier(tag string, f func(float64) float64) Primitive {
	return Primitive{kind: KindModifier, tag: tag, unary: f}
}

func Operator(tag string, f func(float64, float64) float64) Primitive {
	return Primitive{kind: KindOperator, tag: tag, binary: f}
}

func (p Primitive) Kind() Kind { return p.kind }

// Value is the pushed value of a constant.
func (p Primitive) Value() float64 { return p.value }

// Index is the argument position of an argument primitive.
func (p Primitive) Index() int { return p.index }

// Tag is the display tag of a modifier or operator.
func (p Primitive) Tag() string { return p.tag }

// Arity is the number of stack values the primitive consumes.
func (p Primitive) Arity() int {
	switch p.kind {
	case KindModifier:
		return 1
	case KindOperator:
		return 2
	default:
		return 0
	}
}

func (p Primitive) IsTerminal() bool { return p.Arity() == 0 }

// Apply1 runs a modifier. It panics for other kinds.
func (p Primitive) Apply1(x float64) float64 {
	if p.kind != KindModifier || p.unary == nil {
		panic(fmt.Sprintf("ops: Apply1 on %s %q", p.kind, p.String()))
	}
	return p.unary(x)
}

// Apply2 runs an operator with a as the left operand. It panics for other kinds.
func (p Primitive) Apply2(a, b float64) float64 {
	if p.kind != KindOperator || p.binary == nil {
		panic(fmt.Sprintf("ops: Apply2 on %s %q", p.kind, p.String()))
	}
	return p.binary(a, b)
}

// Equal reports whether two primitives are the same operation. Funcs are not
// comparable, so modifiers and operators compare by tag.
func (p Primitive) Equal(o Primitive) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case KindConstant:
		return p.value == o.value
	case KindArgument:
		return p.index == o.index
	default:
		return p.tag == o.tag
	}
}

// String is the human-readable display text. It is also what ValidateWithFile
// compares, so changing the format invalidates persisted display lists.
func (p Primitive) String() string {
	switch p.kind {
	case KindConstant:
		return strconv.FormatFloat(p.value, 'g', -1, 64)
	case KindArgument:
		return fmt.Sprintf("ARG[%d]", p.index)
	default:
		return p.tag
	}
}
