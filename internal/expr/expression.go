// Package expr holds decoded, executable expressions and the stack machine
// that evaluates them.
//
// Sub-expressions live in an arena owned by Program and are referenced by
// slot index. A sub-expression may only reference slots lower than its own,
// and roots may reference any slot, so evaluation always terminates.
package expr

import (
	"fmt"
	"strings"

	"gepkit/internal/ops"
)

// Op is one stack operation: either a primitive or a reference to a
// sub-expression slot.
type Op struct {
	prim ops.Primitive
	slot int
	sub  bool
}

// Primitive wraps a vocabulary primitive.
func Primitive(p ops.Primitive) Op { return Op{prim: p} }

// SubExpressionRef refers to Program.Subs[slot].
func SubExpressionRef(slot int) Op { return Op{slot: slot, sub: true} }

func (o Op) IsSubExpression() bool { return o.sub }

// Slot is the arena index of a sub-expression reference.
func (o Op) Slot() int { return o.slot }

// Primitive returns the wrapped primitive of a non-reference op.
func (o Op) Primitive() ops.Primitive { return o.prim }

func (o Op) Equal(other Op) bool {
	if o.sub != other.sub {
		return false
	}
	if o.sub {
		return o.slot == other.slot
	}
	return o.prim.Equal(other.prim)
}

func (o Op) String() string {
	if o.sub {
		return fmt.Sprintf("EXP[%d]", o.slot)
	}
	return o.prim.String()
}

// Expression is an ordered list of stack operations.
type Expression struct {
	Ops []Op
}

func NewExpression(ops ...Op) Expression {
	return Expression{Ops: ops}
}

func (e Expression) Len() int { return len(e.Ops) }

func (e Expression) Equal(other Expression) bool {
	if len(e.Ops) != len(other.Ops) {
		return false
	}
	for i := range e.Ops {
		if !e.Ops[i].Equal(other.Ops[i]) {
			return false
		}
	}
	return true
}

func (e Expression) String() string {
	parts := make([]string, len(e.Ops))
	for i, op := range e.Ops {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Program is a fully decoded genotype: the sub-expression arena plus the
// root expressions that make up its output vector.
type Program struct {
	Subs      []Expression
	Roots     []Expression
	ArgsCount int
}

// Validate checks that every reference points at an existing, earlier slot.
func (p *Program) Validate() error {
	if p == nil {
		return ops.Errorf(ops.ErrConfiguration, "nil program")
	}
	for i, sub := range p.Subs {
		if err := checkRefs(sub, i, fmt.Sprintf("EXP[%d]", i)); err != nil {
			return err
		}
	}
	for i, root := range p.Roots {
		if err := checkRefs(root, len(p.Subs), fmt.Sprintf("ROOT[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func checkRefs(e Expression, limit int, name string) error {
	for j, op := range e.Ops {
		if op.sub && (op.slot < 0 || op.slot >= limit) {
			return ops.Errorf(ops.ErrIdentifierOutOfRange, "%s op %d references EXP[%d], only %d slots visible", name, j, op.slot, limit)
		}
	}
	return nil
}

func (p *Program) String() string {
	subs := make([]string, len(p.Subs))
	for i, s := range p.Subs {
		subs[i] = "EXP" + s.String()
	}
	roots := make([]string, len(p.Roots))
	for i, r := range p.Roots {
		roots[i] = "ROOT" + r.String()
	}
	return fmt.Sprintf("[%s - %s]", strings.Join(subs, ", "), strings.Join(roots, ", "))
}
