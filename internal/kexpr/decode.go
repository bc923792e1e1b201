package kexpr

import (
	"fmt"

	"gepkit/internal/expr"
	"gepkit/internal/ops"
)

// TreeType selects how a gene sequence is read into expressions. Only RGEP
// is implemented.
type TreeType uint8

const (
	TreeGEP TreeType = iota
	TreePGEP
	TreeRGEP
)

func (t TreeType) String() string {
	switch t {
	case TreeGEP:
		return "GEP"
	case TreePGEP:
		return "PGEP"
	case TreeRGEP:
		return "RGEP"
	default:
		return fmt.Sprintf("TreeType(%d)", uint8(t))
	}
}

// OperationTable resolves gene values during a decode: identifiers below the
// vocabulary length are primitives, the next ones are the sub-expressions
// registered so far. A table is built per decode and never shared.
type OperationTable struct {
	vocab *ops.Vocabulary
	subs  []expr.Expression
}

func NewOperationTable(vocab *ops.Vocabulary) *OperationTable {
	return &OperationTable{vocab: vocab}
}

// NewOperationTableWithSubs seeds a table with already decoded
// sub-expressions. declared is the slot count the caller expects; any other
// number of subs is a configuration error.
func NewOperationTableWithSubs(vocab *ops.Vocabulary, declared int, subs []expr.Expression) (*OperationTable, error) {
	if len(subs) != declared {
		return nil, ops.Errorf(ops.ErrConfiguration, "expected %d sub-expressions, got %d", declared, len(subs))
	}
	t := &OperationTable{vocab: vocab, subs: make([]expr.Expression, len(subs))}
	copy(t.subs, subs)
	return t, nil
}

// OperationByID resolves a gene value.
func (t *OperationTable) OperationByID(id uint32) (expr.Op, error) {
	if p, ok := t.vocab.Primitive(int(id)); ok {
		return expr.Primitive(p), nil
	}
	slot := int(id) - t.vocab.Len()
	if slot < 0 || slot >= len(t.subs) {
		return expr.Op{}, ops.Errorf(ops.ErrIdentifierOutOfRange, "id %d is not available with %d primitives and %d sub-expressions", id, t.vocab.Len(), len(t.subs))
	}
	return expr.SubExpressionRef(slot), nil
}

// Register appends e as the next sub-expression slot and returns its index.
func (t *OperationTable) Register(e expr.Expression) int {
	t.subs = append(t.subs, e)
	return len(t.subs) - 1
}

// Subs returns the registered sub-expressions in slot order.
func (t *OperationTable) Subs() []expr.Expression {
	out := make([]expr.Expression, len(t.subs))
	copy(out, t.subs)
	return out
}

func (t *OperationTable) expression(genes []uint32) (expr.Expression, error) {
	opsOut := make([]expr.Op, len(genes))
	for i, g := range genes {
		op, err := t.OperationByID(g)
		if err != nil {
			return expr.Expression{}, fmt.Errorf("gene %d: %w", i, err)
		}
		opsOut[i] = op
	}
	return expr.Expression{Ops: opsOut}, nil
}

// Decode reads k into an executable program.
//
// Sub-expression segments are decoded in order, each registered as the next
// slot once built, so a segment can only refer to segments before it. Roots
// are then decoded against the full set of slots.
func Decode(k *KExpression, tree TreeType) (*expr.Program, error) {
	if tree != TreeRGEP {
		return nil, ops.Errorf(ops.ErrDecodeUnsupported, "%s decoding is not implemented", tree)
	}
	if k.Vocab == nil {
		return nil, ops.Errorf(ops.ErrConfiguration, "k-expression has no vocabulary")
	}
	if err := k.Shape.Validate(); err != nil {
		return nil, err
	}
	if len(k.Values) != k.Shape.Len() {
		return nil, ops.Errorf(ops.ErrConfiguration, "expected %d genes for shape, got %d", k.Shape.Len(), len(k.Values))
	}

	cursor := 0
	table := NewOperationTable(k.Vocab)
	for i := 0; i < k.Shape.SubCount; i++ {
		e, err := table.expression(k.Values[cursor : cursor+k.Shape.SubLength])
		if err != nil {
			return nil, fmt.Errorf("sub-expression %d: %w", i, err)
		}
		if err := checkSubArgs(e); err != nil {
			return nil, fmt.Errorf("sub-expression %d: %w", i, err)
		}
		table.Register(e)
		cursor += k.Shape.SubLength
	}

	rootTable, err := NewOperationTableWithSubs(k.Vocab, k.Shape.SubCount, table.subs)
	if err != nil {
		return nil, err
	}
	roots := make([]expr.Expression, 0, k.Shape.RootCount)
	for i := 0; i < k.Shape.RootCount; i++ {
		e, err := rootTable.expression(k.Values[cursor : cursor+k.Shape.RootLength])
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		roots = append(roots, e)
		cursor += k.Shape.RootLength
	}

	return &expr.Program{
		Subs:      rootTable.subs,
		Roots:     roots,
		ArgsCount: k.Vocab.ArgCount(),
	}, nil
}

// checkSubArgs rejects arguments a sub-expression call never supplies.
func checkSubArgs(e expr.Expression) error {
	for j, op := range e.Ops {
		if op.IsSubExpression() {
			continue
		}
		if p := op.Primitive(); p.Kind() == ops.KindArgument && p.Index() >= expr.SubExpressionArgs {
			return ops.Errorf(ops.ErrArgumentIndexOutOfRange, "gene %d reads %s, sub-expressions receive %d arguments", j, p, expr.SubExpressionArgs)
		}
	}
	return nil
}

// Program decodes k with RGEP.
func (k *KExpression) Program() (*expr.Program, error) {
	return Decode(k, TreeRGEP)
}
