package kexpr

import (
	"fmt"
	"math/rand"

	"gepkit/internal/ops"
)

// Builder produces random K-expressions of one shape over one vocabulary.
type Builder struct {
	Vocab *ops.Vocabulary
	Shape Shape
}

func NewBuilder(vocab *ops.Vocabulary, shape Shape) (*Builder, error) {
	if vocab == nil {
		return nil, ops.Errorf(ops.ErrConfiguration, "vocabulary is required")
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Builder{Vocab: vocab, Shape: shape}, nil
}

// SingleRootPrimitives builds genotypes of one root and no sub-expressions.
func SingleRootPrimitives(vocab *ops.Vocabulary, length int) (*Builder, error) {
	return NewBuilder(vocab, Shape{RootLength: length, RootCount: 1})
}

// SingleRootADFs builds genotypes of one root that may call subCount
// sub-expressions, which themselves use primitives only.
func SingleRootADFs(vocab *ops.Vocabulary, rootLength, subLength, subCount int) (*Builder, error) {
	return NewBuilder(vocab, Shape{SubLength: subLength, SubCount: subCount, RootLength: rootLength, RootCount: 1})
}

// Build draws a new genotype from r.
//
// Sub-expression segments are drawn from one identifier space that grows by
// a slot after each segment when ReuseSubExpr is set, so segment i can only
// name segments before it. That space leaves out ARG[2] and above, which a
// sub-expression never receives. Root segments are drawn from a second space
// holding every argument and every sub-expression slot.
func (b *Builder) Build(r *rand.Rand) (*KExpression, error) {
	values := make([]uint32, 0, b.Shape.Len())

	subs := subSpace(b.Vocab)
	for i := 0; i < b.Shape.SubCount; i++ {
		ids, err := subs.RandomIdentifiers(r, b.Shape.SubLength)
		if err != nil {
			return nil, fmt.Errorf("sub-expression %d: %w", i, err)
		}
		values = append(values, ids...)
		if b.Shape.ReuseSubExpr {
			subs.AddExpressionSlots(1)
		}
	}

	roots := b.Vocab.IdentifierSpace()
	roots.AddExpressionSlots(b.Shape.SubCount)
	for i := 0; i < b.Shape.RootCount; i++ {
		ids, err := roots.RandomIdentifiers(r, b.Shape.RootLength)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		values = append(values, ids...)
	}

	return &KExpression{Values: values, Shape: b.Shape, Vocab: b.Vocab}, nil
}
