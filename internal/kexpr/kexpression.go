// Package kexpr implements K-expression genotypes: their random construction,
// RGEP decoding into expr.Program, and point mutation.
package kexpr

import (
	"fmt"
	"iter"
	"strings"

	"gepkit/internal/expr"
	"gepkit/internal/ops"
)

// KExpression is a genotype: a flat gene sequence laid out according to Shape,
// whose values index into Vocab (and, past Vocab.Len(), into sub-expression
// slots).
//
// Vocab is shared and read-only. Values is owned by the KExpression; Mutate
// and SetGenes change it in place, so one goroutine at a time.
type KExpression struct {
	Values []uint32
	Shape  Shape
	Vocab  *ops.Vocabulary
}

// Clone returns a copy that shares only the vocabulary.
func (k *KExpression) Clone() *KExpression {
	values := make([]uint32, len(k.Values))
	copy(values, k.Values)
	return &KExpression{Values: values, Shape: k.Shape, Vocab: k.Vocab}
}

// Genes yields the gene values in order. The sequence may be iterated any
// number of times; each pass reads the current values.
func (k *KExpression) Genes() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for _, v := range k.Values {
			if !yield(v) {
				return
			}
		}
	}
}

// SetGenes replaces the gene values from genes, which must yield exactly
// Shape.Len() values. On error the genotype is left unchanged.
func (k *KExpression) SetGenes(genes iter.Seq[uint32]) error {
	want := k.Shape.Len()
	values := make([]uint32, 0, want)
	for g := range genes {
		values = append(values, g)
		if len(values) > want {
			break
		}
	}
	if len(values) > want {
		return ops.Errorf(ops.ErrConfiguration, "expected %d genes, got more", want)
	}
	if len(values) < want {
		return ops.Errorf(ops.ErrConfiguration, "expected %d genes, got %d", want, len(values))
	}
	k.Values = values
	return nil
}

// Validate checks the gene count against the shape and that every gene lies
// in the identifier range a builder would have used at its locus.
func (k *KExpression) Validate() error {
	if k.Vocab == nil {
		return ops.Errorf(ops.ErrConfiguration, "k-expression has no vocabulary")
	}
	if err := k.Shape.Validate(); err != nil {
		return err
	}
	if len(k.Values) != k.Shape.Len() {
		return ops.Errorf(ops.ErrConfiguration, "expected %d genes for shape, got %d", k.Shape.Len(), len(k.Values))
	}
	for locus, v := range k.Values {
		space := k.spaceAt(locus)
		if !space.Contains(v) {
			start, n := space.Hidden()
			if n > 0 {
				return ops.Errorf(ops.ErrIdentifierOutOfRange, "gene %d at locus %d, legal range is [0, %d) without [%d, %d)", v, locus, space.End(), start, start+n)
			}
			return ops.Errorf(ops.ErrIdentifierOutOfRange, "gene %d at locus %d, legal range is [0, %d)", v, locus, space.End())
		}
	}
	return nil
}

// spaceAt rebuilds the identifier space the builder drew locus from.
func (k *KExpression) spaceAt(locus int) ops.IdentifierSpace {
	var space ops.IdentifierSpace
	if locus < k.Shape.SubRegion() {
		space = subSpace(k.Vocab)
	} else {
		space = k.Vocab.IdentifierSpace()
	}
	space.AddExpressionSlots(k.Shape.slotsBefore(locus))
	return space
}

// subSpace hides the arguments a sub-expression never receives.
func subSpace(v *ops.Vocabulary) ops.IdentifierSpace {
	return v.IdentifierSpaceWithArgs(expr.SubExpressionArgs)
}

// String renders the genotype as [EXP[..], ... - ROOT[..], ...], showing
// sub-expression genes by slot.
func (k *KExpression) String() string {
	base := k.Vocab.Len()
	cursor := 0
	label := func(id uint32) string {
		if p, ok := k.Vocab.Primitive(int(id)); ok {
			return p.String()
		}
		return fmt.Sprintf("EXP[%d]", int(id)-base)
	}
	segment := func(prefix string, n int) string {
		parts := make([]string, 0, n)
		for i := 0; i < n && cursor < len(k.Values); i++ {
			parts = append(parts, label(k.Values[cursor]))
			cursor++
		}
		return prefix + "[" + strings.Join(parts, ", ") + "]"
	}

	subs := make([]string, 0, k.Shape.SubCount)
	for i := 0; i < k.Shape.SubCount; i++ {
		subs = append(subs, segment("EXP", k.Shape.SubLength))
	}
	roots := make([]string, 0, k.Shape.RootCount)
	for i := 0; i < k.Shape.RootCount; i++ {
		roots = append(roots, segment("ROOT", k.Shape.RootLength))
	}
	return fmt.Sprintf("[%s - %s]", strings.Join(subs, ", "), strings.Join(roots, ", "))
}
