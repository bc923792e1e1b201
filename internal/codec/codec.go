// Package codec persists vocabularies and K-expressions.
//
// Blobs are stable, indented JSON. Modifier and operator funcs cannot be
// written out, so they are stored by tag and restored through an
// ops.Catalog; argument primitives are not stored at all and are re-derived
// from the argument count.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
)

type primitiveRecord struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type vocabularyRecord struct {
	ArgsCount  int               `json:"args_count"`
	Primitives []primitiveRecord `json:"primitives"`
}

type kexpressionRecord struct {
	Values     []uint32         `json:"values"`
	Shape      kexpr.Shape      `json:"shape"`
	Vocabulary vocabularyRecord `json:"vocabulary"`
}

// MarshalVocabulary encodes v as an opaque blob.
func MarshalVocabulary(v *ops.Vocabulary) ([]byte, error) {
	rec, err := vocabularyToRecord(v)
	if err != nil {
		return nil, err
	}
	return jsonMarshalStable(rec)
}

// UnmarshalVocabulary decodes a blob written by MarshalVocabulary. Tags are
// resolved through catalog; a nil catalog means ops.DefaultCatalog().
func UnmarshalVocabulary(data []byte, catalog *ops.Catalog) (*ops.Vocabulary, error) {
	var rec vocabularyRecord
	if err := decodeStrict(data, &rec); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	return recordToVocabulary(rec, catalog)
}

// MarshalKExpression encodes the genes, shape and vocabulary of k.
func MarshalKExpression(k *kexpr.KExpression) ([]byte, error) {
	if k == nil {
		return nil, ops.Errorf(ops.ErrConfiguration, "nil k-expression")
	}
	vrec, err := vocabularyToRecord(k.Vocab)
	if err != nil {
		return nil, err
	}
	values := k.Values
	if values == nil {
		values = []uint32{}
	}
	return jsonMarshalStable(kexpressionRecord{Values: values, Shape: k.Shape, Vocabulary: vrec})
}

// UnmarshalKExpression decodes a blob written by MarshalKExpression. The
// restored genotype must decode: a gene that resolves to nothing is
// ErrIdentifierOutOfRange.
func UnmarshalKExpression(data []byte, catalog *ops.Catalog) (*kexpr.KExpression, error) {
	var rec kexpressionRecord
	if err := decodeStrict(data, &rec); err != nil {
		return nil, fmt.Errorf("decode k-expression: %w", err)
	}
	if rec.Values == nil {
		return nil, ops.Errorf(ops.ErrConfiguration, "values must be an array (not null)")
	}
	vocab, err := recordToVocabulary(rec.Vocabulary, catalog)
	if err != nil {
		return nil, err
	}
	k := &kexpr.KExpression{Values: rec.Values, Shape: rec.Shape, Vocab: vocab}
	if _, err := kexpr.Decode(k, kexpr.TreeRGEP); err != nil {
		return nil, fmt.Errorf("invalid k-expression: %w", err)
	}
	return k, nil
}

func vocabularyToRecord(v *ops.Vocabulary) (vocabularyRecord, error) {
	if v == nil {
		return vocabularyRecord{}, ops.Errorf(ops.ErrConfiguration, "nil vocabulary")
	}
	declared := v.Declared()
	rec := vocabularyRecord{ArgsCount: v.ArgCount(), Primitives: make([]primitiveRecord, len(declared))}
	for i, p := range declared {
		switch p.Kind() {
		case ops.KindConstant:
			rec.Primitives[i] = primitiveRecord{Kind: p.Kind().String(), Value: strconv.FormatFloat(p.Value(), 'g', -1, 64)}
		case ops.KindModifier, ops.KindOperator:
			rec.Primitives[i] = primitiveRecord{Kind: p.Kind().String(), Tag: p.Tag()}
		default:
			return vocabularyRecord{}, ops.Errorf(ops.ErrConfiguration, "primitive %d has kind %s", i, p.Kind())
		}
	}
	return rec, nil
}

func recordToVocabulary(rec vocabularyRecord, catalog *ops.Catalog) (*ops.Vocabulary, error) {
	if catalog == nil {
		catalog = ops.DefaultCatalog()
	}
	prims := make([]ops.Primitive, len(rec.Primitives))
	for i, pr := range rec.Primitives {
		switch pr.Kind {
		case ops.KindConstant.String():
			v, err := strconv.ParseFloat(pr.Value, 64)
			if err != nil {
				return nil, ops.Errorf(ops.ErrConfiguration, "primitive %d: bad constant %q", i, pr.Value)
			}
			prims[i] = ops.Constant(v)
		case ops.KindModifier.String(), ops.KindOperator.String():
			p, ok := catalog.Lookup(pr.Tag)
			if !ok {
				return nil, ops.Errorf(ops.ErrConfiguration, "primitive %d: unknown %s tag %q", i, pr.Kind, pr.Tag)
			}
			if p.Kind().String() != pr.Kind {
				return nil, ops.Errorf(ops.ErrConfiguration, "primitive %d: tag %q is a %s, stored as %s", i, pr.Tag, p.Kind(), pr.Kind)
			}
			prims[i] = p
		default:
			return nil, ops.Errorf(ops.ErrConfiguration, "primitive %d: unsupported kind %q", i, pr.Kind)
		}
	}
	return ops.NewVocabulary(prims, rec.ArgsCount)
}

func jsonMarshalStable(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func decodeStrict(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ops.Error{Kind: ops.ErrConfiguration, Msg: err.Error()}
	}
	// Ensure no trailing junk.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ops.Errorf(ops.ErrConfiguration, "invalid JSON: trailing content")
	}
	return nil
}
