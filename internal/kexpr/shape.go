package kexpr

import (
	"errors"
	"fmt"

	"gepkit/internal/ops"
)

// Shape is the structural contract of a genotype: SubCount sub-expression
// segments of SubLength genes, followed by RootCount root segments of
// RootLength genes.
//
// ReuseSubExpr lets sub-expression i reference sub-expressions 0..i-1. When
// false, only roots may reference sub-expressions.
type Shape struct {
	SubLength    int  `json:"sub_length" yaml:"sub_length"`
	SubCount     int  `json:"sub_count" yaml:"sub_count"`
	RootLength   int  `json:"root_length" yaml:"root_length"`
	RootCount    int  `json:"root_count" yaml:"root_count"`
	ReuseSubExpr bool `json:"reuse_sub_expr" yaml:"reuse_sub_expr"`
}

// DefaultShape is a single empty root and no sub-expressions. Set RootLength
// before building.
func DefaultShape() Shape {
	return Shape{RootCount: 1}
}

// Len is the total gene count.
func (s Shape) Len() int {
	return s.SubLength*s.SubCount + s.RootLength*s.RootCount
}

// SubRegion is the gene count of the sub-expression segments.
func (s Shape) SubRegion() int {
	return s.SubLength * s.SubCount
}

func (s Shape) Validate() error {
	var errs []error
	if s.SubLength < 0 {
		errs = append(errs, fmt.Errorf("sub_length must be >= 0, got %d", s.SubLength))
	}
	if s.SubCount < 0 {
		errs = append(errs, fmt.Errorf("sub_count must be >= 0, got %d", s.SubCount))
	}
	if s.SubCount > 0 && s.SubLength == 0 {
		errs = append(errs, errors.New("sub_length must be >= 1 when sub_count > 0"))
	}
	if s.RootCount < 1 {
		errs = append(errs, fmt.Errorf("root_count must be >= 1, got %d", s.RootCount))
	}
	if s.RootLength < 1 {
		errs = append(errs, fmt.Errorf("root_length must be >= 1, got %d", s.RootLength))
	}
	if len(errs) == 0 {
		return nil
	}
	return &ops.Error{Kind: ops.ErrConfiguration, Msg: errors.Join(errs...).Error()}
}

// slotsBefore is the number of sub-expression slots a builder had registered
// when it drew the gene at locus.
func (s Shape) slotsBefore(locus int) int {
	if locus >= s.SubRegion() {
		return s.SubCount
	}
	if !s.ReuseSubExpr {
		return 0
	}
	return locus / s.SubLength
}
