// Package trace records what the stack machine did during one evaluation.
//
// A Recorder collects Steps as they happen; the resulting EvaluationTrace
// has a fixed JSON encoding whose sha256 identifies the run.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EvaluationTrace is the ordered record of one program evaluation: one Step
// per executed stack operation, in execution order.
//
// Evaluation is single-threaded and deterministic, so recording order is the
// canonical order and no sorting is applied. GeneHash ties the trace to the
// genotype it came from and may be empty for hand-built programs.
type EvaluationTrace struct {
	GeneHash string
	Steps    []Step
}

// Step is the stack state right after one operation ran.
//
// Expr names the expression being executed ("ROOT[0]", "EXP[2]"); Depth is
// the sub-expression call depth, 0 for roots. Skipped is set when the
// operation found too few operands and left the stack unchanged.
type Step struct {
	Expr    string
	Depth   int
	Index   int
	Op      string
	Stack   []float64
	Skipped bool
}

// Validate checks basic invariants and returns a descriptive error.
func (t *EvaluationTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i, s := range t.Steps {
		if s.Expr == "" {
			return fmt.Errorf("steps[%d].expr is required", i)
		}
		if s.Op == "" {
			return fmt.Errorf("steps[%d].op is required", i)
		}
		if s.Index < 0 || s.Depth < 0 {
			return fmt.Errorf("steps[%d] has a negative index or depth", i)
		}
	}
	return nil
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
func (t EvaluationTrace) CanonicalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// Hash returns the sha256 hex of the canonical JSON bytes.
func (t EvaluationTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (t EvaluationTrace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if t.GeneHash != "" {
		buf.WriteString("\"geneHash\":")
		gh, _ := json.Marshal(t.GeneHash)
		buf.Write(gh)
		buf.WriteByte(',')
	}
	buf.WriteString("\"steps\":[")
	for i := range t.Steps {
		if i > 0 {
			buf.WriteByte(',')
		}
		sb, err := json.Marshal(t.Steps[i])
		if err != nil {
			return nil, err
		}
		buf.Write(sb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON writes stack values as strings: arguments may be infinite, which
// encoding/json refuses, and the text form is identical on every platform.
func (s Step) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\"expr\":")
	eb, _ := json.Marshal(s.Expr)
	buf.Write(eb)
	if s.Depth > 0 {
		buf.WriteString(",\"depth\":")
		buf.WriteString(strconv.Itoa(s.Depth))
	}
	buf.WriteString(",\"index\":")
	buf.WriteString(strconv.Itoa(s.Index))
	buf.WriteString(",\"op\":")
	ob, _ := json.Marshal(s.Op)
	buf.Write(ob)
	buf.WriteString(",\"stack\":[")
	for i, v := range s.Stack {
		if i > 0 {
			buf.WriteByte(',')
		}
		vb, _ := json.Marshal(formatValue(v))
		buf.Write(vb)
	}
	buf.WriteByte(']')
	if s.Skipped {
		buf.WriteString(",\"skipped\":true")
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// String renders the step as a single human-readable line.
func (s Step) String() string {
	vals := make([]string, len(s.Stack))
	for i, v := range s.Stack {
		vals[i] = formatValue(v)
	}
	line := fmt.Sprintf("%s%s #%d %-8s [%s]", strings.Repeat("  ", s.Depth), s.Expr, s.Index, s.Op, strings.Join(vals, " "))
	if s.Skipped {
		line += " (skipped)"
	}
	return line
}

// Format writes one line per step.
func Format(w io.Writer, steps []Step) error {
	for _, s := range steps {
		if _, err := fmt.Fprintln(w, s.String()); err != nil {
			return err
		}
	}
	return nil
}
