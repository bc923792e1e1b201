package trace

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestCanonicalJSON_FieldOrderAndOmission(t *testing.T) {
	tr := EvaluationTrace{
		GeneHash: "abc",
		Steps: []Step{
			{Expr: "ROOT[0]", Index: 0, Op: "ARG[0]", Stack: []float64{2}},
			{Expr: "EXP[0]", Depth: 1, Index: 1, Op: "sqr", Stack: nil, Skipped: true},
		},
	}
	b, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	expected := `{"geneHash":"abc","steps":[{"expr":"ROOT[0]","index":0,"op":"ARG[0]","stack":["2"]},{"expr":"EXP[0]","depth":1,"index":1,"op":"sqr","stack":[],"skipped":true}]}`
	if string(b) != expected {
		t.Fatalf("unexpected canonical bytes\nexpected=%s\nactual  =%s", expected, string(b))
	}
}

func TestCanonicalJSON_InfiniteValues(t *testing.T) {
	tr := EvaluationTrace{Steps: []Step{{Expr: "ROOT[0]", Op: "ARG[0]", Stack: []float64{math.Inf(1)}}}}
	b, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	if !strings.Contains(string(b), `"+Inf"`) {
		t.Fatalf("expected +Inf to be encoded as text, got %s", b)
	}
}

func TestHash_Deterministic(t *testing.T) {
	mk := func() EvaluationTrace {
		return EvaluationTrace{Steps: []Step{
			{Expr: "ROOT[0]", Index: 0, Op: "1", Stack: []float64{1}},
			{Expr: "ROOT[0]", Index: 1, Op: "sqr", Stack: []float64{1}},
		}}
	}
	h1, err := mk().Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := mk().Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == "" || h1 != h2 {
		t.Fatalf("expected identical non-empty hashes, got %q and %q", h1, h2)
	}

	changed := mk()
	changed.Steps[1].Stack = []float64{2}
	h3, err := changed.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h3 == h1 {
		t.Fatalf("expected stack change to change the hash")
	}
}

func TestValidate_RequiresExprAndOp(t *testing.T) {
	tr := EvaluationTrace{Steps: []Step{{Expr: "ROOT[0]"}}}
	if err := tr.Validate(); err == nil {
		t.Fatalf("expected missing op to fail validation")
	}
	var nilTrace *EvaluationTrace
	if err := nilTrace.Validate(); err == nil {
		t.Fatalf("expected nil trace to fail validation")
	}
}

func TestRecorder_CopiesStack(t *testing.T) {
	r := NewRecorder()
	buf := []float64{1, 2}
	SafeRecord(r, Step{Expr: "ROOT[0]", Op: "+", Stack: buf})
	buf[0] = 99

	steps := r.Snapshot()
	if len(steps) != 1 || steps[0].Stack[0] != 1 {
		t.Fatalf("expected recorder to copy the stack, got %+v", steps)
	}
	r.Reset()
	if len(r.Snapshot()) != 0 {
		t.Fatalf("expected reset to drop steps")
	}
}

type panickingSink struct{}

func (panickingSink) Record(Step) { panic("boom") }

func TestSafeRecord_SwallowsPanics(t *testing.T) {
	SafeRecord(panickingSink{}, Step{Expr: "ROOT[0]", Op: "1"})
	SafeRecord(nil, Step{})
}

func TestFormat_OneLinePerStep(t *testing.T) {
	var buf bytes.Buffer
	err := Format(&buf, []Step{
		{Expr: "ROOT[0]", Index: 0, Op: "ARG[0]", Stack: []float64{2}},
		{Expr: "EXP[0]", Depth: 1, Index: 0, Op: "-", Stack: []float64{2}, Skipped: true},
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "  EXP[0]") || !strings.HasSuffix(lines[1], "(skipped)") {
		t.Fatalf("unexpected nested line %q", lines[1])
	}
}
