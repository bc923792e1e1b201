package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
	"gepkit/internal/trace"
)

func testVocab(t *testing.T) *ops.Vocabulary {
	t.Helper()
	v, err := ops.NewVocabulary([]ops.Primitive{ops.C100, ops.C1, ops.CNeg1, ops.Constant(0.25), ops.Sqrt, ops.Plus, ops.Multiply, ops.Pow}, 2)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	return v
}

func testKExpr(t *testing.T, v *ops.Vocabulary, seed int64) *kexpr.KExpression {
	t.Helper()
	b, err := kexpr.NewBuilder(v, kexpr.Shape{SubLength: 6, SubCount: 2, RootLength: 8, RootCount: 2, ReuseSubExpr: true})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	k, err := b.Build(rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return k
}

func TestVocabulary_RoundTrip(t *testing.T) {
	v := testVocab(t)
	data, err := MarshalVocabulary(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalVocabulary(data, nil)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(v) {
		t.Fatalf("round trip changed vocabulary:\n%v\n%v", v.Displays(), got.Displays())
	}
	if sq, _ := got.Primitive(4); sq.Apply1(16) != 4 {
		t.Fatalf("restored modifier lost its function")
	}
}

func TestVocabulary_MarshalIsStable(t *testing.T) {
	a, err := MarshalVocabulary(testVocab(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := MarshalVocabulary(testVocab(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected identical bytes")
	}
	if strings.Contains(string(a), "argument") {
		t.Fatalf("arguments must not be persisted: %s", a)
	}
}

func TestKExpression_RoundTripEvaluatesIdentically(t *testing.T) {
	v := testVocab(t)
	for seed := int64(1); seed <= 20; seed++ {
		k := testKExpr(t, v, seed)
		data, err := MarshalKExpression(k)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got, err := UnmarshalKExpression(data, nil)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !slices.Equal(got.Values, k.Values) || got.Shape != k.Shape || !got.Vocab.Equal(k.Vocab) {
			t.Fatalf("round trip changed the genotype")
		}

		want := evaluate(t, k, []float64{1.5, 2})
		have := evaluate(t, got, []float64{1.5, 2})
		if !slices.Equal(want, have) {
			t.Fatalf("seed %d: expected %v, got %v", seed, want, have)
		}
	}
}

func evaluate(t *testing.T, k *kexpr.KExpression, args []float64) []float64 {
	t.Helper()
	p, err := k.Program()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := p.Evaluate(args)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return out
}

func TestUnmarshalVocabulary_UnknownTag(t *testing.T) {
	custom := ops.Modifier("cube", func(x float64) float64 { return x * x * x })
	v, err := ops.NewVocabulary([]ops.Primitive{custom}, 1)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	data, err := MarshalVocabulary(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := UnmarshalVocabulary(data, nil); !errors.Is(err, ops.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown tag, got %v", err)
	}

	catalog, err := ops.DefaultCatalog().With(custom)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	got, err := UnmarshalVocabulary(data, catalog)
	if err != nil {
		t.Fatalf("unmarshal with catalog: %v", err)
	}
	if p, _ := got.Primitive(0); p.Apply1(2) != 8 {
		t.Fatalf("expected cube to be restored")
	}
}

func TestUnmarshal_Strict(t *testing.T) {
	cases := []string{
		`{"args_count":1,"primitives":[],"extra":1}`,
		`{"args_count":1,"primitives":[]} {}`,
		`{"args_count":1,"primitives":[{"kind":"argument"}]}`,
		`{"args_count":1,"primitives":[{"kind":"constant","value":"x"}]}`,
		`{"args_count":1,"primitives":[{"kind":"operator","tag":"sqr"}]}`,
		`not json`,
	}
	for _, c := range cases {
		if _, err := UnmarshalVocabulary([]byte(c), nil); !errors.Is(err, ops.ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", c, err)
		}
	}
}

func TestUnmarshalKExpression_RejectsUndecodableGenes(t *testing.T) {
	v := testVocab(t)
	k := testKExpr(t, v, 1)
	k.Values[0] = uint32(v.Len() + 5)
	data, err := MarshalKExpression(k)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := UnmarshalKExpression(data, nil); !errors.Is(err, ops.ErrIdentifierOutOfRange) {
		t.Fatalf("expected ErrIdentifierOutOfRange, got %v", err)
	}

	k = testKExpr(t, v, 1)
	k.Values = k.Values[:3]
	data, _ = MarshalKExpression(k)
	if _, err := UnmarshalKExpression(data, nil); !errors.Is(err, ops.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for short genes, got %v", err)
	}
}

func TestSaveRestore_Files(t *testing.T) {
	dir := t.TempDir()
	v := testVocab(t)
	k := testKExpr(t, v, 4)

	vocabPath := filepath.Join(dir, "nested", "ops.json")
	if err := SaveVocabulary(vocabPath, v); err != nil {
		t.Fatalf("save vocabulary: %v", err)
	}
	gotVocab, err := RestoreVocabulary(vocabPath, nil)
	if err != nil {
		t.Fatalf("restore vocabulary: %v", err)
	}
	if !gotVocab.Equal(v) {
		t.Fatalf("restored vocabulary differs")
	}

	kPath := filepath.Join(dir, "k_expr.json")
	if err := SaveKExpression(kPath, k); err != nil {
		t.Fatalf("save k-expression: %v", err)
	}
	gotK, err := RestoreKExpression(kPath, nil)
	if err != nil {
		t.Fatalf("restore k-expression: %v", err)
	}
	if gotK.Hash() != k.Hash() {
		t.Fatalf("restored genes differ")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestRestore_MissingFileIsIOFault(t *testing.T) {
	_, err := RestoreVocabulary(filepath.Join(t.TempDir(), "absent.json"), nil)
	if !errors.Is(err, ops.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected the os error to stay reachable, got %v", err)
	}
}

func TestValidateWithFile(t *testing.T) {
	dir := t.TempDir()
	v := testVocab(t)
	path := filepath.Join(dir, "displays.json")
	if err := SaveDisplays(path, v); err != nil {
		t.Fatalf("save displays: %v", err)
	}
	if err := ValidateWithFile(path, v); err != nil {
		t.Fatalf("expected same vocabulary to validate, got %v", err)
	}

	// Swapping two primitives keeps the size but breaks every saved gene.
	swapped, err := ops.NewVocabulary([]ops.Primitive{ops.C1, ops.C100, ops.CNeg1, ops.Constant(0.25), ops.Sqrt, ops.Plus, ops.Multiply, ops.Pow}, 2)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	err = ValidateWithFile(path, swapped)
	if !errors.Is(err, ops.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "index 0") || !strings.Contains(msg, `"100"`) || !strings.Contains(msg, `"1"`) {
		t.Fatalf("expected message to name index and texts, got %q", msg)
	}

	fewerArgs, err := ops.NewVocabulary(v.Declared(), 1)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	err = ValidateWithFile(path, fewerArgs)
	if !errors.Is(err, ops.ErrSchemaMismatch) || !strings.Contains(err.Error(), "<missing>") {
		t.Fatalf("expected missing entry mismatch, got %v", err)
	}

	// Extra trailing entries shift nothing, but the saved list no longer
	// describes the vocabulary.
	moreArgs, err := ops.NewVocabulary(v.Declared(), 3)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	err = ValidateWithFile(path, moreArgs)
	if !errors.Is(err, ops.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for extra entries, got %v", err)
	}
	want := fmt.Sprintf("index %d, found %q", len(v.Displays()), "ARG[2]")
	if msg := err.Error(); !strings.Contains(msg, want) || !strings.Contains(msg, "<missing>") {
		t.Fatalf("expected %q in %q", want, msg)
	}
}

func TestSaveTraces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	traces := []trace.EvaluationTrace{{
		GeneHash: "abc",
		Steps: []trace.Step{
			{Expr: "ROOT[0]", Index: 0, Op: "ARG[0]", Stack: []float64{2}},
			{Expr: "ROOT[0]", Index: 1, Op: "sqr", Stack: []float64{4}},
		},
	}}
	if err := SaveTraces(path, traces); err != nil {
		t.Fatalf("save traces: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{`"geneHash": "abc"`, `"op": "sqr"`, `"4"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %s in %s", want, data)
		}
	}
	var records []struct {
		TraceHash string          `json:"traceHash"`
		Trace     json.RawMessage `json:"trace"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantHash, err := traces[0].Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if len(records) != 1 || records[0].TraceHash != wantHash {
		t.Fatalf("expected trace hash %s, got %+v", wantHash, records)
	}

	bad := []trace.EvaluationTrace{{Steps: []trace.Step{{Op: "sqr"}}}}
	if err := SaveTraces(path, bad); err == nil {
		t.Fatalf("expected invalid trace to be rejected")
	}
}
