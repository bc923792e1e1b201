package genotype

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"

	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
)

func testVocab(t *testing.T) *ops.Vocabulary {
	t.Helper()
	v, err := ops.NewVocabulary([]ops.Primitive{ops.C1, ops.C100, ops.CNeg1, ops.Square, ops.Plus, ops.Multiply, ops.Divide, ops.Pow}, 2)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	return v
}

// sumOfArgs decodes to ARG[0] + ARG[1].
func sumOfArgs(t *testing.T) *kexpr.KExpression {
	t.Helper()
	return &kexpr.KExpression{
		Values: []uint32{8, 9, 4},
		Shape:  kexpr.Shape{RootLength: 3, RootCount: 1},
		Vocab:  testVocab(t),
	}
}

var sumCases = []Case{
	{Args: []float64{1, 2}, Want: 3},
	{Args: []float64{-4, 0.5}, Want: -3.5},
	{Args: []float64{10, 10}, Want: 20},
}

func TestFitness_ExactSolution(t *testing.T) {
	c := New(sumOfArgs(t), CaseFitness(sumCases, 0))
	f, err := c.Fitness()
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if f != 1 {
		t.Fatalf("expected fitness 1, got %v", f)
	}
	if !c.IsSolution(f) {
		t.Fatalf("expected exact program to be a solution")
	}
}

func TestFitness_PenalizesError(t *testing.T) {
	cases := []Case{{Args: []float64{1, 2}, Want: 4}}
	c := New(sumOfArgs(t), CaseFitness(cases, 0))
	f, err := c.Fitness()
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if f != 0.5 {
		t.Fatalf("expected fitness 0.5, got %v", f)
	}
	if c.IsSolution(f) {
		t.Fatalf("0.5 must not count as a solution")
	}
}

func TestFitness_SaturatesAtCap(t *testing.T) {
	cases := []Case{
		{Args: []float64{0, 0}, Want: math.Inf(1)},
		{Args: []float64{0, 0}, Want: 1},
	}
	c := New(sumOfArgs(t), CaseFitness(cases, 99))
	f, err := c.Fitness()
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if f != 0.01 {
		t.Fatalf("expected fitness 1/(99+1), got %v", f)
	}
}

func TestFitness_ArgumentCountMismatch(t *testing.T) {
	cases := []Case{{Args: []float64{1}, Want: 1}}
	c := New(sumOfArgs(t), CaseFitness(cases, 0))
	if _, err := c.Fitness(); !errors.Is(err, ops.ErrArgumentCountMismatch) {
		t.Fatalf("expected ErrArgumentCountMismatch, got %v", err)
	}
}

func TestFitness_NoFunction(t *testing.T) {
	c := New(sumOfArgs(t), nil)
	if _, err := c.Fitness(); !errors.Is(err, ops.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestGenerate_ProducesScorableChromosomes(t *testing.T) {
	b, err := kexpr.SingleRootADFs(testVocab(t), 8, 5, 3)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	r := rand.New(rand.NewSource(7))
	fit := CaseFitness(sumCases, 0)
	for i := 0; i < 200; i++ {
		c, err := Generate(b, fit, r)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		f, err := c.Fitness()
		if err != nil {
			t.Fatalf("fitness of %s: %v", c, err)
		}
		if f <= 0 || f > 1 {
			t.Fatalf("fitness out of range: %v", f)
		}
		for locus := 0; locus < c.Len(); locus++ {
			if err := c.Mutate(locus, r); err != nil {
				t.Fatalf("mutate %d: %v", locus, err)
			}
		}
		if _, err := c.Fitness(); err != nil {
			t.Fatalf("fitness after mutation of %s: %v", c, err)
		}
	}
}

func TestGenerate_ThreeArgumentsWithADFsAlwaysScore(t *testing.T) {
	v, err := ops.NewVocabulary([]ops.Primitive{ops.C1, ops.Plus}, 3)
	if err != nil {
		t.Fatalf("new vocabulary: %v", err)
	}
	b, err := kexpr.SingleRootADFs(v, 6, 6, 2)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	cases := []Case{{Args: []float64{1, 2, 3}, Want: 6}, {Args: []float64{0, 0, 1}, Want: 1}}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		c, err := Generate(b, CaseFitness(cases, 0), r)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := c.Fitness(); err != nil {
			t.Fatalf("build %d (%s): %v", i, c, err)
		}
	}
}

func TestSetGenes_CrossoverRoundTrip(t *testing.T) {
	b, err := kexpr.SingleRootPrimitives(testVocab(t), 12)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	r := rand.New(rand.NewSource(3))
	a, err := Generate(b, nil, r)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other, err := Generate(b, nil, r)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// One-point crossover at the middle.
	ga := slices.Collect(a.Genes())
	gb := slices.Collect(other.Genes())
	child := append(slices.Clone(ga[:6]), gb[6:]...)

	c := a.Clone()
	if err := c.SetGenes(slices.Values(child)); err != nil {
		t.Fatalf("set genes: %v", err)
	}
	if !slices.Equal(slices.Collect(c.Genes()), child) {
		t.Fatalf("genes not replaced")
	}
	if !slices.Equal(slices.Collect(a.Genes()), ga) {
		t.Fatalf("clone shares genes with the original")
	}
	if c.Hash() == a.Hash() && !slices.Equal(child, ga) {
		t.Fatalf("expected hash to follow the genes")
	}

	if err := c.SetGenes(slices.Values(child[:5])); !errors.Is(err, ops.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for short genes, got %v", err)
	}
}

func TestHash_EqualGenesEqualHash(t *testing.T) {
	a := New(sumOfArgs(t), nil)
	b := New(sumOfArgs(t), nil)
	if a.Hash() != b.Hash() {
		t.Fatalf("expected equal hashes for equal genes")
	}
	if err := b.SetGenes(slices.Values([]uint32{9, 8, 4})); err != nil {
		t.Fatalf("set genes: %v", err)
	}
	if a.Hash() == b.Hash() {
		t.Fatalf("expected different hashes for different genes")
	}
}
