// Package genotype adapts K-expressions to the contract an external
// evolutionary driver consumes: gene iteration, rebuild from genes, random
// generation, fitness, point mutation and a dedup hash.
package genotype

import (
	"iter"
	"math/rand"

	"gepkit/internal/expr"
	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
)

// SolutionThreshold is the fitness above which IsSolution reports true.
const SolutionThreshold = 0.99999

// Fitness scores a decoded program. It is supplied by the caller; this
// package does not define what a good program is.
type Fitness func(p *expr.Program) (float64, error)

// Chromosome is one population slot. It owns its KExpression exclusively;
// only the vocabulary is shared with other chromosomes.
type Chromosome struct {
	k       *kexpr.KExpression
	fitness Fitness
}

// New wraps an existing genotype.
func New(k *kexpr.KExpression, fitness Fitness) *Chromosome {
	return &Chromosome{k: k, fitness: fitness}
}

// Generate builds a random chromosome.
func Generate(b *kexpr.Builder, fitness Fitness, r *rand.Rand) (*Chromosome, error) {
	k, err := b.Build(r)
	if err != nil {
		return nil, err
	}
	return New(k, fitness), nil
}

// KExpression exposes the wrapped genotype.
func (c *Chromosome) KExpression() *kexpr.KExpression { return c.k }

func (c *Chromosome) Len() int { return len(c.k.Values) }

func (c *Chromosome) Genes() iter.Seq[uint32] { return c.k.Genes() }

// SetGenes rebuilds the genes from an external sequence of the same length,
// typically the output of crossover.
func (c *Chromosome) SetGenes(genes iter.Seq[uint32]) error {
	return c.k.SetGenes(genes)
}

// Fitness decodes the genotype with RGEP and scores it.
func (c *Chromosome) Fitness() (float64, error) {
	if c.fitness == nil {
		return 0, ops.Errorf(ops.ErrConfiguration, "no fitness function")
	}
	p, err := c.k.Program()
	if err != nil {
		return 0, err
	}
	return c.fitness(p)
}

func (c *Chromosome) Mutate(locus int, r *rand.Rand) error {
	return c.k.Mutate(locus, r)
}

func (c *Chromosome) Hash() kexpr.GeneHash { return c.k.Hash() }

func (c *Chromosome) IsSolution(fitness float64) bool {
	return fitness > SolutionThreshold
}

// Clone copies the genes; vocabulary and fitness func are shared.
func (c *Chromosome) Clone() *Chromosome {
	return &Chromosome{k: c.k.Clone(), fitness: c.fitness}
}

func (c *Chromosome) String() string { return c.k.String() }
