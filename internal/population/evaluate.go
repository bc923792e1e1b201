// Package population scores many chromosomes at once.
//
// Chromosomes share only their immutable vocabulary, so fitness runs on a
// fixed pool of workers with no coordination beyond the work queue. Results
// are reported in input order regardless of completion order.
package population

import (
	"context"
	"fmt"
	"sync"

	"gepkit/internal/genotype"
	"gepkit/internal/kexpr"
)

// Score is the outcome for one chromosome.
type Score struct {
	Index   int
	Hash    kexpr.GeneHash
	Fitness float64
	Err     error
}

type workItem struct {
	index int
	c     *genotype.Chromosome
}

// Evaluate computes the fitness of every chromosome using concurrency
// workers. A failing chromosome records its error in its Score and does not
// stop the others. Cancelling ctx stops dispatch; the returned error is then
// ctx.Err() and undispatched entries carry it too.
func Evaluate(ctx context.Context, chromosomes []*genotype.Chromosome, concurrency int) ([]Score, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be > 0")
	}
	scores := make([]Score, len(chromosomes))
	if len(chromosomes) == 0 {
		return scores, nil
	}
	if concurrency > len(chromosomes) {
		concurrency = len(chromosomes)
	}

	workCh := make(chan workItem)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				f, err := w.c.Fitness()
				// Each index is written by exactly one worker.
				scores[w.index] = Score{Index: w.index, Hash: w.c.Hash(), Fitness: f, Err: err}
			}
		}()
	}

	var ctxErr error
	next := 0
dispatch:
	for ; next < len(chromosomes); next++ {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case workCh <- workItem{index: next, c: chromosomes[next]}:
		}
	}
	close(workCh)
	wg.Wait()

	for i := next; i < len(chromosomes); i++ {
		scores[i] = Score{Index: i, Hash: chromosomes[i].Hash(), Err: ctxErr}
	}
	return scores, ctxErr
}

// Best returns the index of the highest fitness among scores without an
// error, or -1 when every score failed. Ties go to the lower index.
func Best(scores []Score) int {
	best := -1
	for i, s := range scores {
		if s.Err != nil {
			continue
		}
		if best < 0 || s.Fitness > scores[best].Fitness {
			best = i
		}
	}
	return best
}

// Unique drops chromosomes whose genes duplicate an earlier one, keeping
// first occurrences in order.
func Unique(chromosomes []*genotype.Chromosome) []*genotype.Chromosome {
	seen := make(map[kexpr.GeneHash]struct{}, len(chromosomes))
	out := make([]*genotype.Chromosome, 0, len(chromosomes))
	for _, c := range chromosomes {
		h := c.Hash()
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, c)
	}
	return out
}
