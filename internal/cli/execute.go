package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"strconv"
	"strings"

	"gepkit/internal/codec"
	"gepkit/internal/genotype"
	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
	"gepkit/internal/population"
	"gepkit/internal/trace"
)

type CLIResult struct {
	ExitCode int
	Results  []GenotypeResult
}

// GenotypeResult is what one k-expression produced: one output vector per
// case, plus its fitness when every case has an expected value.
type GenotypeResult struct {
	KExpr   string
	Hash    kexpr.GeneHash
	Outputs [][]float64
	Fitness float64
	Scored  bool
}

// Execute maps a canonical CLIInvocation to a run and writes a report to
// stdout.
//
// Responsibilities:
//   - Build count random k-expressions from the run config, or load one.
//   - Check the vocabulary against a display list when asked to.
//   - Score genotypes in parallel when every case has an expected value.
//   - Evaluate and report every case.
//   - Write traces and save files on request.
//   - Translate outcomes to semantic exit codes.
func Execute(ctx context.Context, inv CLIInvocation, stdout io.Writer) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	if stdout == nil {
		stdout = io.Discard
	}
	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			res.Results = nil
			execErr = fmt.Errorf("panic: %v", r)
		}
	}()

	var cfg *RunConfig
	if inv.ConfigPath != "" {
		c, err := LoadRunConfig(inv.ConfigPath)
		if err != nil {
			res.ExitCode = ExitConfigError
			return res, err
		}
		cfg = c
	}

	var fitness genotype.Fitness
	var cases []CaseConfig
	if cfg != nil {
		cases = cfg.Cases
		if fc, ok := cfg.FitnessCases(); ok {
			fitness = genotype.CaseFitness(fc, cfg.ErrorCap)
		}
	}

	chromosomes, err := prepare(inv, cfg, fitness)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	vocab := chromosomes[0].KExpression().Vocab

	if inv.ValidatePath != "" {
		if err := codec.ValidateWithFile(inv.ValidatePath, vocab); err != nil {
			res.ExitCode = ExitConfigError
			return res, err
		}
	}

	if inv.Unique {
		chromosomes = population.Unique(chromosomes)
	}
	var scores []population.Score
	best := 0
	if fitness != nil {
		workers := inv.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		scores, err = population.Evaluate(ctx, chromosomes, workers)
		if err != nil {
			return res, err
		}
		if b := population.Best(scores); b >= 0 {
			best = b
		}
	}

	tracing := inv.TracePath != ""
	var traces []trace.EvaluationTrace
	for i, c := range chromosomes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		gr := GenotypeResult{KExpr: c.String(), Hash: c.Hash()}
		fmt.Fprintf(stdout, "kexpr[%d] %s\n", i, gr.KExpr)

		p, err := c.KExpression().Program()
		if err != nil {
			res.ExitCode = ExitEvaluationFailure
			return res, fmt.Errorf("kexpr[%d]: %w", i, err)
		}
		fmt.Fprintf(stdout, "  program %s\n", p)

		for j, cs := range cases {
			var out []float64
			if tracing {
				rec := trace.NewRecorder()
				out, err = p.EvaluateTraced(cs.Args, rec)
				t := rec.Trace(gr.Hash.String())
				if inv.TracePath == StdoutPath {
					if werr := writeTrace(stdout, t); werr != nil {
						res.ExitCode = ExitConfigError
						return res, fmt.Errorf("kexpr[%d] case %d: %w", i, j, werr)
					}
				} else {
					traces = append(traces, t)
				}
			} else {
				out, err = p.Evaluate(cs.Args)
			}
			if err != nil {
				res.ExitCode = ExitEvaluationFailure
				return res, fmt.Errorf("kexpr[%d] case %d: %w", i, j, err)
			}
			gr.Outputs = append(gr.Outputs, out)
			fmt.Fprintf(stdout, "  case %d %s -> %s\n", j, formatFloats(cs.Args), formatFloats(out))
		}

		if scores != nil {
			sc := scores[i]
			if sc.Err != nil {
				res.ExitCode = ExitEvaluationFailure
				return res, fmt.Errorf("kexpr[%d] fitness: %w", i, sc.Err)
			}
			gr.Fitness, gr.Scored = sc.Fitness, true
			mark := ""
			if c.IsSolution(sc.Fitness) {
				mark = " (solution)"
			}
			fmt.Fprintf(stdout, "  fitness %s%s\n", strconv.FormatFloat(sc.Fitness, 'g', -1, 64), mark)
		}
		res.Results = append(res.Results, gr)
	}

	if tracing && inv.TracePath != StdoutPath {
		if err := codec.SaveTraces(inv.TracePath, traces); err != nil {
			res.ExitCode = ExitConfigError
			return res, err
		}
	}
	if err := save(inv, chromosomes[best]); err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	res.ExitCode = ExitSuccess
	return res, nil
}

// prepare loads the genotype named by -load or builds random ones from cfg.
func prepare(inv CLIInvocation, cfg *RunConfig, fitness genotype.Fitness) ([]*genotype.Chromosome, error) {
	if inv.LoadPath != "" {
		k, err := codec.RestoreKExpression(inv.LoadPath, nil)
		if err != nil {
			return nil, err
		}
		return []*genotype.Chromosome{genotype.New(k, fitness)}, nil
	}

	vocab, err := cfg.BuildVocabulary(nil)
	if err != nil {
		return nil, err
	}
	b, err := kexpr.NewBuilder(vocab, cfg.Shape)
	if err != nil {
		return nil, err
	}
	seed, count := cfg.Seed, cfg.Count
	if inv.SeedSet {
		seed = inv.Seed
	}
	if inv.Count > 0 {
		count = inv.Count
	}
	r := rand.New(rand.NewSource(seed))
	out := make([]*genotype.Chromosome, count)
	for i := range out {
		c, err := genotype.Generate(b, fitness, r)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func save(inv CLIInvocation, c *genotype.Chromosome) error {
	k := c.KExpression()
	if inv.SaveVocabPath != "" {
		if err := codec.SaveVocabulary(inv.SaveVocabPath, k.Vocab); err != nil {
			return err
		}
	}
	if inv.SaveDisplaysPath != "" {
		if err := codec.SaveDisplays(inv.SaveDisplaysPath, k.Vocab); err != nil {
			return err
		}
	}
	if inv.SaveKExprPath != "" {
		if err := codec.SaveKExpression(inv.SaveKExprPath, k); err != nil {
			return err
		}
	}
	return nil
}

// writeTrace prints the trace hash followed by one line per step.
func writeTrace(w io.Writer, t trace.EvaluationTrace) error {
	h, err := t.Hash()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  trace %s\n", h); err != nil {
		return ops.WrapIO("write trace", err)
	}
	if err := trace.Format(w, t.Steps); err != nil {
		return ops.WrapIO("write trace", err)
	}
	return nil
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
