package genotype

import (
	"math"

	"gepkit/internal/expr"
	"gepkit/internal/ops"
)

// DefaultErrorCap bounds the accumulated error of CaseFitness.
const DefaultErrorCap = 1e12

// Case is one sample of the target function.
type Case struct {
	Args []float64
	Want float64
}

// CaseFitness scores the first root output against cases as
// 1/(sum|want-got| + 1). The summed error saturates at errorCap (NaN and
// infinities included), so fitness stays in (0, 1]. A non-positive errorCap
// means DefaultErrorCap.
func CaseFitness(cases []Case, errorCap float64) Fitness {
	if errorCap <= 0 {
		errorCap = DefaultErrorCap
	}
	return func(p *expr.Program) (float64, error) {
		if len(p.Roots) == 0 {
			return 0, ops.Errorf(ops.ErrConfiguration, "program has no roots")
		}
		total := 0.0
		for _, c := range cases {
			out, err := p.Evaluate(c.Args)
			if err != nil {
				return 0, err
			}
			total += math.Abs(c.Want - out[0])
			if math.IsNaN(total) || math.IsInf(total, 0) || total > errorCap {
				total = errorCap
				break
			}
		}
		return 1 / (total + 1), nil
	}
}
