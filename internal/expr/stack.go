package expr

import (
	"fmt"
	"math"

	"gepkit/internal/ops"
	"gepkit/internal/trace"
)

// SubExpressionArgs is the argument count a sub-expression runs with: the
// two operands popped by the calling op, as ARG[0] and ARG[1].
const SubExpressionArgs = 2

// Sanitize applies the numeric-fault policy to a computed value: NaN becomes
// 0 and an infinity of either sign becomes math.MaxFloat64.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 0) {
		return math.MaxFloat64
	}
	return x
}

// Evaluate runs e against args. References resolve against arena and may
// reach any slot in it. The result is the top of the stack, or 0 when the
// stack ends empty.
func Evaluate(e Expression, arena []Expression, args []float64) (float64, error) {
	m := machine{arena: arena}
	return m.run(e, len(arena), args, "EXPR", 0)
}

// EvaluateTraced is Evaluate that reports every executed op to sink.
func EvaluateTraced(e Expression, arena []Expression, args []float64, sink trace.Sink) (float64, error) {
	m := machine{arena: arena, sink: sink}
	return m.run(e, len(arena), args, "EXPR", 0)
}

// Evaluate runs every root against args and returns one value per root.
func (p *Program) Evaluate(args []float64) ([]float64, error) {
	return p.evaluate(args, nil)
}

// EvaluateTraced is Evaluate that reports every executed op to sink.
func (p *Program) EvaluateTraced(args []float64, sink trace.Sink) ([]float64, error) {
	return p.evaluate(args, sink)
}

func (p *Program) evaluate(args []float64, sink trace.Sink) ([]float64, error) {
	if len(args) != p.ArgsCount {
		return nil, ops.Errorf(ops.ErrArgumentCountMismatch, "expected %d arguments, got %d", p.ArgsCount, len(args))
	}
	m := machine{arena: p.Subs, sink: sink}
	out := make([]float64, len(p.Roots))
	for i, root := range p.Roots {
		v, err := m.run(root, len(p.Subs), args, fmt.Sprintf("ROOT[%d]", i), 0)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type machine struct {
	arena []Expression
	sink  trace.Sink
}

// run executes e with its own stack. limit is the number of arena slots e
// may reference.
func (m *machine) run(e Expression, limit int, args []float64, name string, depth int) (float64, error) {
	stack := make([]float64, 0, len(e.Ops))
	for i, op := range e.Ops {
		skipped := false
		switch {
		case op.sub:
			if op.slot < 0 || op.slot >= limit || op.slot >= len(m.arena) {
				return 0, ops.Errorf(ops.ErrIdentifierOutOfRange, "%s op %d references EXP[%d], only %d slots visible", name, i, op.slot, limit)
			}
			if len(stack) < 2 {
				skipped = true
				break
			}
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			v, err := m.run(m.arena[op.slot], op.slot, []float64{a, b}, fmt.Sprintf("EXP[%d]", op.slot), depth+1)
			if err != nil {
				return 0, err
			}
			stack = append(stack, Sanitize(v))

		default:
			p := op.prim
			switch p.Kind() {
			case ops.KindConstant:
				stack = append(stack, p.Value())
			case ops.KindArgument:
				idx := p.Index()
				if idx < 0 || idx >= len(args) {
					return 0, ops.Errorf(ops.ErrArgumentIndexOutOfRange, "%s op %d reads ARG[%d] of %d arguments", name, i, idx, len(args))
				}
				stack = append(stack, args[idx])
			case ops.KindModifier:
				if len(stack) < 1 {
					skipped = true
					break
				}
				x := stack[len(stack)-1]
				stack[len(stack)-1] = Sanitize(p.Apply1(x))
			case ops.KindOperator:
				if len(stack) < 2 {
					skipped = true
					break
				}
				a, b := stack[len(stack)-2], stack[len(stack)-1]
				stack = stack[:len(stack)-2]
				stack = append(stack, Sanitize(p.Apply2(a, b)))
			default:
				return 0, ops.Errorf(ops.ErrConfiguration, "%s op %d has unknown kind %s", name, i, p.Kind())
			}
		}
		if m.sink != nil {
			trace.SafeRecord(m.sink, trace.Step{Expr: name, Depth: depth, Index: i, Op: op.String(), Stack: stack, Skipped: skipped})
		}
	}
	if len(stack) == 0 {
		return 0, nil
	}
	return stack[len(stack)-1], nil
}
