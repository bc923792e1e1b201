package trace

import "sync"

// Sink receives evaluation steps.
//
// Record must be inert: it must not panic and has no way to fail the
// evaluation. Callers must assume Record may be a no-op.
type Sink interface {
	Record(step Step)
}

// NopSink discards all steps.
type NopSink struct{}

func (NopSink) Record(Step) {}

// SafeRecord records a step and guarantees inertness even if the sink is buggy.
// It intentionally swallows panics.
func SafeRecord(s Sink, step Step) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(step)
}

// Recorder is a concurrency-safe in-memory collector. The stack slice of each
// step is copied on Record, so producers may reuse their buffers.
type Recorder struct {
	mu    sync.Mutex
	steps []Step
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(step Step) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	stack := make([]float64, len(step.Stack))
	copy(stack, step.Stack)
	step.Stack = stack

	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()
}

// Snapshot returns a point-in-time copy of all recorded steps.
func (r *Recorder) Snapshot() []Step {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Reset drops every recorded step.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.steps = nil
	r.mu.Unlock()
}

// Trace builds an EvaluationTrace from the currently recorded steps.
func (r *Recorder) Trace(geneHash string) EvaluationTrace {
	return EvaluationTrace{GeneHash: geneHash, Steps: r.Snapshot()}
}
