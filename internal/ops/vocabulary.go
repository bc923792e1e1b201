package ops

// Vocabulary is the ordered, immutable set of primitives a genotype indexes
// into. Identifier i < Len() names Primitive(i); the last ArgCount() entries
// are the synthetic arguments ARG[0..ArgCount()).
//
// A Vocabulary is never mutated after NewVocabulary returns, so a single
// instance may be shared by any number of genotypes and goroutines.
type Vocabulary struct {
	prims    []Primitive
	declared int
	argCount int
}

// NewVocabulary copies prims and appends one Argument per slot.
func NewVocabulary(prims []Primitive, argCount int) (*Vocabulary, error) {
	if argCount < 0 {
		return nil, Errorf(ErrConfiguration, "argument count must be >= 0, got %d", argCount)
	}
	for i, p := range prims {
		if p.kind == KindArgument {
			return nil, Errorf(ErrConfiguration, "primitive %d (%s) is an argument; arguments are derived from the argument count", i, p)
		}
		if p.kind == KindModifier && p.unary == nil || p.kind == KindOperator && p.binary == nil {
			return nil, Errorf(ErrConfiguration, "primitive %d (%s) has no function", i, p)
		}
	}
	all := make([]Primitive, 0, len(prims)+argCount)
	all = append(all, prims...)
	for i := 0; i < argCount; i++ {
		all = append(all, Argument(i))
	}
	return &Vocabulary{prims: all, declared: len(prims), argCount: argCount}, nil
}

// Len is the number of primitive identifiers, arguments included.
func (v *Vocabulary) Len() int { return len(v.prims) }

func (v *Vocabulary) ArgCount() int { return v.argCount }

// Primitive returns the primitive with identifier id.
func (v *Vocabulary) Primitive(id int) (Primitive, bool) {
	if id < 0 || id >= len(v.prims) {
		return Primitive{}, false
	}
	return v.prims[id], true
}

// Primitives returns a copy of every primitive, arguments included.
func (v *Vocabulary) Primitives() []Primitive {
	out := make([]Primitive, len(v.prims))
	copy(out, v.prims)
	return out
}

// Declared returns a copy of the caller-supplied primitives, without the
// synthetic arguments. NewVocabulary(v.Declared(), v.ArgCount()) rebuilds v.
func (v *Vocabulary) Declared() []Primitive {
	out := make([]Primitive, v.declared)
	copy(out, v.prims[:v.declared])
	return out
}

// Displays lists the display text of every identifier in order.
func (v *Vocabulary) Displays() []string {
	out := make([]string, len(v.prims))
	for i, p := range v.prims {
		out[i] = p.String()
	}
	return out
}

// IdentifierSpace returns a fresh space over this vocabulary's primitives
// with no expression slots.
func (v *Vocabulary) IdentifierSpace() IdentifierSpace {
	return NewIdentifierSpace(len(v.prims))
}

// IdentifierSpaceWithArgs is IdentifierSpace with only ARG[0..visible)
// legal. The remaining arguments are hidden.
func (v *Vocabulary) IdentifierSpaceWithArgs(visible int) IdentifierSpace {
	s := v.IdentifierSpace()
	if visible < 0 {
		visible = 0
	}
	if visible < v.argCount {
		s.Hide(v.declared+visible, v.argCount-visible)
	}
	return s
}

// Equal reports whether two vocabularies have the same primitives and
// argument count.
func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil || v.argCount != o.argCount || len(v.prims) != len(o.prims) {
		return false
	}
	for i := range v.prims {
		if !v.prims[i].Equal(o.prims[i]) {
			return false
		}
	}
	return true
}
