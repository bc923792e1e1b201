package ops

import "math/rand"

// IdentifierSpace is the range of gene values legal at some point of a build:
// [0, base+exprs). base counts primitives; exprs counts sub-expression slots
// appended so far and only ever grows.
//
// It is a value type. Builders keep one space per phase so that which slots a
// segment may reference is decided by which space was consulted.
//
// A space may also hide one run of primitive identifiers, which are then
// neither drawn nor contained.
type IdentifierSpace struct {
	base  int
	exprs int

	hideStart int
	hideLen   int
}

func NewIdentifierSpace(base int) IdentifierSpace {
	if base < 0 {
		base = 0
	}
	return IdentifierSpace{base: base}
}

func (s IdentifierSpace) Base() int { return s.base }

func (s IdentifierSpace) ExprCount() int { return s.exprs }

// Len is the number of legal identifiers.
func (s IdentifierSpace) Len() int { return s.base - s.hideLen + s.exprs }

// End is one past the largest legal identifier.
func (s IdentifierSpace) End() int { return s.base + s.exprs }

// Hide makes the n primitive identifiers starting at start illegal. The run
// is clipped to [0, Base()); a later call replaces an earlier one.
func (s *IdentifierSpace) Hide(start, n int) {
	if start < 0 {
		n += start
		start = 0
	}
	if start+n > s.base {
		n = s.base - start
	}
	if n <= 0 {
		s.hideStart, s.hideLen = 0, 0
		return
	}
	s.hideStart, s.hideLen = start, n
}

// Hidden reports the hidden run as start and length.
func (s IdentifierSpace) Hidden() (int, int) { return s.hideStart, s.hideLen }

// AddExpressionSlots makes n more sub-expression identifiers legal.
// Negative n is ignored.
func (s *IdentifierSpace) AddExpressionSlots(n int) {
	if n > 0 {
		s.exprs += n
	}
}

// Contains reports whether id is legal in the space.
func (s IdentifierSpace) Contains(id uint32) bool {
	if int64(id) >= int64(s.End()) {
		return false
	}
	return s.hideLen == 0 || int(id) < s.hideStart || int(id) >= s.hideStart+s.hideLen
}

// RandomIdentifier draws uniformly from the legal identifiers.
func (s IdentifierSpace) RandomIdentifier(r *rand.Rand) (uint32, error) {
	n := s.Len()
	if n <= 0 {
		return 0, Errorf(ErrEmptySpace, "no identifiers to pick from (%d primitives, %d hidden, %d expressions)", s.base, s.hideLen, s.exprs)
	}
	id := r.Intn(n)
	if s.hideLen > 0 && id >= s.hideStart {
		id += s.hideLen
	}
	return uint32(id), nil
}

// RandomIdentifiers draws k identifiers with replacement. Every draw sees the
// same expression count.
func (s IdentifierSpace) RandomIdentifiers(r *rand.Rand, k int) ([]uint32, error) {
	if k <= 0 {
		return []uint32{}, nil
	}
	out := make([]uint32, k)
	for i := range out {
		id, err := s.RandomIdentifier(r)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
