package kexpr

import (
	"math/rand"

	"gepkit/internal/ops"
)

// Mutate replaces the gene at locus with a value drawn from the identifier
// space the builder used there: for sub-expression genes two arguments and
// no slots (or locus/SubLength slots with ReuseSubExpr), for root genes
// every argument and every slot. Only Values[locus] changes.
func (k *KExpression) Mutate(locus int, r *rand.Rand) error {
	if locus < 0 || locus >= len(k.Values) {
		return ops.Errorf(ops.ErrLocusOutOfRange, "locus %d outside [0, %d)", locus, len(k.Values))
	}
	id, err := k.spaceAt(locus).RandomIdentifier(r)
	if err != nil {
		return err
	}
	k.Values[locus] = id
	return nil
}
