package kexpr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// GeneHash is the stable identity of a gene sequence, used by population
// drivers to deduplicate genotypes.
type GeneHash string

func (h GeneHash) String() string { return string(h) }

// Hash computes the sha256 of the gene values, each written as a 4-byte
// big-endian word after an 8-byte big-endian count. The vocabulary and shape
// do not contribute: two genotypes with the same genes hash the same.
func (k *KExpression) Hash() GeneHash {
	return HashGenes(k.Values)
}

// HashGenes is Hash for a bare gene slice.
func HashGenes(values []uint32) GeneHash {
	hasher := sha256.New()
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], uint64(len(values)))
	hasher.Write(word[:])
	for _, v := range values {
		binary.BigEndian.PutUint32(word[:4], v)
		hasher.Write(word[:4])
	}
	return GeneHash(hex.EncodeToString(hasher.Sum(nil)))
}
