package snapshot

import (
	"bytes"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// verifyProof walks a sorted-pair merkle proof from the leaf to the root.
// Each level hashes the smaller node first, so provers need not supply
// position bits.
func verifyProof(root, leaf [32]byte, proof [][32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func hashPair(a, b [32]byte) [32]byte {
	var out [32]byte
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}
