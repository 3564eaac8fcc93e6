package verity

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

const DigestSize = 32

type Digest [DigestSize]byte

// Hash returns the legacy Keccak-256 digest of b (the Ethereum/Solana
// keccak, not NIST SHA3-256).
func Hash(b []byte) Digest {
	var d Digest
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(b)
	h.Sum(d[:0])
	return d
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
