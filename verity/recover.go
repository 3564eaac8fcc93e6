package verity

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// compactMagic is the recovery-code offset used by compact signatures.
// Codes 27..30 denote an uncompressed key with recovery id 0..3.
const compactMagic = 27

// MaxRecoveryID is the largest valid recovery id.
const MaxRecoveryID = 3

// Recover returns the secp256k1 public key that produced sig over digest.
//
// recoveryID selects which of up to four candidate points is the signer.
// An out-of-range recovery id, an r or s outside [1, N-1], or a candidate
// that is not on the curve all fail with SignatureRecoveryFailed.
func Recover(digest Digest, sig [SignatureSize]byte, recoveryID uint8) (PublicKey, error) {
	var out PublicKey
	if recoveryID > MaxRecoveryID {
		return out, newError(KindCrypto, CodeSignatureRecoveryFailed, "VERITY-CRYPTO-101",
			fmt.Sprintf("recovery id %d out of range 0..%d", recoveryID, MaxRecoveryID))
	}

	compact := make([]byte, 0, 1+SignatureSize)
	compact = append(compact, compactMagic+recoveryID)
	compact = append(compact, sig[:]...)

	pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return out, wrapError(KindCrypto, CodeSignatureRecoveryFailed, "VERITY-CRYPTO-102",
			"public key recovery failed", err)
	}
	// SerializeUncompressed is 0x04||X||Y.
	copy(out[:], pub.SerializeUncompressed()[1:])
	return out, nil
}
