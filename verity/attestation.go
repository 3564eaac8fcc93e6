package verity

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	IdentitySize  = 32
	PublicKeySize = 64
	SignatureSize = 64
)

// Identity is a fixed-size account handle (a Solana-style public key).
// Its text form is base58.
type Identity [IdentitySize]byte

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return id, wrapError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-101", "invalid identity base58", err)
	}
	if len(b) != IdentitySize {
		return id, newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-102",
			fmt.Sprintf("identity must be %d bytes, got %d", IdentitySize, len(b)))
	}
	copy(id[:], b)
	return id, nil
}

func (id Identity) String() string { return base58.Encode(id[:]) }

func (id Identity) IsZero() bool { return id == Identity{} }

func (id Identity) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *Identity) UnmarshalText(b []byte) error {
	v, err := ParseIdentity(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// PublicKey is an uncompressed secp256k1 point, X||Y, without the 0x04 prefix.
type PublicKey [PublicKeySize]byte

func (k PublicKey) String() string { return hex.EncodeToString(k[:]) }

func (k PublicKey) IsZero() bool { return k == PublicKey{} }

// Signature is a recoverable secp256k1 ECDSA signature: R||S plus the
// recovery id selecting one of up to four candidate keys.
type Signature struct {
	RS         [SignatureSize]byte
	RecoveryID uint8
}

// ParseSignature decodes the issuer's 65-byte R||S||V hex form.
//
// V values 27..30 are normalized to recovery ids 0..3. Any other V is kept
// unchanged so that recovery rejects it.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return sig, wrapError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-111", "invalid signature hex", err)
	}
	if len(b) != SignatureSize+1 {
		return sig, newError(KindEncoding, CodeMalformedEncoding, "VERITY-ENC-112",
			fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize+1, len(b)))
	}
	copy(sig.RS[:], b[:SignatureSize])
	v := b[SignatureSize]
	if v >= 27 && v <= 30 {
		v -= 27
	}
	sig.RecoveryID = v
	return sig, nil
}

// String returns the 65-byte R||S||V hex form with V = 27 + recovery id.
func (s Signature) String() string {
	b := make([]byte, 0, SignatureSize+1)
	b = append(b, s.RS[:]...)
	b = append(b, 27+s.RecoveryID)
	return "0x" + hex.EncodeToString(b)
}

// Attestation asserts that Subject satisfies the credential named by Schema
// until Expiration (unix seconds). Name, Version and Cluster form the domain
// separator.
type Attestation struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Cluster    string   `json:"cluster"`
	Subject    Identity `json:"subject"`
	Expiration int64    `json:"expiration"`
	Schema     string   `json:"schema"`
}

// Digest returns the Keccak-256 digest of the canonical encoding. This is
// the value the issuer signed.
func (a Attestation) Digest() Digest {
	return Hash(Encode(a))
}

// CallerContext is supplied by the infrastructure invoking verification.
//
// Authenticated must be true only if Identity cryptographically authenticated
// the current call (e.g. signed the enclosing transaction). Now is the current
// unix time in seconds; verification never reads a clock itself.
type CallerContext struct {
	Identity      Identity
	Authenticated bool
	Now           int64
}
