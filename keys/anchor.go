package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"xdao.co/verity/verity"
)

// ParsePublicKey decodes a secp256k1 public key in hex (optionally
// 0x-prefixed). Accepted lengths:
//   - 64 bytes: X||Y
//   - 65 bytes: 0x04||X||Y
//   - 33 bytes: compressed
//
// The point must lie on the curve.
func ParsePublicKey(s string) (verity.PublicKey, error) {
	var out verity.PublicKey
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("public key hex: %w", err)
	}
	switch len(b) {
	case verity.PublicKeySize:
		b = append([]byte{0x04}, b...)
	case verity.PublicKeySize + 1, 33:
	default:
		return out, fmt.Errorf("public key must be 33, 64 or 65 bytes, got %d", len(b))
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return out, fmt.Errorf("public key: %w", err)
	}
	copy(out[:], pub.SerializeUncompressed()[1:])
	return out, nil
}

// FormatPublicKey returns the 64-byte X||Y hex form used in config files.
func FormatPublicKey(k verity.PublicKey) string {
	return hex.EncodeToString(k[:])
}

// PublicKeyFromPrivateHex derives the anchor for an issuer's hex-encoded
// 32-byte private key. The scalar must be in [1, N-1].
func PublicKeyFromPrivateHex(s string) (verity.PublicKey, error) {
	var out verity.PublicKey
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("private key hex: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(b); overflow || k.IsZero() {
		return out, errors.New("private key out of range")
	}
	priv := secp256k1.NewPrivateKey(&k)
	defer priv.Zero()
	copy(out[:], priv.PubKey().SerializeUncompressed()[1:])
	return out, nil
}
