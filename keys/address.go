package keys

import (
	"encoding/hex"
	"strings"

	"xdao.co/verity/verity"
)

// Address returns the EIP-55 checksummed 0x-address of k: the last 20 bytes
// of keccak256(X||Y). Issuers publish this form, so operators can check a
// configured anchor against it.
func Address(k verity.PublicKey) string {
	h := verity.Hash(k[:])
	lower := hex.EncodeToString(h[12:])
	check := verity.Hash([]byte(lower))

	var b strings.Builder
	b.Grow(2 + len(lower))
	b.WriteString("0x")
	for i, c := range lower {
		nibble := check[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && c <= 'f' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		b.WriteRune(c)
	}
	return b.String()
}

// MatchesAddress reports whether k hashes to addr, ignoring checksum case.
func MatchesAddress(k verity.PublicKey, addr string) bool {
	return strings.EqualFold(Address(k), strings.TrimSpace(addr))
}
