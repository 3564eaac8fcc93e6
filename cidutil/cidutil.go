package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/verity/verity"
)

// AttestationID returns a CIDv1 string using the "raw" multicodec and a
// keccak-256 multihash over the canonical encoding of a.
//
// The multihash digest equals a.Digest(), the value the issuer signed, so
// the ID names exactly the bytes covered by the signature.
func AttestationID(a verity.Attestation) string {
	id, err := AttestationCID(a)
	if err != nil {
		// multihash.Encode only errors for unknown codes or oversized digests;
		// with KECCAK_256 and 32 bytes this is unreachable.
		return ""
	}
	return id.String()
}

// AttestationCID is AttestationID as a cid.Cid.
func AttestationCID(a verity.Attestation) (cid.Cid, error) {
	d := a.Digest()
	mh, err := multihash.Encode(d[:], multihash.KECCAK_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// DigestFromID extracts the signed digest from an attestation ID.
func DigestFromID(s string) (verity.Digest, error) {
	var d verity.Digest
	id, err := cid.Decode(s)
	if err != nil {
		return d, err
	}
	if id.Prefix().Codec != cid.Raw {
		return d, fmt.Errorf("attestation id: codec 0x%x is not raw", id.Prefix().Codec)
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return d, err
	}
	if dec.Code != multihash.KECCAK_256 || len(dec.Digest) != verity.DigestSize {
		return d, fmt.Errorf("attestation id: not a keccak-256 multihash")
	}
	copy(d[:], dec.Digest)
	return d, nil
}
