// Package testkit provides deterministic issuer and presenter fixtures for
// tests. It signs attestations the way an issuer does, which production code
// never needs.
package testkit

import (
	"encoding/hex"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"xdao.co/verity/verity"
)

// IssuerKeyHex is the development issuer key whose public key was the
// hard-coded verifier in the first on-chain deployment.
const IssuerKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// AnchorHex is the uncompressed public key (X||Y) for IssuerKeyHex.
const AnchorHex = "8318535b54105d4a7aae60c08fc45f9687181b4fdfc625bd1a753fa7397fed75" +
	"3547f11ca8696646f2f3acb08e31016afac23e630c5d11f59f61fef57b0d2aa5"

// SubjectSeedHex is the ed25519 seed of the fixture subject account.
const SubjectSeedHex = "e350ba9a37912448781c843f806d2625b65a7224a103b9cedbf87f380046b246"

// SubjectBase58 is the base58 identity derived from SubjectSeedHex.
const SubjectBase58 = "F1sefzyBEc6qgtN3iKvg3wQC2a9DTYZ8MD7dfFdUdrkW"

// Expiration used by Attestation; far in the future (2053).
const Expiration int64 = 2644257401

type Issuer struct {
	key *secp256k1.PrivateKey
}

// NewIssuer returns an issuer for a hex-encoded 32-byte secp256k1 key.
func NewIssuer(t testing.TB, keyHex string) *Issuer {
	t.Helper()
	b, err := hex.DecodeString(keyHex)
	if err != nil || len(b) != 32 {
		t.Fatalf("testkit: bad issuer key %q", keyHex)
	}
	return &Issuer{key: secp256k1.PrivKeyFromBytes(b)}
}

// DefaultIssuer returns the issuer whose key is AnchorHex.
func DefaultIssuer(t testing.TB) *Issuer { return NewIssuer(t, IssuerKeyHex) }

// OtherIssuer returns an issuer that no deployment trusts.
func OtherIssuer(t testing.TB) *Issuer {
	return NewIssuer(t, "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
}

func (i *Issuer) PublicKey() verity.PublicKey {
	var pk verity.PublicKey
	copy(pk[:], i.key.PubKey().SerializeUncompressed()[1:])
	return pk
}

// Sign returns an RFC 6979 signature over the attestation digest.
func (i *Issuer) Sign(a verity.Attestation) verity.Signature {
	d := a.Digest()
	return i.SignDigest(d)
}

func (i *Issuer) SignDigest(d verity.Digest) verity.Signature {
	compact := ecdsa.SignCompact(i.key, d[:], false)
	var sig verity.Signature
	sig.RecoveryID = compact[0] - 27
	copy(sig.RS[:], compact[1:])
	return sig
}

// Presenter holds an ed25519 account key able to prove it is the subject.
type Presenter struct {
	priv ed25519.PrivateKey
}

func NewPresenter(t testing.TB, seedHex string) *Presenter {
	t.Helper()
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		t.Fatalf("testkit: bad presenter seed %q", seedHex)
	}
	return &Presenter{priv: ed25519.NewKeyFromSeed(seed)}
}

// DefaultPresenter is the account identified by SubjectBase58.
func DefaultPresenter(t testing.TB) *Presenter { return NewPresenter(t, SubjectSeedHex) }

func (p *Presenter) Identity() verity.Identity {
	var id verity.Identity
	copy(id[:], p.priv.Public().(ed25519.PublicKey))
	return id
}

func (p *Presenter) Sign(msg []byte) []byte { return ed25519.Sign(p.priv, msg) }

// Attestation returns a KYC attestation for subject on cluster that is
// valid until Expiration.
func Attestation(cluster string, subject verity.Identity) verity.Attestation {
	return verity.Attestation{
		Name:       verity.DefaultName,
		Version:    verity.DefaultVersion,
		Cluster:    cluster,
		Subject:    subject,
		Expiration: Expiration,
		Schema:     verity.SchemaKYC,
	}
}

// Anchor decodes AnchorHex.
func Anchor(t testing.TB) verity.PublicKey {
	t.Helper()
	b, err := hex.DecodeString(AnchorHex)
	if err != nil || len(b) != verity.PublicKeySize {
		t.Fatalf("testkit: bad anchor")
	}
	var pk verity.PublicKey
	copy(pk[:], b)
	return pk
}
