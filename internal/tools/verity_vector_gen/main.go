package main

import (
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"xdao.co/verity/cidutil"
	"xdao.co/verity/internal/testkit"
	"xdao.co/verity/keys"
	"xdao.co/verity/verity"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func main() {
	cluster := flag.String("cluster", "localnet", "cluster embedded in the vector")
	flag.Parse()

	issuer := secp256k1.PrivKeyFromBytes(mustHex(testkit.IssuerKeyHex))
	var anchor verity.PublicKey
	copy(anchor[:], issuer.PubKey().SerializeUncompressed()[1:])

	subjectKey := ed25519.NewKeyFromSeed(mustHex(testkit.SubjectSeedHex))
	var subject verity.Identity
	copy(subject[:], subjectKey.Public().(ed25519.PublicKey))

	att := testkit.Attestation(*cluster, subject)
	digest := att.Digest()

	compact := ecdsa.SignCompact(issuer, digest[:], false)
	var sig verity.Signature
	sig.RecoveryID = compact[0] - 27
	copy(sig.RS[:], compact[1:])

	caller := verity.CallerContext{Identity: subject, Authenticated: true}
	if err := verity.NewDomainConfig(*cluster).Validate(); err != nil {
		panic(err)
	}
	if err := verity.Verify(sig.RS, sig.RecoveryID, att, caller, anchor, verity.NewDomainConfig(*cluster)); err != nil {
		panic(err)
	}

	fmt.Printf("ANCHOR=%s\n", keys.FormatPublicKey(anchor))
	fmt.Printf("ADDRESS=%s\n", keys.Address(anchor))
	fmt.Printf("SUBJECT=%s\n", subject)
	fmt.Printf("ENCODED=%s\n", hex.EncodeToString(verity.Encode(att)))
	fmt.Printf("DIGEST=%s\n", digest)
	fmt.Printf("SIGNATURE=%s\n", sig)
	fmt.Printf("ID=%s\n", cidutil.AttestationID(att))
}
