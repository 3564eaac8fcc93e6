package rpc

import (
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/verity/verity"
)

// VerifyRequest asks the server to verify one attestation for one caller.
type VerifyRequest struct {
	Deployment  string             `json:"deployment"`
	Attestation verity.Attestation `json:"attestation"`
	// Signature is the issuer's 65-byte R||S||V hex.
	Signature string `json:"signature"`
	// Caller is the base58 identity presenting the attestation.
	Caller string `json:"caller"`
	// Presentation is base64 ed25519 signature by Caller over
	// PresentationMessage(Deployment, Attestation.Digest(), PresentedAt).
	Presentation string `json:"presentation"`
	// PresentedAt is the unix time the caller signed Presentation. The server
	// only honors proofs within DefaultPresentationWindow of its clock.
	PresentedAt int64 `json:"presented_at"`
}

// VerifyReply carries the outcome. A rejection is a normal reply, not an
// RPC error.
type VerifyReply struct {
	Accepted      bool   `json:"accepted"`
	AttestationID string `json:"attestation_id"`
	Code          string `json:"code,omitempty"`
	RuleID        string `json:"rule_id,omitempty"`
	Stage         string `json:"stage,omitempty"`
	Message       string `json:"message,omitempty"`
}

const presentationDomain = "verity-presentation-v1"

// DefaultPresentationWindow bounds how far PresentedAt may differ from the
// verifier's clock.
const DefaultPresentationWindow = 2 * time.Minute

// PresentationMessage is the byte string a caller signs to prove it controls
// its identity for this attestation, deployment and moment:
//
//	"verity-presentation-v1" 0x00 deployment 0x00 digest presentedAt(i64 LE)
func PresentationMessage(deployment string, d verity.Digest, presentedAt int64) []byte {
	out := make([]byte, 0, len(presentationDomain)+1+len(deployment)+1+verity.DigestSize+8)
	out = append(out, presentationDomain...)
	out = append(out, 0)
	out = append(out, deployment...)
	out = append(out, 0)
	out = append(out, d[:]...)
	return binary.LittleEndian.AppendUint64(out, uint64(presentedAt))
}

// EncodePresentation is the wire form of a presentation signature.
func EncodePresentation(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// PresentationFresh reports whether presentedAt lies within window of now.
// A non-positive window selects DefaultPresentationWindow.
func PresentationFresh(presentedAt int64, now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultPresentationWindow
	}
	skew := now.Unix() - presentedAt
	if skew < 0 {
		skew = -skew
	}
	return skew <= int64(window/time.Second)
}

// VerifyPresentation reports whether proof is caller's ed25519 signature
// over PresentationMessage(deployment, d, presentedAt) and presentedAt is
// within window of now. A stale or future-dated proof never authenticates,
// so a captured request cannot be replayed later.
func VerifyPresentation(caller verity.Identity, deployment string, d verity.Digest, presentedAt int64, proof string, now time.Time, window time.Duration) bool {
	if !PresentationFresh(presentedAt, now, window) {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(proof)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(caller[:]), PresentationMessage(deployment, d, presentedAt), sig)
}
