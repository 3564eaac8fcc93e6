// Package verity verifies signed compliance attestations.
//
// An attestation asserts that a subject identity holds a credential (for
// example KYC) until an expiration time. Verification confirms, in a fixed
// order, that:
//
//   - the domain separator (name, version, cluster) matches the deployment,
//   - the presenting caller is the subject and authenticated the call,
//   - the attestation has not expired and carries the expected schema,
//   - the secp256k1 key recovered from the signature over the Keccak-256 of
//     the canonical encoding is the deployment's trust anchor.
//
// The first violated rule is reported as a *Error with a stable Code and
// RuleID. Everything in this package is pure, synchronous computation over
// caller-supplied values; the caller supplies the current time.
package verity
