// Package keys provides trust-anchor helpers for deployments.
//
// A trust anchor is the uncompressed secp256k1 public key of the single
// issuer a deployment accepts. Operators usually know an issuer by its
// wallet address or private key; the helpers here convert between those
// forms and the 64-byte X||Y anchor that verification compares against.
//
// Nothing in this package signs attestations.
package keys
