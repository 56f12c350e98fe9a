// Package hash provides helpers for digesting and verifying secrets.
//
// Verification codes are never stored in plaintext: store only the digest,
// then verify user input by comparing its digest against the stored value in
// constant time. Implementations live in this package behind a small
// interface.
package hash
