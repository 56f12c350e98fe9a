// Package passcode mints the numeric one-time codes spoken during a
// verification call.
//
// Codes are security credentials guarding account access, so the random
// source must be cryptographically suitable. A failing random source is
// treated as unrecoverable: producing a guessable code would be worse than
// crashing.
package passcode
