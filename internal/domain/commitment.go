package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Commitments are hex-encoded SHA-256 digests over the committing
// identity, its secret and the hidden choice. The first mover's
// commitment doubles as the session key; the second mover folds that
// key into its own digest so the same secret can be reused across
// sessions without ever producing the same commitment twice.

var commitmentSep = []byte{0x00}

// FirstCommitment computes the first mover's commitment. Inputs are
// assumed validated (non-empty secret, valid choice); callers in the
// app layer enforce that before reaching here.
func FirstCommitment(identity, secret string, choice Choice) string {
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write(commitmentSep)
	h.Write([]byte(secret))
	h.Write(commitmentSep)
	h.Write([]byte{byte(choice)})
	return hex.EncodeToString(h.Sum(nil))
}

// SecondCommitment computes the second mover's commitment, bound to
// the session it joins.
func SecondCommitment(identity, sessionKey, secret string, choice Choice) string {
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write(commitmentSep)
	h.Write([]byte(sessionKey))
	h.Write(commitmentSep)
	h.Write([]byte(secret))
	h.Write(commitmentSep)
	h.Write([]byte{byte(choice)})
	return hex.EncodeToString(h.Sum(nil))
}
