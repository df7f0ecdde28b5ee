// Package fhe models the external homomorphic-encryption collaborator used by
// the voting-room registry: opaque encrypted-integer addition with explicit
// zero materialization and capability-based decryption grants.
//
// The registry only ever sees the Engine interface and opaque Ciphertext
// handles; it never inspects plaintext values. The bundled Paillier engine
// exists so the system is runnable and testable end to end, it is a stand-in
// for the production coprocessor, not a hardened FHE implementation.
package fhe

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Address is an opaque account identity, supplied by the calling transaction's
// signer. The registry itself holds one as the "contract" identity so it can
// keep decryption access to the tallies it aggregates.
type Address string

// Ciphertext is an opaque handle to one encrypted integer. Each handle carries
// its own access-control list: the set of identities allowed to decrypt it.
// Arithmetic produces fresh handles with an empty ACL, so grants must be
// re-issued after every mutation.
type Ciphertext struct {
	value []byte
	acl   map[Address]struct{}
}

func newCiphertext(value []byte) *Ciphertext {
	return &Ciphertext{value: value, acl: make(map[Address]struct{})}
}

// NewCiphertext wraps raw engine bytes in a handle with an empty ACL. It is
// meant for Engine implementations living outside this package; the registry
// never constructs handles itself.
func NewCiphertext(value []byte) *Ciphertext {
	return newCiphertext(value)
}

// Grant adds addr to the handle's ACL. Engine implementations use it to back
// Allow; everyone else should go through the engine.
func (c *Ciphertext) Grant(addr Address) {
	c.acl[addr] = struct{}{}
}

// Handle returns a stable hex digest identifying this ciphertext. It is safe
// to expose publicly: the digest reveals nothing about the plaintext.
func (c *Ciphertext) Handle() string {
	sum := sha256.Sum256(c.value)
	return hex.EncodeToString(sum[:])
}

// CanDecrypt reports whether addr has been granted access to this handle.
func (c *Ciphertext) CanDecrypt(addr Address) bool {
	_, ok := c.acl[addr]
	return ok
}

// Grants returns the identities allowed to decrypt this handle, sorted.
func (c *Ciphertext) Grants() []Address {
	out := make([]Address, 0, len(c.acl))
	for a := range c.acl {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Engine is the collaborator interface consumed by the registry.
//
// Operands must be explicitly materialized: a tally starts from EncryptZero,
// never from a default value. VerifyInput converts an externally-supplied wire
// ciphertext into internal form, failing when the accompanying proof does not
// bind the ciphertext to the (sender, contract) pair it claims.
type Engine interface {
	// EncryptZero materializes a fresh encryption of zero with an empty ACL.
	EncryptZero() (*Ciphertext, error)

	// VerifyInput validates an external ciphertext against its input proof
	// and returns the internal handle. The proof ties the ciphertext to the
	// submitting sender and the receiving contract; any mismatch fails.
	VerifyInput(external, proof []byte, sender, contract Address) (*Ciphertext, error)

	// Add homomorphically adds two ciphertexts, returning a new handle with
	// an empty ACL. Neither operand is modified.
	Add(a, b *Ciphertext) (*Ciphertext, error)

	// Allow grants addr decryption access to the given handle.
	Allow(ct *Ciphertext, addr Address)

	// Decrypt recovers the plaintext for a reader that holds a grant on the
	// handle. Readers without a grant are refused.
	Decrypt(ct *Ciphertext, reader Address) (uint64, error)
}
