package fhe

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrInvalidProof is returned when an input proof does not bind the
	// ciphertext to the claimed (sender, contract) pair.
	ErrInvalidProof = errors.New("invalid input proof")

	// ErrNoGrant is returned when a reader without a decryption grant asks
	// for a plaintext.
	ErrNoGrant = errors.New("no decryption grant for reader")
)

var one = big.NewInt(1)

// Paillier is an additively homomorphic engine over the Paillier cryptosystem.
// Addition of plaintexts is multiplication of ciphertexts mod n².
type Paillier struct {
	n      *big.Int
	n2     *big.Int
	g      *big.Int // n+1
	phi    *big.Int // (p-1)(q-1), private
	phiInv *big.Int // phi^-1 mod n, private
	digest []byte   // binds proofs to this key
}

// GenerateKey creates a Paillier engine with a modulus of the given bit size.
// Test and development deployments use small keys; the production key comes
// from an external ceremony and is never generated in-process.
func GenerateKey(random io.Reader, bits int) (*Paillier, error) {
	if bits < 128 {
		return nil, fmt.Errorf("modulus too small: %d bits", bits)
	}
	p, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		if q, err = rand.Prime(random, bits/2); err != nil {
			return nil, err
		}
	}

	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
	phiInv := new(big.Int).ModInverse(phi, n)
	if phiInv == nil {
		return nil, errors.New("degenerate key: phi not invertible mod n")
	}

	sum := sha256.Sum256(n.Bytes())
	return &Paillier{
		n:      n,
		n2:     new(big.Int).Mul(n, n),
		g:      new(big.Int).Add(n, one),
		phi:    phi,
		phiInv: phiInv,
		digest: sum[:],
	}, nil
}

// randomUnit picks r in [1, n) with gcd(r, n) = 1.
func (e *Paillier) randomUnit() (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, e.n)
		if err != nil {
			return nil, err
		}
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, e.n).Cmp(one) == 0 {
			return r, nil
		}
	}
}

// encrypt computes g^m * r^n mod n².
func (e *Paillier) encrypt(m uint64) (*big.Int, error) {
	r, err := e.randomUnit()
	if err != nil {
		return nil, err
	}
	gm := new(big.Int).Exp(e.g, new(big.Int).SetUint64(m), e.n2)
	rn := new(big.Int).Exp(r, e.n, e.n2)
	c := gm.Mul(gm, rn)
	return c.Mod(c, e.n2), nil
}

// checkCiphertext rejects values that are out of range or not invertible
// mod n². Cheap sanity only; it says nothing about the plaintext magnitude.
func (e *Paillier) checkCiphertext(c *big.Int) error {
	if c.Cmp(one) <= 0 || c.Cmp(e.n2) >= 0 {
		return errors.New("ciphertext out of range")
	}
	if new(big.Int).GCD(nil, nil, c, e.n2).Cmp(one) != 0 {
		return errors.New("ciphertext not invertible mod n²")
	}
	return nil
}

// inputProof binds a wire ciphertext to the sender and receiving contract.
func (e *Paillier) inputProof(external []byte, sender, contract Address) []byte {
	h := sha256.New()
	h.Write(e.digest)
	h.Write([]byte(sender))
	h.Write([]byte(contract))
	h.Write(external)
	return h.Sum(nil)
}

// EncryptInput is the client-side half of the input protocol: it encrypts m
// and produces the wire ciphertext plus the proof VerifyInput expects for the
// given (sender, contract) pair.
func (e *Paillier) EncryptInput(m uint64, sender, contract Address) (external, proof []byte, err error) {
	c, err := e.encrypt(m)
	if err != nil {
		return nil, nil, err
	}
	external = c.Bytes()
	return external, e.inputProof(external, sender, contract), nil
}

// EncryptZero implements Engine.
func (e *Paillier) EncryptZero() (*Ciphertext, error) {
	c, err := e.encrypt(0)
	if err != nil {
		return nil, err
	}
	return newCiphertext(c.Bytes()), nil
}

// VerifyInput implements Engine.
func (e *Paillier) VerifyInput(external, proof []byte, sender, contract Address) (*Ciphertext, error) {
	if len(external) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrInvalidProof)
	}
	if !hmac.Equal(proof, e.inputProof(external, sender, contract)) {
		return nil, ErrInvalidProof
	}
	c := new(big.Int).SetBytes(external)
	if err := e.checkCiphertext(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return newCiphertext(c.Bytes()), nil
}

// Add implements Engine. The sum is a fresh handle with an empty ACL.
func (e *Paillier) Add(a, b *Ciphertext) (*Ciphertext, error) {
	ca := new(big.Int).SetBytes(a.value)
	cb := new(big.Int).SetBytes(b.value)
	if err := e.checkCiphertext(ca); err != nil {
		return nil, err
	}
	if err := e.checkCiphertext(cb); err != nil {
		return nil, err
	}
	sum := ca.Mul(ca, cb)
	sum.Mod(sum, e.n2)
	return newCiphertext(sum.Bytes()), nil
}

// Allow implements Engine.
func (e *Paillier) Allow(ct *Ciphertext, addr Address) {
	ct.Grant(addr)
}

// Decrypt implements Engine. m = L(c^phi mod n²) * phi^-1 mod n, L(x)=(x-1)/n.
func (e *Paillier) Decrypt(ct *Ciphertext, reader Address) (uint64, error) {
	if !ct.CanDecrypt(reader) {
		return 0, ErrNoGrant
	}
	c := new(big.Int).SetBytes(ct.value)
	if err := e.checkCiphertext(c); err != nil {
		return 0, err
	}
	u := new(big.Int).Exp(c, e.phi, e.n2)
	u.Sub(u, one)
	u.Div(u, e.n)
	u.Mul(u, e.phiInv)
	u.Mod(u, e.n)
	if !u.IsUint64() {
		return 0, errors.New("plaintext overflows uint64")
	}
	return u.Uint64(), nil
}
