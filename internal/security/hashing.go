// Package security provides credential hashing for the identity store.
package security

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt hash of an unguessable throwaway value. Login burns a
// compare against it when the identity name is unknown so that the unknown-name and
// wrong-secret paths cost the same; otherwise response timing leaks which names exist.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Hasher hashes and verifies secrets using bcrypt. The salt is embedded in each
// hash, so two identities with the same secret never store equal values. Callers
// must not log or persist plaintext secrets.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of secret with a fresh random salt. Returns the
// hash as a string suitable for storage.
func (h *Hasher) Hash(secret []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(secret, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies secret against the stored hash using bcrypt's constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid hash.
func (h *Hasher) Compare(hash string, secret []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), secret)
}

// CompareDummy runs a bcrypt compare that always fails, at the same cost class as
// a real compare. Call it on the unknown-identity login path.
func (h *Hasher) CompareDummy(secret []byte) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), secret)
}
