package domain

import "time"

// Identity is a registered user: a unique case-sensitive name and a salted
// one-way credential hash. The plaintext secret is never stored.
type Identity struct {
	Name           string
	CredentialHash string
	CreatedAt      time.Time
}
