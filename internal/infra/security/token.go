package security

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyToken = errors.New("security: empty token")

// TokenVerifier decides whether a presented bearer token is the admin credential.
type TokenVerifier interface {
	Verify(token string) bool
}

// StaticToken compares against a plaintext token in constant time.
type StaticToken string

func (s StaticToken) Verify(token string) bool {
	if s == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s)) == 1
}

// BcryptToken checks tokens against a bcrypt hash so the plaintext never sits in config.
type BcryptToken struct {
	Hash string
}

func (b BcryptToken) Verify(token string) bool {
	if b.Hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(b.Hash), []byte(token)) == nil
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}
	out, err := bcrypt.GenerateFromPassword([]byte(token), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

var (
	_ TokenVerifier = StaticToken("")
	_ TokenVerifier = BcryptToken{}
)
