package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticToken(t *testing.T) {
	v := StaticToken("s3cret")
	assert.True(t, v.Verify("s3cret"))
	assert.False(t, v.Verify("s3cre"))
	assert.False(t, v.Verify(""))
	assert.False(t, StaticToken("").Verify(""))
}

func TestBcryptToken(t *testing.T) {
	hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("s3cret")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret")

	v := BcryptToken{Hash: hash}
	assert.True(t, v.Verify("s3cret"))
	assert.False(t, v.Verify("other"))
	assert.False(t, v.Verify(""))
	assert.False(t, BcryptToken{}.Verify("s3cret"))
}

func TestHasherRejectsEmptyToken(t *testing.T) {
	_, err := BcryptHasher{}.Hash("")
	assert.ErrorIs(t, err, ErrEmptyToken)
}
