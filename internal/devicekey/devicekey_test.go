package devicekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	token := FactoryToken("LJ-A3F8B2C1-7294", "secret")
	assert.Len(t, token, 16)
	assert.Equal(t, token, FactoryToken("LJ-A3F8B2C1-7294", "secret"))
	assert.NotEqual(t, token, FactoryToken("LJ-A3F8B2C1-7295", "secret"))

	digest := Digest(token)
	assert.Len(t, digest, 16)
	assert.NotEqual(t, token, digest)
	assert.Equal(t, digest, ExpectedDigest("LJ-A3F8B2C1-7294", "secret"))
	// sha256("abc") = ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad
	assert.Equal(t, "ba7816bf8f01cfea", Digest("abc"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("0123456789abcdef", "0123456789abcdef"))
	assert.False(t, Equal("0123456789abcdef", "0123456789abcdee"))
	assert.False(t, Equal("0123456789abcdef", "0123"))
}

func TestNewAccessToken(t *testing.T) {
	a, err := NewAccessToken()
	require.NoError(t, err)
	b, err := NewAccessToken()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestIDValidator(t *testing.T) {
	v, err := NewIDValidator("")
	require.NoError(t, err)
	assert.NoError(t, v.Validate("LJ-A3F8B2C1-7294"))
	assert.NoError(t, v.Validate("UNIT-0001"))
	assert.ErrorIs(t, v.Validate(""), ErrInvalidDeviceID)
	assert.ErrorIs(t, v.Validate("-bad"), ErrInvalidDeviceID)
	assert.ErrorIs(t, v.Validate("has space"), ErrInvalidDeviceID)
	assert.ErrorIs(t, v.Validate("LJ-0123456789-0123456789-0123456789"), ErrInvalidDeviceID)

	strict, err := NewIDValidator(`^LJ-[0-9A-Z]{8}-[0-9A-Z]{4}$`)
	require.NoError(t, err)
	assert.NoError(t, strict.Validate("LJ-A3F8B2C1-7294"))
	assert.Error(t, strict.Validate("UNIT-0001"))

	_, err = NewIDValidator("(")
	assert.Error(t, err)
}

func TestSetupURL(t *testing.T) {
	assert.Equal(t,
		"https://example.com/setup?device_id=UNIT-0001&fth=0123456789abcdef",
		SetupURL("https://example.com/setup", "UNIT-0001", "0123456789abcdef"))
}
