package service

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordService(t *testing.T) {
	service := NewPasswordService()
	assert.NotNil(t, service)
	assert.IsType(t, &passwordService{}, service)
}

func TestPasswordService_HashPassword(t *testing.T) {
	service := NewPasswordService()

	t.Run("Success_Format", func(t *testing.T) {
		stored, err := service.HashPassword("correct horse", nil)
		require.NoError(t, err)

		saltHex, hashHex, found := strings.Cut(stored, ":")
		require.True(t, found)

		salt, err := hex.DecodeString(saltHex)
		require.NoError(t, err)
		assert.Len(t, salt, SaltSize)

		hash, err := hex.DecodeString(hashHex)
		require.NoError(t, err)
		assert.Len(t, hash, 32)
	})

	t.Run("Success_RandomSaltPerCall", func(t *testing.T) {
		first, err := service.HashPassword("pw", nil)
		require.NoError(t, err)
		second, err := service.HashPassword("pw", nil)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("Success_DeterministicWithSalt", func(t *testing.T) {
		salt := []byte("0123456789abcdef")

		first, err := service.HashPassword("pw", salt)
		require.NoError(t, err)
		second, err := service.HashPassword("pw", salt)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.True(t, strings.HasPrefix(first, hex.EncodeToString(salt)+":"))
	})
}

func TestPasswordService_VerifyPassword(t *testing.T) {
	service := NewPasswordService()

	for _, pw := range []string{"", "pw", "pässwörd", strings.Repeat("x", 200), "with:colon"} {
		stored, err := service.HashPassword(pw, nil)
		require.NoError(t, err)

		assert.True(t, service.VerifyPassword(pw, stored), "password %q", pw)
		assert.False(t, service.VerifyPassword(pw+"!", stored), "password %q", pw)
	}

	stored, err := service.HashPassword("pw", nil)
	require.NoError(t, err)
	saltHex, hashHex, _ := strings.Cut(stored, ":")

	t.Run("Malformed", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"nodelimiter",
			":" + hashHex,
			saltHex + ":",
			saltHex + ":" + hashHex + ":extra",
			"zz:" + hashHex,
			saltHex + ":" + hashHex[:62],
			saltHex + ":" + hashHex + "00",
		} {
			assert.False(t, service.VerifyPassword("pw", bad), "stored %q", bad)
		}
	})

	t.Run("OtherSalt", func(t *testing.T) {
		other, err := service.HashPassword("pw", []byte("another-salt-123"))
		require.NoError(t, err)
		_, otherHash, _ := strings.Cut(other, ":")

		assert.False(t, service.VerifyPassword("pw", saltHex+":"+otherHash))
	})
}

func TestPasswordService_PHC(t *testing.T) {
	service := NewPasswordService()

	hashed, err := service.HashPasswordPHC("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$argon2id$"))

	assert.True(t, service.VerifyPassword("correct horse", hashed))
	assert.False(t, service.VerifyPassword("wrong horse", hashed))
	assert.False(t, service.VerifyPassword("correct horse", "$argon2id$garbage"))
}
