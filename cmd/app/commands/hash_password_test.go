package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authService "github.com/allisson/datavault/internal/auth/service"
)

func TestRunHashPassword(t *testing.T) {
	passwords := authService.NewPasswordService()

	hash := func(t *testing.T, input string, phc bool) string {
		t.Helper()
		var out bytes.Buffer
		require.NoError(t, RunHashPassword(passwords, IOTuple{Reader: strings.NewReader(input), Writer: &out}, phc, ""))
		return strings.TrimSpace(out.String())
	}

	t.Run("salt:hash format", func(t *testing.T) {
		stored := hash(t, "correct horse\n", false)

		salt, digest, ok := strings.Cut(stored, ":")
		require.True(t, ok)
		assert.Len(t, salt, 2*authService.SaltSize)
		assert.Len(t, digest, 64)
		assert.True(t, passwords.VerifyPassword("correct horse", stored))
	})

	t.Run("PHC format", func(t *testing.T) {
		stored := hash(t, "correct horse", true)

		assert.True(t, strings.HasPrefix(stored, "$argon2id$"))
		assert.True(t, passwords.VerifyPassword("correct horse", stored))
	})

	t.Run("verify", func(t *testing.T) {
		stored := hash(t, "s3cret\r\n", false)

		var out bytes.Buffer
		err := RunHashPassword(passwords, IOTuple{Reader: strings.NewReader("s3cret\n"), Writer: &out}, false, stored)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "password matches")

		out.Reset()
		err = RunHashPassword(passwords, IOTuple{Reader: strings.NewReader("wrong\n"), Writer: &out}, false, stored)
		assert.ErrorContains(t, err, "verification failed")
		assert.Contains(t, out.String(), "does not match")
	})

	t.Run("empty password", func(t *testing.T) {
		err := RunHashPassword(passwords, IOTuple{Reader: strings.NewReader("\n"), Writer: &bytes.Buffer{}}, false, "")
		assert.ErrorContains(t, err, "must not be empty")

		err = RunHashPassword(passwords, IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}}, false, "")
		assert.ErrorContains(t, err, "failed to read password")
	})
}
