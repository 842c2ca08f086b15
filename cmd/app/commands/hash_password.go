package commands

import (
	"bufio"
	"fmt"
	"strings"

	authService "github.com/allisson/datavault/internal/auth/service"
)

// RunHashPassword hashes a password read from the first line of streams.Reader.
// The default output is "saltHex:hashHex"; phc selects the PHC string form.
// With verify set, the password is checked against that stored value instead.
func RunHashPassword(
	passwordService authService.PasswordService,
	streams IOTuple,
	phc bool,
	verify string,
) error {
	line, err := bufio.NewReader(streams.Reader).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	if verify != "" {
		if !passwordService.VerifyPassword(password, verify) {
			_, _ = fmt.Fprintln(streams.Writer, "password does not match")
			return fmt.Errorf("password verification failed")
		}
		_, _ = fmt.Fprintln(streams.Writer, "password matches")
		return nil
	}

	var hashed string
	if phc {
		hashed, err = passwordService.HashPasswordPHC(password)
	} else {
		hashed, err = passwordService.HashPassword(password, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, _ = fmt.Fprintln(streams.Writer, hashed)
	return nil
}
