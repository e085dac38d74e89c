package commands

import (
	"fmt"
	"io"

	authService "github.com/cuenty/fulfillment/internal/auth/service"
)

// RunHashAdminToken prints the ADMIN_TOKEN_HASH value for token. With an empty token a
// random one is generated and printed once.
func RunHashAdminToken(secrets authService.SecretService, writer io.Writer, token string, format string) error {
	var (
		hash string
		err  error
	)
	if token == "" {
		token, hash, err = secrets.GenerateSecret()
	} else {
		hash, err = secrets.HashSecret(token)
	}
	if err != nil {
		return fmt.Errorf("failed to hash admin token: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]string{"token": token, "hash": hash})
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Token: %s\n", token)
	_, _ = fmt.Fprintf(writer, "ADMIN_TOKEN_HASH=%q\n", hash)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The token is shown only once. Store it securely.")
	return nil
}
