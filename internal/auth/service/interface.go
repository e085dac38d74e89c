// Package service provides hashing and verification of the admin bearer token.
package service

// SecretService generates, hashes and verifies bearer secrets.
type SecretService interface {
	// GenerateSecret creates a random secret and its Argon2id hash. The plain secret
	// is shown once and never stored.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret hashes a plain secret with Argon2id in PHC format.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret reports whether plainSecret matches hashedSecret in constant time.
	CompareSecret(plainSecret string, hashedSecret string) bool
}
