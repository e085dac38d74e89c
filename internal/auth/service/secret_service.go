package service

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

const (
	// TokenPrefix marks generated admin tokens so they are recognisable in leaked logs.
	TokenPrefix = "adm_"
	tokenBytes  = 32
)

type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// NewSecretService returns a SecretService using the Moderate Argon2id policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		// only reachable with an invalid policy
		panic(err)
	}
	return &secretService{hasher: hasher}
}

// GenerateSecret returns TokenPrefix followed by 32 random bytes in unpadded
// URL-safe base64, and its hash.
func (s *secretService) GenerateSecret() (string, string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate admin token")
	}

	token := TokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	hash, err := s.HashSecret(token)
	if err != nil {
		return "", "", err
	}
	return token, hash, nil
}

func (s *secretService) HashSecret(plainSecret string) (string, error) {
	if strings.TrimSpace(plainSecret) == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "admin token must not be blank")
	}

	hash, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash admin token")
	}
	return hash, nil
}

// CompareSecret never matches a blank secret or hash; a malformed hash never matches.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	if plainSecret == "" || hashedSecret == "" {
		return false
	}
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	return err == nil && ok
}
