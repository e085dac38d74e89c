// Package service provides the keeper that seals credential passwords at rest.
package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register the supported keeper drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Sealer encrypts and decrypts credential secrets.
type Sealer interface {
	Seal(ctx context.Context, plaintext []byte) ([]byte, error)
	Open(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

type keeperSealer struct {
	keeper *secrets.Keeper
}

// NewKeeperSealer opens a gocloud.dev secrets keeper for keyURI.
// Supports: base64key://, hashivault://, awskms://, gcpkms://, azurekeyvault://
func NewKeeperSealer(ctx context.Context, keyURI string) (Sealer, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials keeper: %w", err)
	}
	return &keeperSealer{keeper: keeper}, nil
}

// Seal encrypts plaintext with the keeper.
func (s *keeperSealer) Seal(ctx context.Context, plaintext []byte) ([]byte, error) {
	ciphertext, err := s.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to seal credential: %w", err)
	}
	return ciphertext, nil
}

// Open decrypts ciphertext produced by Seal.
func (s *keeperSealer) Open(ctx context.Context, ciphertext []byte) ([]byte, error) {
	plaintext, err := s.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential: %w", err)
	}
	return plaintext, nil
}

// Close releases the keeper.
func (s *keeperSealer) Close() error {
	return s.keeper.Close()
}
