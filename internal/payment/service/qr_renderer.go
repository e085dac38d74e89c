// Package service provides collaborators used by the payment use cases.
package service

import (
	"context"

	"github.com/skip2/go-qrcode"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

// QRRenderer turns a CoDi payload into an opaque image blob.
type QRRenderer interface {
	Render(ctx context.Context, payload []byte) ([]byte, error)
}

type pngQRRenderer struct {
	size int
}

// NewPNGQRRenderer creates a QRRenderer producing square PNG images of size pixels.
func NewPNGQRRenderer(size int) QRRenderer {
	if size <= 0 {
		size = 256
	}
	return &pngQRRenderer{size: size}
}

// Render encodes payload with medium error correction.
func (r *pngQRRenderer) Render(_ context.Context, payload []byte) ([]byte, error) {
	png, err := qrcode.Encode(string(payload), qrcode.Medium, r.size)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to render qr code")
	}
	return png, nil
}
