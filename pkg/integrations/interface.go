package integrations

import (
	"context"

	"github.com/YungFritz/kyys-letters/pkg/data"
)

// ImageSource resolves an image reference to its bytes and content type.
type ImageSource interface {
	OpenImage(ctx context.Context, ref data.ImageRef) ([]byte, string, error)
}
