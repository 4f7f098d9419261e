package port

import (
	"context"
	"io"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ImageStore interface {
	// SaveImage stores the content and returns the image with its assigned id
	SaveImage(ctx context.Context, image domain.Image, content io.Reader) (domain.Image, error)

	// OpenImage fails with domain.ErrImageNotFound for unknown ids
	OpenImage(ctx context.Context, id string) (domain.Image, io.ReadCloser, error)

	// DeleteImage fails with domain.ErrImageNotFound for unknown ids
	DeleteImage(ctx context.Context, id string) error
}

type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}
