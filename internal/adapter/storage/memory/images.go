package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

type storedImage struct {
	image   domain.Image
	content []byte
}

type Images struct {
	mu     sync.Mutex
	images map[string]storedImage
}

func NewImages() *Images {
	return &Images{images: make(map[string]storedImage)}
}

func (m *Images) SaveImage(ctx context.Context, image domain.Image, content io.Reader) (domain.Image, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return domain.Image{}, err
	}
	image.ID = uuid.NewString()
	image.Size = int64(len(raw))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.ID] = storedImage{image: image, content: raw}
	return image, nil
}

func (m *Images) OpenImage(ctx context.Context, id string) (domain.Image, io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.images[id]
	if !ok {
		return domain.Image{}, nil, domain.ErrImageNotFound
	}
	return stored.image, io.NopCloser(bytes.NewReader(stored.content)), nil
}

func (m *Images) DeleteImage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return domain.ErrImageNotFound
	}
	delete(m.images, id)
	return nil
}

// Len returns the number of stored images.
func (m *Images) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}
