package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const DefaultMaxImageBytes = 5 << 20

// MediaService stores product images uploaded by admins.
type MediaService struct {
	images   port.ImageStore
	maxBytes int64
	log      *logrus.Logger
}

func NewMediaService(images port.ImageStore, maxBytes int64, log *logrus.Logger) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &MediaService{images: images, maxBytes: maxBytes, log: log}
}

func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload accepts content whose sniffed type is an image. The declared type is
// ignored.
func (s *MediaService) Upload(ctx context.Context, filename string, size int64, content io.Reader) (domain.Image, error) {
	if size > s.maxBytes {
		return domain.Image{}, domain.Validationf("image exceeds %d bytes", s.maxBytes)
	}

	br := bufio.NewReaderSize(content, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return domain.Image{}, fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return domain.Image{}, domain.Validationf("file is empty")
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.Image{}, domain.Validationf("file is not an image (%s)", contentType)
	}

	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}

	limited := &maxReader{r: br, left: s.maxBytes}
	image, err := s.images.SaveImage(ctx, domain.Image{
		Name:        name,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}, limited)
	if limited.exceeded {
		if image.ID != "" {
			if derr := s.images.DeleteImage(ctx, image.ID); derr != nil {
				s.log.WithError(derr).WithField("image_id", image.ID).Warn("oversized image not removed")
			}
		}
		return domain.Image{}, domain.Validationf("image exceeds %d bytes", s.maxBytes)
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("save image: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"image_id":     image.ID,
		"content_type": image.ContentType,
		"size":         image.Size,
	}).Info("image uploaded")
	return image, nil
}

func (s *MediaService) Open(ctx context.Context, id string) (domain.Image, io.ReadCloser, error) {
	if id == "" {
		return domain.Image{}, nil, domain.ErrImageNotFound
	}
	return s.images.OpenImage(ctx, id)
}

func (s *MediaService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.Validationf("public_id is required")
	}
	if err := s.images.DeleteImage(ctx, id); err != nil {
		return err
	}
	s.log.WithField("image_id", id).Info("image deleted")
	return nil
}

// maxReader fails once more than left bytes have been read.
type maxReader struct {
	r        io.Reader
	left     int64
	exceeded bool
}

func (m *maxReader) Read(p []byte) (int, error) {
	if m.left <= 0 {
		// one extra byte tells a full-size file from an oversized one
		var extra [1]byte
		if n, _ := m.r.Read(extra[:]); n > 0 {
			m.exceeded = true
			return 0, errImageTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > m.left {
		p = p[:m.left]
	}
	n, err := m.r.Read(p)
	m.left -= int64(n)
	return n, err
}

var errImageTooLarge = fmt.Errorf("%w: image too large", domain.ErrValidation)
