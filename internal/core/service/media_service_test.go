package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMediaUpload_StoresImage(t *testing.T) {
	images := memory.NewImages()
	svc := NewMediaService(images, 1024, testLogger())
	ctx := context.Background()

	image, err := svc.Upload(ctx, `C:\photos\boot.png`, int64(len(pngHeader)), bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if image.ContentType != "image/png" || image.Name != "boot.png" || image.ID == "" {
		t.Errorf("unexpected image %+v", image)
	}

	_, rc, err := svc.Open(ctx, image.ID)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pngHeader) {
		t.Errorf("content mismatch: %q", got)
	}

	if err := svc.Delete(ctx, image.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(ctx, image.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got: %v", err)
	}
}

func TestMediaUpload_RejectsNonImages(t *testing.T) {
	svc := NewMediaService(memory.NewImages(), 1024, testLogger())
	body := []byte("<html><body>hi</body></html>")

	_, err := svc.Upload(context.Background(), "evil.png", int64(len(body)), bytes.NewReader(body))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}

	_, err = svc.Upload(context.Background(), "empty.png", 0, bytes.NewReader(nil))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for empty file, got: %v", err)
	}
}

func TestMediaUpload_EnforcesSizeLimit(t *testing.T) {
	images := memory.NewImages()
	svc := NewMediaService(images, 32, testLogger())
	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)

	_, err := svc.Upload(context.Background(), "big.png", int64(len(big)), bytes.NewReader(big))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for declared size, got: %v", err)
	}

	// unknown declared size: the stream itself is cut off
	_, err = svc.Upload(context.Background(), "big.png", -1, bytes.NewReader(big))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for streamed size, got: %v", err)
	}
	if images.Len() != 0 {
		t.Errorf("expected no stored images, got %d", images.Len())
	}

	exact := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 32-len(pngHeader))...)
	if _, err := svc.Upload(context.Background(), "exact.png", -1, bytes.NewReader(exact)); err != nil {
		t.Errorf("expected an image of exactly the limit to pass, got: %v", err)
	}
}
