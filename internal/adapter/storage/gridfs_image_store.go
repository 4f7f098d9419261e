package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/storefront/internal/core/domain"
)

const imagesBucket = "images"

// GridFSImageStore keeps product images in a GridFS bucket. The id is the
// file's ObjectID in hex; the content type rides in the file metadata.
type GridFSImageStore struct {
	db *mongo.Database
}

func NewGridFSImageStore(db *mongo.Database) *GridFSImageStore {
	return &GridFSImageStore{db: db}
}

// bucket returns a per-call handle; GridFS deadlines live on the bucket.
func (g *GridFSImageStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(g.db, options.GridFSBucket().SetName(imagesBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (g *GridFSImageStore) SaveImage(ctx context.Context, image domain.Image, content io.Reader) (domain.Image, error) {
	b, err := g.bucket(ctx)
	if err != nil {
		return domain.Image{}, err
	}

	counted := &countingReader{r: content}
	id, err := b.UploadFromStream(image.Name, counted,
		options.GridFSUpload().SetMetadata(bson.M{"contentType": image.ContentType}))
	if err != nil {
		return domain.Image{}, fmt.Errorf("upload image: %w", err)
	}

	image.ID = id.Hex()
	image.Size = counted.n
	if image.UploadedAt.IsZero() {
		image.UploadedAt = time.Now().UTC()
	}
	return image, nil
}

func (g *GridFSImageStore) OpenImage(ctx context.Context, id string) (domain.Image, io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Image{}, nil, domain.ErrImageNotFound
	}
	b, err := g.bucket(ctx)
	if err != nil {
		return domain.Image{}, nil, err
	}

	stream, err := b.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return domain.Image{}, nil, domain.ErrImageNotFound
	}
	if err != nil {
		return domain.Image{}, nil, fmt.Errorf("open image: %w", err)
	}

	file := stream.GetFile()
	image := domain.Image{
		ID:         id,
		Name:       file.Name,
		Size:       file.Length,
		UploadedAt: file.UploadDate,
	}
	if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
		image.ContentType = ct
	}
	return image, stream, nil
}

func (g *GridFSImageStore) DeleteImage(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrImageNotFound
	}
	b, err := g.bucket(ctx)
	if err != nil {
		return err
	}

	err = b.Delete(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return domain.ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
