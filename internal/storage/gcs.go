package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCS stores blobs in a Google Cloud Storage bucket and makes each object
// publicly readable, mirroring the URLs the mobile client renders directly.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	obj := g.client.Bucket(g.bucket).Object(object)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("make %s public: %w", object, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, object), nil
}

func (g *GCS) Delete(ctx context.Context, object string) error {
	if err := g.client.Bucket(g.bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}
