package stage

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Uploader pushes a staged local file to the remote landing stage and
// confirms the object is visible.
type Uploader interface {
	// Upload transfers the file at localPath to partition+fileName under
	// the stage prefix.
	Upload(ctx context.Context, localPath, partition, fileName string) error
	// Confirm lists the stage to check the uploaded object is visible.
	Confirm(ctx context.Context, partition, fileName string) (bool, error)
}

// GCSUploader stages files into a Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSUploader opens a storage client for the named bucket using ambient
// credentials.
func NewGCSUploader(ctx context.Context, bucketName string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: client.Bucket(bucketName)}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func (u *GCSUploader) Upload(ctx context.Context, localPath, partition, fileName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	obj := u.bucket.Object(StagePath(partition, fileName))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("upload %s: %w", obj.ObjectName(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", obj.ObjectName(), err)
	}
	return nil
}

func (u *GCSUploader) Confirm(ctx context.Context, partition, fileName string) (bool, error) {
	want := StagePath(partition, fileName)
	it := u.bucket.Objects(ctx, &storage.Query{Prefix: want})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("list stage %s: %w", want, err)
		}
		if attrs.Name == want {
			return true, nil
		}
	}
}

// NopUploader is used when no stage bucket is configured. Files stay on the
// local disk and every upload trivially confirms.
type NopUploader struct{}

func (NopUploader) Upload(ctx context.Context, localPath, partition, fileName string) error {
	return nil
}

func (NopUploader) Confirm(ctx context.Context, partition, fileName string) (bool, error) {
	return true, nil
}
