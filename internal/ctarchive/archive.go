// Package ctarchive archives the full element bytes behind an owning
// tree's leaves in S3-compatible object storage, for elements too
// large to keep comfortably in Postgres alongside the leaf index.
package ctarchive

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kindlyrobotics/ctlog/merkle"
)

// Archive wraps a MinIO client scoped to a single bucket.
type Archive struct {
	client *minio.Client
	bucket string
}

// New connects to the S3-compatible endpoint configured by
// S3_ENDPOINT/S3_ACCESS_KEY/S3_SECRET_KEY/S3_BUCKET/S3_USE_SSL and
// ensures the bucket exists.
func New(ctx context.Context) (*Archive, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	accessKey := os.Getenv("S3_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	secretKey := os.Getenv("S3_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin"
	}
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		bucket = "ctlog-elements"
	}
	useSSL := os.Getenv("S3_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("ctarchive: failed to create S3 client: %w", err)
	}

	a := &Archive{client: client, bucket: bucket}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("ctarchive: bucket check: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("ctarchive: make bucket: %w", err)
		}
	}
	return nil
}

// objectKey derives a deterministic object key from a leaf's element
// hash, so re-archiving the same element is naturally idempotent.
func objectKey(elementHash merkle.Hash) string {
	return "elements/" + elementHash.String()
}

// Put stores elem's raw bytes under a key derived from its element
// hash.
func (a *Archive) Put(ctx context.Context, elementHash merkle.Hash, elem []byte) error {
	_, err := a.client.PutObject(ctx, a.bucket, objectKey(elementHash),
		bytes.NewReader(elem), int64(len(elem)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("ctarchive: put object: %w", err)
	}
	return nil
}

// Get retrieves the raw element bytes previously archived under
// elementHash.
func (a *Archive) Get(ctx context.Context, elementHash merkle.Hash) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectKey(elementHash), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("ctarchive: get object: %w", err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("ctarchive: read object: %w", err)
	}
	return buf.Bytes(), nil
}
