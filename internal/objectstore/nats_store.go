// Package objectstore stores job text and rendered audio in NATS JetStream
// object store buckets.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Content types attached to uploaded objects.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeWAV  = "audio/wav"

	headerContentType = "Content-Type"
)

// ErrEmptyKey is returned for operations without an object key.
var ErrEmptyKey = errors.New("object key cannot be empty")

// NatsObjectStore implements core.ObjectStore on a single bucket.
type NatsObjectStore struct {
	bucket      string
	contentType string
	objects     jetstream.ObjectStore
}

// New creates bucketName, or binds to it when it already exists. Every
// object uploaded through the store is tagged with contentType.
func New(ctx context.Context, js jetstream.JetStream, bucketName, contentType string) (*NatsObjectStore, error) {
	objects, err := js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: "voicefx " + bucketName,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		objects, err = js.ObjectStore(ctx, bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		bucket:      bucketName,
		contentType: contentType,
		objects:     objects,
	}, nil
}

// Bucket returns the bucket name.
func (n *NatsObjectStore) Bucket() string {
	return n.bucket
}

// Download retrieves the object stored under key.
func (n *NatsObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	data, err := n.objects.GetBytes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	return data, nil
}

// Upload stores data under key, replacing any previous object.
func (n *NatsObjectStore) Upload(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	headers := nats.Header{}
	if n.contentType != "" {
		headers.Set(headerContentType, n.contentType)
	}

	_, err := n.objects.Put(ctx, jetstream.ObjectMeta{
		Name:    key,
		Headers: headers,
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// ContentType returns the content type recorded for key.
func (n *NatsObjectStore) ContentType(ctx context.Context, key string) (string, error) {
	info, err := n.objects.GetInfo(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to stat object '%s' in bucket '%s': %w", key, n.bucket, err)
	}

	return info.Headers.Get(headerContentType), nil
}
