package pagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ersonp/provpack/internal/domain/ports"
)

const gcsTimeout = 30 * time.Second

// GCSStore reads page images from a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store reading gs://bucket/prefix/. Credentials come
// from the environment unless opts say otherwise.
func NewGCSStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// PageBytes returns the image of one page.
func (s *GCSStore) PageBytes(ctx context.Context, packetID string, page int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	bkt := s.client.Bucket(s.bucket)
	for _, ext := range imageExts {
		key := s.objectKey(packetID, pageBase(page)+"."+ext)
		r, err := bkt.Object(key).NewReader(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("opening gs://%s/%s: %w", s.bucket, key, err)
		}
		data, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("reading gs://%s/%s: %w", s.bucket, key, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("packet %s page %d: %w", packetID, page, ports.ErrPageNotFound)
}

// ListPages returns the page numbers present for a packet.
func (s *GCSStore) ListPages(ctx context.Context, packetID string) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	dir := s.objectKey(packetID, "")
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: dir})
	names := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", s.bucket, dir, err)
		}
		names = append(names, path.Base(attrs.Name))
	}
	return collectPages(names), nil
}

// objectKey joins prefix, packet directory and file name. An empty name
// yields the packet directory with a trailing slash.
func (s *GCSStore) objectKey(packetID, name string) string {
	key := path.Join(s.prefix, packetDir(packetID))
	if name == "" {
		return key + "/"
	}
	return key + "/" + name
}
