package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// BackendObjectStore is the Backend() name of ObjectStore.
const BackendObjectStore = "object-store"

// ErrBlobNotFound is returned by a BlobClient for a missing key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobClient reads and writes whole objects.
type BlobClient interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, body []byte) error
}

// ObjectStore keeps one JSON object per date key, overwritten on Put.
type ObjectStore struct {
	client BlobClient
	prefix string
}

var _ ports.BriefingStore = (*ObjectStore)(nil)

// NewObjectStore wraps client; prefix is prepended to every key.
func NewObjectStore(client BlobClient, prefix string) *ObjectStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ObjectStore{client: client, prefix: prefix}
}

// Backend implements ports.BriefingStore.
func (s *ObjectStore) Backend() string { return BackendObjectStore }

// Key returns the object key for dateKey.
func (s *ObjectStore) Key(dateKey string) string {
	return s.prefix + dateKey + ".json"
}

// Put writes doc under dateKey, replacing any previous object.
func (s *ObjectStore) Put(ctx context.Context, dateKey string, doc domain.BriefingDocument) error {
	data, err := encodeDocument(BackendObjectStore, doc)
	if err != nil {
		return err
	}
	if err := s.client.PutObject(ctx, s.Key(dateKey), data); err != nil {
		return &domain.StorageError{Kind: domain.StorageWrite, Backend: BackendObjectStore, Cause: err}
	}
	return nil
}

// Get reads the object for dateKey.
func (s *ObjectStore) Get(ctx context.Context, dateKey string) (domain.BriefingDocument, error) {
	data, err := s.client.GetObject(ctx, s.Key(dateKey))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return domain.BriefingDocument{}, domain.ErrNotFound
		}
		return domain.BriefingDocument{}, &domain.StorageError{Kind: domain.StorageRead, Backend: BackendObjectStore, Cause: fmt.Errorf("get %s: %w", s.Key(dateKey), err)}
	}
	return decodeDocument(BackendObjectStore, dateKey, data)
}
