package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/assetorigin/internal/common"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in a map. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: put %s: %w", common.ErrStoreUnavailable, key, err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", common.ErrStoreUnavailable, key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("%w: put %s: short body %d of %d bytes", common.ErrStoreUnavailable, key, len(data), size)
	}

	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", common.ErrStoreUnavailable, key, err)
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, common.ErrorNotFound)
	}

	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

// Copy shares the underlying slice; stored blobs are never written in place.
func (m *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: copy %s: %w", common.ErrStoreUnavailable, srcKey, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("copy %s: %w", srcKey, common.ErrorNotFound)
	}
	m.objects[dstKey] = obj
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len reports the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
