// Package store persists saved GIFs and the save permission in bbolt.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/gifterm/internal/domain"
)

// Bucket names
var (
	bucketAssets   = []byte("assets")
	bucketBlobs    = []byte("blobs")
	bucketSettings = []byte("settings")
)

const keyAuthorization = "authorization"

// ErrAssetNotFound indicates no asset exists with the given ID
var ErrAssetNotFound = errors.New("asset not found")

// Library implements domain.MediaLibrary using BoltDB.
// With an empty path it keeps everything in memory.
type Library struct {
	db  *bolt.DB
	now func() time.Time

	mu  sync.RWMutex                 // Protects mem
	mem map[string]map[string][]byte // bucket -> key -> value, memory-only mode
}

// NewLibrary opens (or creates) the library database at path
func NewLibrary(path string) (*Library, error) {
	if path == "" {
		return &Library{
			now: time.Now,
			mem: map[string]map[string][]byte{
				string(bucketAssets):   {},
				string(bucketBlobs):    {},
				string(bucketSettings): {},
			},
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAssets, bucketBlobs, bucketSettings} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Library{db: db, now: time.Now}, nil
}

func (l *Library) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// === Permission ===

// AuthorizationStatus returns the stored answer to the save prompt
func (l *Library) AuthorizationStatus() domain.Authorization {
	data, ok := l.get(bucketSettings, keyAuthorization)
	if !ok {
		return domain.AuthorizationNotDetermined
	}
	switch string(data) {
	case "authorized":
		return domain.AuthorizationAuthorized
	case "denied":
		return domain.AuthorizationDenied
	default:
		return domain.AuthorizationNotDetermined
	}
}

// SetAuthorization records the user's answer
func (l *Library) SetAuthorization(granted bool) error {
	status := domain.AuthorizationDenied
	if granted {
		status = domain.AuthorizationAuthorized
	}
	return l.update(func(put putFunc, _ deleteFunc) error {
		return put(bucketSettings, keyAuthorization, []byte(status.String()))
	})
}

// === Assets ===

// SaveAsset stores data and its metadata in one transaction
func (l *Library) SaveAsset(asset domain.Asset, data []byte) (domain.Asset, error) {
	asset.ID = uuid.NewString()
	asset.Size = int64(len(data))
	asset.SavedAt = l.now().UTC()

	meta, err := json.Marshal(asset)
	if err != nil {
		return domain.Asset{}, err
	}

	err = l.update(func(put putFunc, _ deleteFunc) error {
		if err := put(bucketBlobs, asset.ID, data); err != nil {
			return err
		}
		return put(bucketAssets, asset.ID, meta)
	})
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to store asset: %w", err)
	}
	return asset, nil
}

// ListAssets returns all assets, newest first
func (l *Library) ListAssets() ([]domain.Asset, error) {
	var assets []domain.Asset
	err := l.each(bucketAssets, func(_ string, v []byte) error {
		var a domain.Asset
		if err := json.Unmarshal(v, &a); err != nil {
			return err
		}
		assets = append(assets, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].SavedAt.After(assets[j].SavedAt)
	})
	return assets, nil
}

// Asset returns the metadata for id
func (l *Library) Asset(id string) (domain.Asset, error) {
	data, ok := l.get(bucketAssets, id)
	if !ok {
		return domain.Asset{}, ErrAssetNotFound
	}
	var a domain.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// Blob returns the stored bytes for id
func (l *Library) Blob(id string) ([]byte, error) {
	data, ok := l.get(bucketBlobs, id)
	if !ok {
		return nil, ErrAssetNotFound
	}
	return data, nil
}

// DeleteAsset removes an asset and its bytes
func (l *Library) DeleteAsset(id string) error {
	if _, ok := l.get(bucketAssets, id); !ok {
		return ErrAssetNotFound
	}
	return l.update(func(_ putFunc, del deleteFunc) error {
		if err := del(bucketBlobs, id); err != nil {
			return err
		}
		return del(bucketAssets, id)
	})
}

// === Generic helpers ===

type (
	putFunc    func(bucket []byte, key string, value []byte) error
	deleteFunc func(bucket []byte, key string) error
)

func (l *Library) get(bucket []byte, key string) ([]byte, bool) {
	if l.db == nil {
		l.mu.RLock()
		defer l.mu.RUnlock()
		v, ok := l.mem[string(bucket)][key]
		if !ok {
			return nil, false
		}
		return append([]byte(nil), v...), true
	}

	var data []byte
	_ = l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, data != nil
}

// update runs fn atomically. In memory mode writes are staged and
// applied only when fn succeeds.
func (l *Library) update(fn func(put putFunc, del deleteFunc) error) error {
	if l.db == nil {
		type op struct {
			bucket, key string
			value       []byte
			remove      bool
		}
		var ops []op
		err := fn(
			func(bucket []byte, key string, value []byte) error {
				ops = append(ops, op{bucket: string(bucket), key: key, value: append([]byte(nil), value...)})
				return nil
			},
			func(bucket []byte, key string) error {
				ops = append(ops, op{bucket: string(bucket), key: key, remove: true})
				return nil
			},
		)
		if err != nil {
			return err
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		for _, o := range ops {
			if o.remove {
				delete(l.mem[o.bucket], o.key)
			} else {
				l.mem[o.bucket][o.key] = o.value
			}
		}
		return nil
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		return fn(
			func(bucket []byte, key string, value []byte) error {
				return tx.Bucket(bucket).Put([]byte(key), value)
			},
			func(bucket []byte, key string) error {
				return tx.Bucket(bucket).Delete([]byte(key))
			},
		)
	})
}

func (l *Library) each(bucket []byte, fn func(key string, value []byte) error) error {
	if l.db == nil {
		l.mu.RLock()
		defer l.mu.RUnlock()
		for k, v := range l.mem[string(bucket)] {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	}

	return l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

// IsMemoryOnly reports whether the library has no backing file
func (l *Library) IsMemoryOnly() bool {
	return l.db == nil
}

// Path returns the database file, or "" in memory-only mode
func (l *Library) Path() string {
	if l.db == nil {
		return ""
	}
	return l.db.Path()
}
