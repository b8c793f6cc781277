// Package storage persists uploaded diff-pair archives (tar+gzip blobs
// produced by pkg/server) behind a single content-addressed interface:
// a bbolt-backed store for local/single-node deployments, a
// minio-backed store for object-storage deployments, and an
// LRU-evicting cache (its sweep interval configurable, see
// NewCachedStorage) that sits in front of either as the permanent
// backing store. The store shapes follow the teacher's own
// bbolt/minio/cache split.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when the id does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage stores archived diff-pair blobs. Blobs are expected to be
// small (<32KB typical, <1MB enforced by the upload handler), hence no
// io.Reader support. Storage must not delete blobs on its own.
type Storage interface {
	// Get returns ErrNotFound if id does not exist.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put overwrites the blob at id if it already exists.
	Put(ctx context.Context, id string, data []byte) error
	// Del returns nil if id does not exist.
	Del(ctx context.Context, id string) error
}

// ListStorage adds enumeration to Storage, used to warm a cache on
// startup.
type ListStorage interface {
	Storage
	// List invokes cb for every stored blob. Callers must not retain b
	// past the callback.
	List(ctx context.Context, cb func(id string, b []byte) error) error
}

// MinioStorage backs Storage with an S3-compatible object store.
type MinioStorage struct {
	Client     *minio.Client
	BucketName string
}

var _ Storage = (*MinioStorage)(nil)

func (m *MinioStorage) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := m.Client.GetObject(ctx, m.BucketName, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (m *MinioStorage) Put(ctx context.Context, id string, data []byte) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, id,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (m *MinioStorage) Del(ctx context.Context, id string) error {
	return m.Client.RemoveObject(ctx, m.BucketName, id, minio.RemoveObjectOptions{})
}

// DBStorage backs Storage with a bbolt bucket.
type DBStorage struct {
	db         *bbolt.DB
	bucketName []byte
}

var _ ListStorage = (*DBStorage)(nil)

// NewDBStorage creates a DBStorage, ensuring bucketName exists. It
// panics if the bucket cannot be created.
func NewDBStorage(db *bbolt.DB, bucketName []byte) *DBStorage {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		panic(fmt.Errorf("storage: error creating bucket: %w", err))
	}
	return &DBStorage{db: db, bucketName: bucketName}
}

func (m *DBStorage) Get(ctx context.Context, id string) ([]byte, error) {
	var val []byte
	err := m.db.View(func(tx *bbolt.Tx) error {
		val = append(val, tx.Bucket(m.bucketName).Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, ErrNotFound
	}
	return val, nil
}

func (m *DBStorage) Put(ctx context.Context, id string, data []byte) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Put([]byte(id), data)
	})
}

func (m *DBStorage) Del(ctx context.Context, id string) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Delete([]byte(id))
	})
}

func (m *DBStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	return m.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).ForEach(func(k, v []byte) error {
			return cb(string(k), v)
		})
	})
}

type cachedObject struct {
	id          string
	size        uint64
	lastAccess  time.Time
	lastAccessM sync.Mutex
	ready       chan struct{}
}

func (c *cachedObject) access() {
	n := time.Now()
	if c.lastAccessM.TryLock() {
		c.lastAccess = n
		c.lastAccessM.Unlock()
	}
}

// CachedStorage fronts a permanent Storage with an LRU-evicting cache,
// so repeat reads of the same diff pair avoid round-tripping to the
// permanent store (e.g. minio).
type CachedStorage struct {
	cache         ListStorage
	permanent     Storage
	maxSize       uint64        // bytes; actual cache size may run slightly higher
	cleanInterval time.Duration // how often the background cleaner checks cacheSize

	sync.RWMutex
	objects  map[string]*cachedObject
	cleaning chan struct{}
}

// defaultCleanInterval is used when NewCachedStorage is given a
// non-positive cleanInterval. Diff-pair archives served by this module
// are small (server.maxBodySize caps an upload at 1MB), so a cache well
// above maxSize can hold thousands of pairs; checking once a second
// keeps eviction latency low without the cleaner goroutine dominating
// CPU time on an otherwise idle server.
const defaultCleanInterval = time.Second

// NewCachedStorage builds a CachedStorage, warming its object index
// from the cache's existing contents. cleanInterval controls how often
// the background evictor wakes to check cache size against maxSize; a
// non-positive value falls back to defaultCleanInterval. Deployments
// backing the cache with a slower disk, or needing tighter eviction
// latency under bursty upload traffic, can tune this directly instead
// of recompiling.
func NewCachedStorage(cache ListStorage, permanent Storage, maxSize uint64, cleanInterval time.Duration) (*CachedStorage, error) {
	if cleanInterval <= 0 {
		cleanInterval = defaultCleanInterval
	}
	objects := make(map[string]*cachedObject)
	ready := make(chan struct{})
	close(ready)
	err := cache.List(context.Background(), func(id string, b []byte) error {
		objects[id] = &cachedObject{id: id, size: uint64(len(b)), lastAccess: time.Now(), ready: ready}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c := &CachedStorage{
		cache: cache, permanent: permanent, maxSize: maxSize, cleanInterval: cleanInterval,
		objects: objects, cleaning: make(chan struct{}, 1),
	}
	go c.cleaner()
	return c, nil
}

var _ Storage = (*CachedStorage)(nil)

func (c *CachedStorage) cacheSize() uint64 {
	var sz uint64
	c.RLock()
	for _, obj := range c.objects {
		sz += obj.size
	}
	c.RUnlock()
	return sz
}

func (c *CachedStorage) evict(els []*cachedObject) {
	c.RLock()
	defer c.RUnlock()
	for _, el := range els {
		if _, ok := c.objects[el.id]; ok {
			continue // recreated in the meantime
		}
		if err := c.cache.Del(context.Background(), el.id); err != nil {
			log.Printf("storage: error deleting in cache eviction: %v", err)
		}
	}
}

func (c *CachedStorage) doClean() {
	c.Lock()
	defer c.Unlock()

	objects := make([]*cachedObject, 0, len(c.objects))
	var sz uint64
	for _, obj := range c.objects {
		objects = append(objects, obj)
		obj.lastAccessM.Lock()
		sz += obj.size
	}

	slices.SortFunc(objects, func(i, j *cachedObject) int {
		return i.lastAccess.Compare(j.lastAccess)
	})

	// Target 95% of maxSize, to give some leeway until the next doClean.
	collectTarget := (sz - c.maxSize) + c.maxSize/20
	var collected uint64
	del := objects

	for i, obj := range objects {
		if collected >= collectTarget {
			del = objects[:i]
			obj.lastAccessM.Unlock()
			break
		}
		collected += obj.size
		delete(c.objects, obj.id)
		obj.lastAccessM.Unlock()
	}

	go c.evict(del)
}

func (c *CachedStorage) cleaner() {
	for range c.cleaning {
		if c.cacheSize() >= c.maxSize {
			c.doClean()
		}
		time.Sleep(c.cleanInterval)
	}
}

func (c *CachedStorage) cacheHas(id string) bool {
	c.RLock()
	obj, ok := c.objects[id]
	c.RUnlock()
	if !ok {
		return false
	}
	<-obj.ready
	if obj.size == 0 {
		return false
	}
	obj.access()
	return true
}

func (c *CachedStorage) cacheStore(ctx context.Context, id string, b []byte, x *cachedObject) {
	if err := c.cache.Put(ctx, id, b); err != nil {
		log.Printf("storage: cache Put failed: %v", err)
		return
	}
	x.lastAccess = time.Now()
	x.size = uint64(len(b))

	select {
	case c.cleaning <- struct{}{}:
	default:
	}
}

func (c *CachedStorage) Get(ctx context.Context, id string) ([]byte, error) {
	if c.cacheHas(id) {
		return c.cache.Get(ctx, id)
	}

	co, ours := &cachedObject{id: id, ready: make(chan struct{})}, false
	c.Lock()
	if existing, ok := c.objects[id]; ok {
		co = existing
	} else {
		c.objects[id] = co
		ours = true
	}
	c.Unlock()

	if !ours {
		<-co.ready
		if co.size > 0 {
			return c.cache.Get(ctx, id)
		}
		return nil, ErrNotFound
	}

	defer close(co.ready)
	b, err := c.permanent.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cacheStore(ctx, id, b, co)
	return b, nil
}

func (c *CachedStorage) Put(ctx context.Context, id string, data []byte) error {
	if err := c.permanent.Put(ctx, id, data); err != nil {
		return err
	}
	co := &cachedObject{id: id, ready: make(chan struct{})}
	c.Lock()
	c.objects[id] = co
	c.Unlock()

	defer close(co.ready)
	c.cacheStore(ctx, id, data, co)
	return nil
}

func (c *CachedStorage) Del(ctx context.Context, id string) error {
	if err := c.permanent.Del(ctx, id); err != nil {
		return err
	}

	c.Lock()
	_, exist := c.objects[id]
	delete(c.objects, id)
	c.Unlock()
	if !exist {
		return nil
	}

	if err := c.cache.Del(ctx, id); err != nil {
		log.Printf("storage: cache Del failed: %v", err)
	}
	return nil
}
