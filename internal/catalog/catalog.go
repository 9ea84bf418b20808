// Package catalog indexes the slab instances a program has created.
//
// The catalog is a bolt database with a single bucket keyed by the 32-byte
// instance address. Values are JSON entries. The slab files stay the source
// of truth for content; the catalog only answers "what exists" without
// scanning the data directory.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/joshuapare/slabkit/pkg/types"
)

var bucketName = []byte("slabs")

// Entry describes one instance.
type Entry struct {
	Address     types.Key `json:"address"`
	Owner       types.Key `json:"owner"`
	Tag         string    `json:"tag"`
	Kind        string    `json:"kind"`
	Capacity    int64     `json:"capacity"`
	Created     int64     `json:"created,omitempty"`
	Updated     int64     `json:"updated,omitempty"`
	Invocations uint64    `json:"invocations,omitempty"`
}

// CreatedAt returns the creation time.
func (e Entry) CreatedAt() time.Time { return time.Unix(0, e.Created) }

// UpdatedAt returns the time of the last committed invocation.
func (e Entry) UpdatedAt() time.Time { return time.Unix(0, e.Updated) }

// Catalog is an open catalog database. It is safe for concurrent use; bolt
// serializes writers.
type Catalog struct {
	db   *bolt.DB
	path string
	now  func() time.Time
}

// Open opens or creates the catalog at path. It waits up to a second for
// another process holding the file lock.
func Open(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0640, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	c := &Catalog{db: db, path: path, now: time.Now}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init %s: %w", path, err)
	}
	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string { return c.path }

// Close releases the database.
func (c *Catalog) Close() error { return c.db.Close() }

// Put records a new instance. An existing entry at the same address fails
// with types.ErrExists.
func (c *Catalog) Put(e Entry) error {
	now := c.now().UnixNano()
	if e.Created == 0 {
		e.Created = now
	}
	if e.Updated == 0 {
		e.Updated = e.Created
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get(e.Address[:]) != nil {
			return fmt.Errorf("%w: catalog entry %s", types.ErrExists, e.Address)
		}
		return put(b, e)
	})
}

// Get returns the entry at address, or types.ErrNotFound.
func (c *Catalog) Get(address types.Key) (Entry, error) {
	var e Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(address[:])
		if v == nil {
			return fmt.Errorf("%w: catalog entry %s", types.ErrNotFound, address)
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Touch records a committed invocation against address with the instance's
// current capacity. A missing entry is recreated from fallback so a catalog
// lost after files were written heals itself.
func (c *Catalog) Touch(address types.Key, capacity int64, fallback Entry) error {
	now := c.now().UnixNano()
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		e := fallback
		e.Address = address
		if v := b.Get(address[:]); v != nil {
			e = Entry{}
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: catalog entry %s: %v", types.ErrCorrupt, address, err)
			}
		} else if e.Created == 0 {
			e.Created = now
		}
		e.Capacity = capacity
		e.Updated = now
		e.Invocations++
		return put(b, e)
	})
}

// Delete removes the entry at address. Deleting a missing entry is a no-op.
func (c *Catalog) Delete(address types.Key) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(address[:])
	})
}

// List returns every entry in address order. A non-empty tag filters by tag.
func (c *Catalog) List(tag string) ([]Entry, error) {
	var out []Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: catalog entry %x: %v", types.ErrCorrupt, k, err)
			}
			if tag == "" || e.Tag == tag {
				out = append(out, e)
			}
			return nil
		})
	})
	return out, err
}

func put(b *bolt.Bucket, e Entry) error {
	v, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.Put(e.Address[:], v)
}
