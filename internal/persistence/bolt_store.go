package persistence

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
	"github.com/go-playground/validator/v10"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketDomains           = []byte("domains")
	bucketCategories        = []byte("categories")
	bucketContents          = []byte("contents")
	bucketGroups            = []byte("groups")
	bucketContentDomains    = []byte("content_domains")
	bucketContentCategories = []byte("content_categories")
	bucketProgressions      = []byte("progressions")
	bucketBookmarks         = []byte("bookmarks")
	bucketDownloads         = []byte("downloads")
	bucketRefresh           = []byte("refresh")

	allBuckets = [][]byte{
		bucketDomains, bucketCategories, bucketContents, bucketGroups,
		bucketContentDomains, bucketContentCategories, bucketProgressions,
		bucketBookmarks, bucketDownloads, bucketRefresh,
	}
)

// BoltStore implements Store on a single bbolt file.
type BoltStore struct {
	db       *bolt.DB
	validate *validator.Validate
	watchers *downloadWatchers
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (creating if needed) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
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

	logger.WithComponent("store").Debugf("opened durable store at %s", path)

	return &BoltStore{
		db:       db,
		validate: validator.New(),
		watchers: newDownloadWatchers(),
	}, nil
}

func (s *BoltStore) Close() error {
	s.watchers.closeAll()
	return s.db.Close()
}

// === Reference collections ===

func (s *BoltStore) DomainList() ([]model.Domain, error) {
	var domains []model.Domain
	if err := s.db.View(func(tx *bolt.Tx) error {
		return forEachJSON(tx.Bucket(bucketDomains), func(d model.Domain) { domains = append(domains, d) })
	}); err != nil {
		return nil, &model.LoadError{Op: "domains", Err: err}
	}
	sort.SliceStable(domains, func(i, j int) bool {
		if domains[i].Ordinal != domains[j].Ordinal {
			return domains[i].Ordinal < domains[j].Ordinal
		}
		return domains[i].ID < domains[j].ID
	})
	return domains, nil
}

// SyncDomains replaces the whole domain collection in one transaction.
func (s *BoltStore) SyncDomains(domains []model.Domain) error {
	for _, d := range domains {
		if err := s.validate.Struct(d); err != nil {
			return fmt.Errorf("invalid domain %d: %w", d.ID, err)
		}
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := resetBucket(tx, bucketDomains)
		if err != nil {
			return err
		}
		for _, d := range domains {
			if err := putJSON(b, itob(d.ID), d); err != nil {
				return err
			}
		}
		return nil
	})
}

// Domains returns the stored domains matching ids, in ids order. Unknown ids are skipped.
func (s *BoltStore) Domains(ids []int) ([]model.Domain, error) {
	domains := make([]model.Domain, 0, len(ids))
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDomains)
		for _, id := range ids {
			var d model.Domain
			ok, err := getJSON(b, itob(id), &d)
			if err != nil {
				return err
			}
			if ok {
				domains = append(domains, d)
			}
		}
		return nil
	}); err != nil {
		return nil, &model.LoadError{Op: "domains", Err: err}
	}
	return domains, nil
}

func (s *BoltStore) CategoryList() ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.View(func(tx *bolt.Tx) error {
		return forEachJSON(tx.Bucket(bucketCategories), func(c model.Category) { categories = append(categories, c) })
	}); err != nil {
		return nil, &model.LoadError{Op: "categories", Err: err}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Ordinal != categories[j].Ordinal {
			return categories[i].Ordinal < categories[j].Ordinal
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

// SyncCategories replaces the whole category collection in one transaction.
func (s *BoltStore) SyncCategories(categories []model.Category) error {
	for _, c := range categories {
		if err := s.validate.Struct(c); err != nil {
			return fmt.Errorf("invalid category %d: %w", c.ID, err)
		}
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := resetBucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		for _, c := range categories {
			if err := putJSON(b, itob(c.ID), c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Categories(ids []int) ([]model.Category, error) {
	categories := make([]model.Category, 0, len(ids))
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCategories)
		for _, id := range ids {
			var c model.Category
			ok, err := getJSON(b, itob(id), &c)
			if err != nil {
				return err
			}
			if ok {
				categories = append(categories, c)
			}
		}
		return nil
	}); err != nil {
		return nil, &model.LoadError{Op: "categories", Err: err}
	}
	return categories, nil
}

// === Refresh timestamps ===

func (s *BoltStore) LastRefreshed(key string) (time.Time, bool, error) {
	var (
		at    time.Time
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRefresh).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return at.UnmarshalBinary(v)
	})
	if err != nil {
		return time.Time{}, false, &model.LoadError{Op: "refresh timestamp " + key, Err: err}
	}
	return at, found, nil
}

func (s *BoltStore) SetLastRefreshed(key string, at time.Time) error {
	data, err := at.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRefresh).Put([]byte(key), data)
	})
}

// === Generic helpers ===

// itob encodes an id as a big-endian key so cursor order follows id order.
func itob(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

// pairKey builds a composite key whose first half can be used as a seek prefix.
func pairKey(a, b int) []byte {
	return append(itob(a), itob(b)...)
}

func putJSON(b *bolt.Bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bolt.Bucket, key []byte, dest any) (bool, error) {
	v := b.Get(key)
	if v == nil {
		return false, nil
	}
	if err := json.Unmarshal(v, dest); err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return true, nil
}

func forEachJSON[T any](b *bolt.Bucket, fn func(T)) error {
	return b.ForEach(func(_, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		fn(item)
		return nil
	})
}

// forEachPrefix visits the JSON values whose key starts with prefix.
func forEachPrefix[T any](b *bolt.Bucket, prefix []byte, fn func(T)) error {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		fn(item)
	}
	return nil
}

func deletePrefix(b *bolt.Bucket, prefix []byte) error {
	c := b.Cursor()
	var keys [][]byte
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix)
}

func resetBucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return nil, err
	}
	return tx.CreateBucket(name)
}
