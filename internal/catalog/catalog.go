// Package catalog stores per-item metadata for the slideshow in a BoltDB
// database: tags in both directions, and display duration overrides.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName        = "stories.db"
	ItemsToTagsBucket = "ItemsToTags"
	TagsToItemsBucket = "TagsToItems"
	DurationsBucket   = "Durations"
)

var buckets = []string{ItemsToTagsBucket, TagsToItemsBucket, DurationsBucket}

// Validation errors.
var (
	ErrEmptyPath     = errors.New("item path cannot be empty")
	ErrEmptyTag      = errors.New("tag cannot be empty")
	ErrInvalidLength = errors.New("duration must be positive")
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Catalog is the metadata database.
type Catalog struct {
	db     *bolt.DB
	logger LoggerFunc
}

// TagWithCount holds a tag name and the number of items carrying it.
type TagWithCount struct {
	Name  string
	Count int
}

type durationRecord struct {
	Millis int64 `json:"ms"`
}

// DefaultDir returns the directory the catalog lives in when none is given.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "stories"), nil
}

// Open creates or opens the catalog in dbDir. An empty dbDir selects
// DefaultDir, falling back to the working directory.
func Open(dbDir string, logger LoggerFunc) (*Catalog, error) {
	if dbDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			log.Printf("Warning: could not get user config dir: %v. Using current dir.", err)
			dir = "."
		}
		dbDir = dir
	}
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory %s: %w", dbDir, err)
	}

	c := &Catalog{logger: logger}
	dbPath := filepath.Join(dbDir, dbFileName)
	c.logf("Using catalog at: %s", dbPath)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	c.db = db
	return c, nil
}

func (c *Catalog) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Close closes the database.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func decodeList(data []byte) ([]string, error) {
	if data == nil {
		return []string{}, nil
	}
	var list []string
	err := json.Unmarshal(data, &list)
	return list, err
}

// updateList adds or removes item in the JSON list stored under key. A
// list emptied by removal is deleted. It reports whether anything changed.
func updateList(tx *bolt.Tx, bucketName, key, item string, add bool) (bool, error) {
	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return false, fmt.Errorf("bucket %s not found", bucketName)
	}

	list, err := decodeList(bucket.Get([]byte(key)))
	if err != nil {
		return false, fmt.Errorf("decoding %s[%q]: %w", bucketName, key, err)
	}

	idx := -1
	for i, existing := range list {
		if existing == item {
			idx = i
			break
		}
	}

	switch {
	case add && idx < 0:
		list = append(list, item)
	case !add && idx >= 0:
		list = append(list[:idx], list[idx+1:]...)
	default:
		return false, nil
	}

	if len(list) == 0 {
		if err := bucket.Delete([]byte(key)); err != nil {
			return true, fmt.Errorf("deleting empty %s[%q]: %w", bucketName, key, err)
		}
		return true, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return true, fmt.Errorf("encoding %s[%q]: %w", bucketName, key, err)
	}
	if err := bucket.Put([]byte(key), data); err != nil {
		return true, fmt.Errorf("writing %s[%q]: %w", bucketName, key, err)
	}
	return true, nil
}

func link(tx *bolt.Tx, path, tag string, add bool) error {
	if _, err := updateList(tx, ItemsToTagsBucket, path, tag, add); err != nil {
		return fmt.Errorf("item->tags for '%s', tag '%s': %w", path, tag, err)
	}
	if _, err := updateList(tx, TagsToItemsBucket, tag, path, add); err != nil {
		return fmt.Errorf("tag->items for '%s', item '%s': %w", tag, path, err)
	}
	return nil
}

// AddTag associates a tag with an item path.
func (c *Catalog) AddTag(path, tag string) error {
	return c.AddTags(path, []string{tag})
}

// AddTags associates several tags with one item in a single transaction.
// Empty tags in the list are skipped.
func (c *Catalog) AddTags(path string, tags []string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(tags) == 0 {
		return ErrEmptyTag
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		added := 0
		for _, tag := range tags {
			if tag == "" {
				continue
			}
			if err := link(tx, path, tag, true); err != nil {
				return err
			}
			added++
		}
		if added == 0 {
			return ErrEmptyTag
		}
		return nil
	})
}

// RemoveTag disassociates a tag from an item path.
func (c *Catalog) RemoveTag(path, tag string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if tag == "" {
		return ErrEmptyTag
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return link(tx, path, tag, false)
	})
}

func (c *Catalog) getList(bucketName, key string) ([]string, error) {
	var list []string
	err := c.db.View(func(tx *bolt.Tx) error {
		var err error
		list, err = decodeList(tx.Bucket([]byte(bucketName)).Get([]byte(key)))
		if err != nil {
			return fmt.Errorf("decoding %s[%q]: %w", bucketName, key, err)
		}
		return nil
	})
	sort.Strings(list)
	return list, err
}

// GetTags returns the sorted tags of an item.
func (c *Catalog) GetTags(path string) ([]string, error) {
	return c.getList(ItemsToTagsBucket, path)
}

// GetItems returns the sorted item paths carrying a tag.
func (c *Catalog) GetItems(tag string) ([]string, error) {
	return c.getList(TagsToItemsBucket, tag)
}

// GetAllTags returns every tag with its item count, sorted by name.
func (c *Catalog) GetAllTags() ([]TagWithCount, error) {
	var all []TagWithCount
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(TagsToItemsBucket)).ForEach(func(k, v []byte) error {
			items, err := decodeList(v)
			if err != nil {
				c.logf("Error decoding item list for tag '%s', skipping: %v", k, err)
				return nil
			}
			all = append(all, TagWithCount{Name: string(k), Count: len(items)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// RemoveAllForItem drops every tag association and the duration override
// of an item.
func (c *Catalog) RemoveAllForItem(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		items := tx.Bucket([]byte(ItemsToTagsBucket))
		tags, err := decodeList(items.Get([]byte(path)))
		if err != nil {
			return fmt.Errorf("decoding tags for %s: %w", path, err)
		}
		for _, tag := range tags {
			if _, err := updateList(tx, TagsToItemsBucket, tag, path, false); err != nil {
				return fmt.Errorf("removing '%s' from tag '%s': %w", path, tag, err)
			}
		}
		if err := items.Delete([]byte(path)); err != nil {
			return fmt.Errorf("deleting item key %s: %w", path, err)
		}
		return tx.Bucket([]byte(DurationsBucket)).Delete([]byte(path))
	})
}

// DeleteOrphanedTagKey removes a tag key the caller knows to be orphaned.
func (c *Catalog) DeleteOrphanedTagKey(tag string) error {
	if tag == "" {
		return ErrEmptyTag
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(TagsToItemsBucket)).Delete([]byte(tag)); err != nil {
			return fmt.Errorf("failed to delete orphaned tag key '%s': %w", tag, err)
		}
		return nil
	})
}

// GetAllItemPaths returns every item path that has tags or a duration
// override, sorted.
func (c *Catalog) GetAllItemPaths() ([]string, error) {
	seen := make(map[string]struct{})
	err := c.db.View(func(tx *bolt.Tx) error {
		for _, name := range []string{ItemsToTagsBucket, DurationsBucket} {
			err := tx.Bucket([]byte(name)).ForEach(func(k, _ []byte) error {
				seen[string(k)] = struct{}{}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get all item paths: %w", err)
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// SetDuration stores a display duration override for an item.
func (c *Catalog) SetDuration(path string, d time.Duration) error {
	if path == "" {
		return ErrEmptyPath
	}
	if d <= 0 {
		return ErrInvalidLength
	}
	data, err := json.Marshal(durationRecord{Millis: d.Milliseconds()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(DurationsBucket)).Put([]byte(path), data)
	})
}

// GetDuration returns the override for an item, if any.
func (c *Catalog) GetDuration(path string) (time.Duration, bool, error) {
	var rec durationRecord
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(DurationsBucket)).Get([]byte(path))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return 0, false, fmt.Errorf("reading duration for %s: %w", path, err)
	}
	return time.Duration(rec.Millis) * time.Millisecond, found, nil
}

// ClearDuration removes the override for an item.
func (c *Catalog) ClearDuration(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(DurationsBucket)).Delete([]byte(path))
	})
}
