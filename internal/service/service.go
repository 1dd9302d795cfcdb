// Package service holds the stories business logic shared by the GUI, the
// CLI and the remote control server.
package service

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"stories/internal/catalog"
	"stories/internal/scan"
)

// Store abstracts the catalog for easier testing and decoupling.
type Store interface {
	AddTag(path, tag string) error
	AddTags(path string, tags []string) error
	RemoveTag(path, tag string) error
	GetTags(path string) ([]string, error)
	GetItems(tag string) ([]string, error)
	GetAllTags() ([]catalog.TagWithCount, error)
	RemoveAllForItem(path string) error
	DeleteOrphanedTagKey(tag string) error
	GetAllItemPaths() ([]string, error)
	SetDuration(path string, d time.Duration) error
	GetDuration(path string) (time.Duration, bool, error)
	ClearDuration(path string) error
	Close() error
}

// FileScanner abstracts file scanning.
type FileScanner interface {
	Run(dir string, logger scan.LoggerFunc) <-chan scan.FileItem
}

// Service is the main entry point for business logic.
type Service struct {
	Catalog Store
	Scanner FileScanner
	Images  *ImageService
	Logger  func(string)
}

// NewService constructs a new Service.
func NewService(store Store, scanner FileScanner, logger func(string)) *Service {
	if scanner == nil {
		scanner = scan.DirScanner{}
	}
	return &Service{
		Catalog: store,
		Scanner: scanner,
		Images:  NewImageService(),
		Logger:  logger,
	}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

// AddTagsToItem adds one or more tags to an item.
func (s *Service) AddTagsToItem(path string, tags []string) error {
	if path == "" || len(tags) == 0 {
		return errors.New("item path and tags required")
	}
	return s.Catalog.AddTags(path, tags)
}

// RemoveTagsFromItem removes one or more tags from an item.
func (s *Service) RemoveTagsFromItem(path string, tags []string) error {
	if path == "" || len(tags) == 0 {
		return errors.New("item path and tags required")
	}
	for _, tag := range tags {
		if err := s.Catalog.RemoveTag(path, tag); err != nil {
			return err
		}
	}
	return nil
}

// ListTagsForItem returns all tags for a given item.
func (s *Service) ListTagsForItem(path string) ([]string, error) {
	return s.Catalog.GetTags(path)
}

// ListItemsForTag returns all items for a given tag.
func (s *Service) ListItemsForTag(tag string) ([]string, error) {
	return s.Catalog.GetItems(tag)
}

// ListAllTags returns all tags with their item counts.
func (s *Service) ListAllTags() ([]catalog.TagWithCount, error) {
	return s.Catalog.GetAllTags()
}

// ReplaceTag replaces oldTag with newTag across all items. It keeps going
// after a failure and returns the first error.
func (s *Service) ReplaceTag(oldTag, newTag string) error {
	if oldTag == "" || newTag == "" || oldTag == newTag {
		return errors.New("invalid tags")
	}
	items, err := s.Catalog.GetItems(oldTag)
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range items {
		if err := s.Catalog.RemoveTag(item, oldTag); err != nil {
			s.logf("ReplaceTag: failed to remove '%s' from '%s': %v", oldTag, item, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("removing old tag '%s' from '%s': %w", oldTag, item, err)
			}
		}
		if err := s.Catalog.AddTag(item, newTag); err != nil {
			s.logf("ReplaceTag: failed to add '%s' to '%s': %v", newTag, item, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("adding new tag '%s' to '%s': %w", newTag, item, err)
			}
		}
	}
	if err := s.Catalog.DeleteOrphanedTagKey(oldTag); err != nil {
		s.logf("ReplaceTag: failed to delete '%s': %v", oldTag, err)
	}
	return firstErr
}

// CleanDatabase drops metadata of files that no longer exist and deletes
// orphaned tags.
func (s *Service) CleanDatabase() (filesCleaned, tagsCleaned int, err error) {
	paths, err := s.Catalog.GetAllItemPaths()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get item paths: %w", err)
	}
	for _, path := range paths {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if err := s.Catalog.RemoveAllForItem(path); err != nil {
				s.logf("Error cleaning metadata for missing file %s: %v", path, err)
			} else {
				filesCleaned++
			}
		}
	}

	allTags, err := s.Catalog.GetAllTags()
	if err != nil {
		return filesCleaned, 0, fmt.Errorf("failed to get all tags: %w", err)
	}
	for _, tag := range allTags {
		if tag.Count == 0 {
			if err := s.Catalog.DeleteOrphanedTagKey(tag.Name); err != nil {
				s.logf("Error removing orphaned tag '%s': %v", tag.Name, err)
			} else {
				tagsCleaned++
			}
		}
	}
	return filesCleaned, tagsCleaned, nil
}

// SetItemDuration stores how long an item stays on screen.
func (s *Service) SetItemDuration(path string, d time.Duration) error {
	return s.Catalog.SetDuration(path, d)
}

// ClearItemDuration removes an item's duration override.
func (s *Service) ClearItemDuration(path string) error {
	return s.Catalog.ClearDuration(path)
}

// ItemDuration returns an item's duration override, if any.
func (s *Service) ItemDuration(path string) (time.Duration, bool, error) {
	return s.Catalog.GetDuration(path)
}
