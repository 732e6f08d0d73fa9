// Package store keeps the authoritative tag state for a directory.
//
// Tags are keyed by image content hash so they survive renames. The state is
// persisted as a JSON sidecar next to the images. Every mutation marks the
// store stale and fires the change hook; only a successful load or save
// clears the stale flag.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/sirupsen/logrus"
)

// SidecarName is the tag store file inside the working directory.
const SidecarName = "tags.json"

// ErrMalformedSidecar is returned when the sidecar exists but is not valid JSON.
var ErrMalformedSidecar = errors.New("malformed tag sidecar")

// TagStore maps content hashes to tag sets.
type TagStore struct {
	dir      string
	name     string
	tags     map[string]models.TagSet
	stale    bool
	onChange func()
	logger   *logrus.Entry
}

// Option configures a TagStore.
type Option func(*TagStore)

// WithLogger sets the store logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *TagStore) {
		s.logger = logger
	}
}

// WithSidecarName overrides the sidecar filename.
func WithSidecarName(name string) Option {
	return func(s *TagStore) {
		s.name = name
	}
}

// sidecarTag is one tag as written in the sidecar. Type may be absent on read.
type sidecarTag struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// New creates a store for dir and loads its sidecar.
func New(dir string, opts ...Option) (*TagStore, error) {
	s := &TagStore{
		dir:  dir,
		name: SidecarName,
		tags: make(map[string]models.TagSet),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	s.logger = s.logger.WithField("component", "store")

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the sidecar path.
func (s *TagStore) Path() string {
	return filepath.Join(s.dir, s.name)
}

func (s *TagStore) load() error {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", s.Path()).Warn("Tag sidecar not found, starting empty")
			s.stale = false
			return nil
		}
		return fmt.Errorf("read sidecar: %w", err)
	}

	var raw map[string][]sidecarTag
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedSidecar, s.Path(), err)
	}

	tags := make(map[string]models.TagSet, len(raw))
	for hash, entries := range raw {
		set := make(models.TagSet, len(entries))
		for _, e := range entries {
			set.Add(models.NewTag(e.Value, e.Type))
		}
		tags[hash] = set
	}

	s.tags = tags
	s.stale = false
	s.logger.WithFields(logrus.Fields{
		"path":   s.Path(),
		"images": len(tags),
	}).Info("Loaded tags")
	return nil
}

// Save writes the sidecar atomically and clears the stale flag.
func (s *TagStore) Save() error {
	out := make(map[string][]sidecarTag, len(s.tags))
	for hash, set := range s.tags {
		entries := make([]sidecarTag, 0, set.Len())
		for _, t := range set.Slice() {
			entries = append(entries, sidecarTag{Value: t.Value, Type: t.Type})
		}
		out[hash] = entries
	}

	if err := writeJSON(s.Path(), out); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}

	s.stale = false
	s.logger.WithField("path", s.Path()).Info("Saved tags")
	return nil
}

// Stale reports whether the in-memory state differs from the sidecar.
func (s *TagStore) Stale() bool {
	return s.stale
}

// OnChange registers the change callback, replacing any previous one.
func (s *TagStore) OnChange(fn func()) {
	s.onChange = fn
}

func (s *TagStore) changed() {
	s.stale = true
	if s.onChange != nil {
		s.onChange()
	}
}

// AddTag inserts tag into the image's set.
func (s *TagStore) AddTag(img *models.Image, tag models.Tag) {
	set, ok := s.tags[img.Hash]
	if !ok {
		set = make(models.TagSet)
		s.tags[img.Hash] = set
	}
	set.Add(tag)
	s.changed()
}

// RemoveTags removes the given tags from the image's set. Tags that are not
// present are ignored; the store is marked stale regardless.
func (s *TagStore) RemoveTags(img *models.Image, tags []models.Tag) {
	if set, ok := s.tags[img.Hash]; ok {
		set.Remove(tags...)
	}
	s.changed()
}

// MergeTags unions the incoming tags into each image's set.
func (s *TagStore) MergeTags(incoming map[string][]models.Tag) {
	for hash, tags := range incoming {
		set, ok := s.tags[hash]
		if !ok {
			set = make(models.TagSet, len(tags))
			s.tags[hash] = set
		}
		set.Add(tags...)
	}
	s.changed()
}

// OverwriteTags replaces the whole set of each image in incoming. Images
// not in incoming keep their tags.
func (s *TagStore) OverwriteTags(incoming map[string][]models.Tag) {
	for hash, tags := range incoming {
		s.tags[hash] = models.NewTagSet(tags...)
	}
	s.changed()
}

// GetTags returns a copy of the image's tags, empty if none are recorded.
func (s *TagStore) GetTags(img *models.Image) models.TagSet {
	return s.TagsFor(img.Hash)
}

// TagsFor returns a copy of the tags recorded for hash.
func (s *TagStore) TagsFor(hash string) models.TagSet {
	set, ok := s.tags[hash]
	if !ok {
		return models.TagSet{}
	}
	return set.Clone()
}

// Len returns the number of images with an entry.
func (s *TagStore) Len() int {
	return len(s.tags)
}

// Hashes returns the recorded hashes in sorted order.
func (s *TagStore) Hashes() []string {
	hashes := make([]string, 0, len(s.tags))
	for h := range s.tags {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// writeJSON writes v to a temp file in the target directory and renames it
// over path, so a crash never leaves a truncated file behind.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
