package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattsolo1/grove-imgtag/pkg/imageset"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/mattsolo1/grove-imgtag/pkg/search"
	"github.com/mattsolo1/grove-imgtag/pkg/store"
	"github.com/mattsolo1/grove-imgtag/pkg/tagger"
	"github.com/sirupsen/logrus"
)

// Service ties the images, scheme, tag store and index of one working directory together.
type Service struct {
	Images *imageset.Collection
	Tagger *tagger.Tagger
	Store  *store.TagStore
	Index  *search.Index
	Config *Config
	Logger *logrus.Entry

	// SchemeErr holds the scheme load failure when the fallback tagger is in use.
	SchemeErr error
}

// Config holds service configuration
type Config struct {
	Dir       string
	Pattern   string
	DataDir   string
	SortTags  bool
	ThumbSize int
	// Sidecar overrides the tag store filename.
	Sidecar string
}

// New opens the working directory. A missing or malformed scheme degrades to
// the fallback tagger with a warning; a malformed tag sidecar is an error.
func New(config *Config, logger *logrus.Entry) (*Service, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	dir, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	config.Dir = dir

	s := &Service{
		Config: config,
		Logger: logger.WithField("dir", dir),
	}

	s.Tagger, err = tagger.Load(dir, logger.WithField("component", "tagger"))
	if err != nil {
		s.SchemeErr = err
		s.Logger.WithError(err).Warn("Invalid tagging scheme, using defaults")
		s.Tagger = tagger.Fallback()
	}

	s.Images, err = imageset.Open(dir, config.Pattern, imageset.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open images: %w", err)
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if config.Sidecar != "" {
		storeOpts = append(storeOpts, store.WithSidecarName(config.Sidecar))
	}
	s.Store, err = store.New(dir, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open tag store: %w", err)
	}

	if config.DataDir != "" {
		s.Index, err = search.NewIndex(filepath.Join(config.DataDir, "index.db"))
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	return s, nil
}

// Close releases the index.
func (s *Service) Close() error {
	if s.Index != nil {
		return s.Index.Close()
	}
	return nil
}

// ResolveImage finds an image by filename, path or hash prefix.
func (s *Service) ResolveImage(ref string) (*models.Image, error) {
	if s.Images.Len() == 0 {
		return nil, imageset.ErrNoImages
	}

	abs := ref
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.Config.Dir, filepath.Base(ref))
	}

	var byPrefix []*models.Image
	for _, img := range s.Images.Images() {
		if img.Path == abs || img.Name() == ref || img.Hash == ref {
			return img, nil
		}
		if len(ref) >= 5 && strings.HasPrefix(img.Hash, ref) {
			byPrefix = append(byPrefix, img)
		}
	}

	switch len(byPrefix) {
	case 1:
		return byPrefix[0], nil
	case 0:
		return nil, fmt.Errorf("image not found: %s", ref)
	default:
		return nil, fmt.Errorf("hash prefix %s matches %d images", ref, len(byPrefix))
	}
}

// ParseTags turns scheme-formatted arguments such as "[john]" into tags.
func (s *Service) ParseTags(args []string) []models.Tag {
	tags := make([]models.Tag, 0, len(args))
	for _, arg := range args {
		if arg == "" {
			continue
		}
		tags = append(tags, s.Tagger.ParseToken(arg))
	}
	return tags
}

// Tags returns the image's tags in filename order.
func (s *Service) Tags(img *models.Image) []models.Tag {
	tags := s.Tagger.WithOrder(s.Store.GetTags(img).Slice())
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Order > tags[j].Order
	})
	return tags
}

// AddTags adds tags to one image.
func (s *Service) AddTags(img *models.Image, tags []models.Tag) {
	for _, t := range tags {
		s.Store.AddTag(img, t)
	}
}

// RemoveTags removes tags from one image.
func (s *Service) RemoveTags(img *models.Image, tags []models.Tag) {
	s.Store.RemoveTags(img, tags)
}

// ImportFromFilenames parses every filename and merges the tags into the
// store, or replaces each image's tags when overwrite is set.
func (s *Service) ImportFromFilenames(overwrite bool) int {
	parsed := s.Tagger.ParseImages(s.Images.Images())
	if overwrite {
		s.Store.OverwriteTags(parsed)
	} else {
		s.Store.MergeTags(parsed)
	}

	s.Logger.WithFields(logrus.Fields{
		"images":    len(parsed),
		"overwrite": overwrite,
	}).Info("Imported tags from filenames")
	return len(parsed)
}

// Save persists the store and refreshes the index.
func (s *Service) Save() error {
	if err := s.Store.Save(); err != nil {
		return err
	}
	s.reindexQuietly()
	return nil
}

// Apply renames files from their tags. force is needed when the store was
// loaded unchanged in this process.
func (s *Service) Apply(dryRun, force bool) (*store.Report, error) {
	report, err := s.Store.ApplyReport(s.Images, s.Tagger, store.ApplyOptions{
		SortTags: s.Config.SortTags,
		DryRun:   dryRun,
		Force:    force,
	})
	if !dryRun {
		s.reindexQuietly()
	}
	return report, err
}

// Reindex rewrites the index rows of every image in the directory and
// drops rows for images that are no longer part of the collection.
func (s *Service) Reindex() (int, error) {
	if s.Index == nil {
		return 0, errors.New("index is disabled")
	}

	indexed, err := s.Index.Hashes(s.Config.Dir)
	if err != nil {
		return 0, fmt.Errorf("list indexed images: %w", err)
	}
	for _, hash := range indexed {
		if s.Images.Find(hash) != nil {
			continue
		}
		if err := s.Index.Remove(hash); err != nil {
			return 0, fmt.Errorf("remove %s from index: %w", hash, err)
		}
		s.Logger.WithField("hash", hash).Debug("Dropped image from index")
	}

	n := 0
	for _, img := range s.Images.Images() {
		if err := s.Index.IndexImage(img, s.Store.GetTags(img)); err != nil {
			return n, fmt.Errorf("index %s: %w", img.Name(), err)
		}
		n++
	}
	return n, nil
}

// Orphans returns the stored hashes with no matching image in the collection.
// Their tags are kept; the file may come back or sit outside the pattern.
func (s *Service) Orphans() []string {
	var orphans []string
	for _, hash := range s.Store.Hashes() {
		if s.Images.Find(hash) == nil {
			orphans = append(orphans, hash)
		}
	}
	return orphans
}

func (s *Service) reindexQuietly() {
	if s.Index == nil {
		return
	}
	if _, err := s.Reindex(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to update index: %v\n", err)
	}
}

// Search queries the index. Unless all is set, results are limited to this directory.
func (s *Service) Search(q search.Query, all bool) ([]*search.Result, error) {
	if s.Index == nil {
		return nil, errors.New("index is disabled")
	}
	if !all {
		q.Dir = s.Config.Dir
	}
	return s.Index.Search(q)
}

// Thumbnail renders a preview of img.
func (s *Service) Thumbnail(img *models.Image) ([]byte, error) {
	return imageset.Thumbnail(img, s.Config.ThumbSize)
}
