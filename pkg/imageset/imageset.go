// Package imageset enumerates the images of one directory and renames them.
package imageset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/sirupsen/logrus"
)

// SupportedExtensions are matched case-insensitively, without the dot.
var SupportedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// UntaggedPrefix names files whose tag set renders to an empty stem.
const UntaggedPrefix = "untagged-"

var (
	// ErrNoImages is returned by navigation when the collection is empty.
	ErrNoImages = errors.New("no images")
	// ErrInvalidStem is returned for stems containing path elements.
	ErrInvalidStem = errors.New("invalid filename stem")
)

// Collection is the ordered set of images in a directory plus a cursor.
type Collection struct {
	dir    string
	images []*models.Image
	index  int
	logger *logrus.Entry
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// Open hashes every supported image in dir. pattern, when not empty, is a
// regular expression that must match at the start of the filename.
func Open(dir, pattern string, opts ...Option) (*Collection, error) {
	c := &Collection{dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.New())
	}
	c.logger = c.logger.WithField("component", "imageset")

	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !IsSupported(name) {
			continue
		}
		if re != nil && !re.MatchString(name) {
			continue
		}

		img, err := models.NewImage(filepath.Join(dir, name))
		if err != nil {
			c.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable image")
			continue
		}
		c.images = append(c.images, img)
	}

	sort.Slice(c.images, func(i, j int) bool {
		return c.images[i].Path < c.images[j].Path
	})

	c.logger.WithFields(logrus.Fields{"dir": dir, "images": len(c.images)}).Debug("Opened image collection")
	return c, nil
}

// IsSupported reports whether the filename has a supported image extension.
func IsSupported(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Dir returns the collection directory.
func (c *Collection) Dir() string {
	return c.dir
}

// Images returns the images in collection order.
func (c *Collection) Images() []*models.Image {
	return c.images
}

// Len returns the number of images.
func (c *Collection) Len() int {
	return len(c.images)
}

// Index returns the cursor position.
func (c *Collection) Index() int {
	return c.index
}

// Current returns the image under the cursor.
func (c *Collection) Current() (*models.Image, error) {
	if len(c.images) == 0 {
		return nil, ErrNoImages
	}
	return c.images[c.index], nil
}

// Next moves the cursor forward, wrapping at the end.
func (c *Collection) Next() (*models.Image, error) {
	return c.move(1)
}

// Prev moves the cursor back, wrapping at the start.
func (c *Collection) Prev() (*models.Image, error) {
	return c.move(-1)
}

// Seek moves the cursor to the image with the given path or hash.
func (c *Collection) Seek(key string) (*models.Image, error) {
	if len(c.images) == 0 {
		return nil, ErrNoImages
	}
	for i, img := range c.images {
		if img.Hash == key || img.Path == key || img.Name() == key {
			c.index = i
			return img, nil
		}
	}
	return nil, fmt.Errorf("image not found: %s", key)
}

func (c *Collection) move(step int) (*models.Image, error) {
	n := len(c.images)
	if n == 0 {
		return nil, ErrNoImages
	}
	c.index = ((c.index+step)%n + n) % n
	return c.images[c.index], nil
}

// Find returns the image with the given content hash, or nil.
func (c *Collection) Find(hash string) *models.Image {
	for _, img := range c.images {
		if img.Hash == hash {
			return img
		}
	}
	return nil
}

// ValidateStem rejects stems that would place the file outside its
// directory. A rendered stem is a single path element.
func ValidateStem(stem string) error {
	if stem == "." || stem == ".." ||
		strings.ContainsRune(stem, '/') ||
		strings.ContainsRune(stem, os.PathSeparator) ||
		filepath.Base(stem) != stem {
		return fmt.Errorf("%w: %q", ErrInvalidStem, stem)
	}
	return nil
}

// TargetPath returns the path Rename would move img to. An empty stem
// becomes "untagged-<hash>". If another file already holds the target name,
// a numeric suffix is added before the extension.
//
// planned overlays the disk when previewing several renames: true marks a
// path claimed by an earlier rename, false a path an earlier rename vacated.
// It may be nil.
func (c *Collection) TargetPath(img *models.Image, stem string, planned map[string]bool) (string, error) {
	if stem == "" {
		stem = UntaggedPrefix + img.Hash
	}
	if err := ValidateStem(stem); err != nil {
		return img.Path, err
	}

	taken := func(path string) bool {
		if claimed, ok := planned[path]; ok {
			return claimed
		}
		_, err := os.Stat(path)
		return !os.IsNotExist(err)
	}

	dir := filepath.Dir(img.Path)
	ext := filepath.Ext(img.Path)
	target := filepath.Join(dir, stem+ext)
	if target == img.Path || !taken(target) {
		return target, nil
	}

	for i := 2; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if candidate == img.Path || !taken(candidate) {
			return candidate, nil
		}
	}
}

// Rename moves the image file to TargetPath and updates img.Path. The
// original extension is kept.
func (c *Collection) Rename(img *models.Image, stem string) (string, error) {
	newPath, err := c.TargetPath(img, stem, nil)
	if err != nil {
		return img.Path, fmt.Errorf("rename %s: %w", filepath.Base(img.Path), err)
	}
	if newPath == img.Path {
		return img.Path, nil
	}

	if err := os.Rename(img.Path, newPath); err != nil {
		return img.Path, fmt.Errorf("rename %s: %w", filepath.Base(img.Path), err)
	}

	c.logger.WithFields(logrus.Fields{
		"old": img.Path,
		"new": newPath,
	}).Debug("Renamed image")
	img.Path = newPath
	return newPath, nil
}
