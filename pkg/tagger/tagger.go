// Package tagger translates between filenames and typed tags.
//
// A filename stem is split on the scheme separator into tokens. A token
// wrapped in a declared type's brackets becomes a tag of that type; any
// other token becomes a tag of the default type. Rendering does the
// reverse, optionally ordering tags by the scheme's per-type order.
package tagger

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattsolo1/grove-imgtag/pkg/models"
)

// Tagger is a loaded scheme. It holds no other state.
type Tagger struct {
	scheme Scheme
	order  []string
}

// TypePattern describes how one type looks in a filename.
type TypePattern struct {
	Name    string
	Pattern string
	Order   int
}

// New validates the scheme and builds a tagger.
func New(scheme Scheme) (*Tagger, error) {
	if scheme.Separator == "" {
		return nil, fmt.Errorf("%w: separator must not be empty", ErrMalformedScheme)
	}
	if scheme.Types == nil {
		scheme.Types = map[string]TypeSpec{}
	}
	if _, ok := scheme.Types[models.DefaultTagType]; ok {
		return nil, fmt.Errorf("%w: '%s' is reserved", ErrMalformedScheme, models.DefaultTagType)
	}
	return &Tagger{scheme: scheme, order: matchOrder(scheme)}, nil
}

// Fallback returns a tagger with no declared types and the fallback separator.
func Fallback() *Tagger {
	return &Tagger{scheme: Scheme{Separator: FallbackSeparator, Types: map[string]TypeSpec{}}}
}

// Separator returns the token separator.
func (t *Tagger) Separator() string {
	return t.scheme.Separator
}

// Scheme returns the loaded scheme.
func (t *Tagger) Scheme() Scheme {
	return t.scheme
}

// ParseFilename parses a filename, dropping any directory and extension.
func (t *Tagger) ParseFilename(name string) []models.Tag {
	base := filepath.Base(name)
	return t.ParseStem(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseStem splits a stem into tags. Empty tokens are skipped.
func (t *Tagger) ParseStem(stem string) []models.Tag {
	var tags []models.Tag
	for _, token := range strings.Split(stem, t.scheme.Separator) {
		if token == "" {
			continue
		}
		tags = append(tags, t.ParseToken(token))
	}
	return tags
}

// ParseToken turns a single token into a tag. The first type in match order
// whose brackets wrap the token wins; overlapping bracket definitions are
// not detected.
func (t *Tagger) ParseToken(token string) models.Tag {
	for _, name := range t.order {
		spec := t.scheme.Types[name]
		if len(token) < len(spec.Open)+len(spec.Close) {
			continue
		}
		if strings.HasPrefix(token, spec.Open) && strings.HasSuffix(token, spec.Close) {
			value := token[len(spec.Open) : len(token)-len(spec.Close)]
			return models.Tag{Value: value, Type: name, Order: spec.Order}
		}
	}
	return models.NewTag(token, models.DefaultTagType)
}

// RenderFilename writes tags back into a stem.
//
// With sortTags set, tags are ordered by descending scheme order, keeping
// the given order among equals. parse(render(tags)) yields the same set only
// when no value contains the separator and no value starts or ends with
// another type's brackets; callers must not rely on it otherwise.
func (t *Tagger) RenderFilename(tags []models.Tag, sortTags bool) string {
	ordered := make([]models.Tag, len(tags))
	copy(ordered, tags)
	if sortTags {
		sort.SliceStable(ordered, func(i, j int) bool {
			return t.OrderOf(ordered[i].Type) > t.OrderOf(ordered[j].Type)
		})
	}

	tokens := make([]string, 0, len(ordered))
	for _, tag := range ordered {
		tokens = append(tokens, t.FormatTag(tag))
	}
	return strings.Join(tokens, t.scheme.Separator)
}

// FormatTag wraps the tag value in its type's brackets.
func (t *Tagger) FormatTag(tag models.Tag) string {
	spec, ok := t.scheme.Types[tag.Type]
	if !ok {
		return tag.Value
	}
	return spec.Open + tag.Value + spec.Close
}

// OrderOf returns the scheme order of a type; unknown types are 0.
func (t *Tagger) OrderOf(tagType string) int {
	return t.scheme.Types[tagType].Order
}

// WithOrder fills in each tag's Order from the scheme.
func (t *Tagger) WithOrder(tags []models.Tag) []models.Tag {
	out := make([]models.Tag, len(tags))
	for i, tag := range tags {
		tag.Order = t.OrderOf(tag.Type)
		out[i] = tag
	}
	return out
}

// ParseImages parses every image's filename, keyed by content hash.
func (t *Tagger) ParseImages(images []*models.Image) map[string][]models.Tag {
	parsed := make(map[string][]models.Tag, len(images))
	for _, img := range images {
		parsed[img.Hash] = t.ParseFilename(img.Path)
	}
	return parsed
}

// Summary lists the default type followed by declared types in match order.
func (t *Tagger) Summary() []TypePattern {
	summary := []TypePattern{{Name: models.DefaultTagType, Pattern: models.DefaultTagType}}
	for _, name := range t.order {
		spec := t.scheme.Types[name]
		summary = append(summary, TypePattern{
			Name:    name,
			Pattern: spec.Open + name + spec.Close,
			Order:   spec.Order,
		})
	}
	return summary
}
