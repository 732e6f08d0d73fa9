package models

import (
	"fmt"
	"sort"
)

// DefaultTagType is the type of any tag that carries no brackets in a filename.
const DefaultTagType = "default"

// Tag is a typed label attached to an image.
//
// Two tags are the same tag when Value and Type match. Order is only a
// rendering hint taken from the tagging scheme and is never part of identity.
type Tag struct {
	Value string `json:"value"`
	Type  string `json:"type"`
	Order int    `json:"-"`
}

// TagKey is the identity of a Tag.
type TagKey struct {
	Value string
	Type  string
}

// NewTag builds a tag, normalising an empty type to DefaultTagType.
func NewTag(value, tagType string) Tag {
	if tagType == "" {
		tagType = DefaultTagType
	}
	return Tag{Value: value, Type: tagType}
}

// Key returns the identity used for set membership.
func (t Tag) Key() TagKey {
	typ := t.Type
	if typ == "" {
		typ = DefaultTagType
	}
	return TagKey{Value: t.Value, Type: typ}
}

// Equal reports whether both tags have the same value and type.
func (t Tag) Equal(other Tag) bool {
	return t.Key() == other.Key()
}

// IsDefault reports whether the tag has no declared type.
func (t Tag) IsDefault() bool {
	return t.Key().Type == DefaultTagType
}

func (t Tag) String() string {
	if t.IsDefault() {
		return t.Value
	}
	return fmt.Sprintf("(%s) %s", t.Type, t.Value)
}

// TagSet holds at most one tag per (value, type).
type TagSet map[TagKey]Tag

// NewTagSet builds a set from tags, collapsing duplicates.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts tags. An equal tag already in the set is kept as is.
func (s TagSet) Add(tags ...Tag) {
	for _, t := range tags {
		k := t.Key()
		if _, ok := s[k]; ok {
			continue
		}
		t.Type = k.Type
		s[k] = t
	}
}

// Remove deletes tags equal to the given ones and reports how many were present.
func (s TagSet) Remove(tags ...Tag) int {
	removed := 0
	for _, t := range tags {
		k := t.Key()
		if _, ok := s[k]; ok {
			delete(s, k)
			removed++
		}
	}
	return removed
}

// Has reports whether an equal tag is in the set.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t.Key()]
	return ok
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s TagSet) Clone() TagSet {
	c := make(TagSet, len(s))
	for k, t := range s {
		c[k] = t
	}
	return c
}

// Equal reports whether both sets hold the same tags.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the tags sorted by type then value.
func (s TagSet) Slice() []Tag {
	tags := make([]Tag, 0, len(s))
	for _, t := range s {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Type != tags[j].Type {
			return tags[i].Type < tags[j].Type
		}
		return tags[i].Value < tags[j].Value
	})
	return tags
}
