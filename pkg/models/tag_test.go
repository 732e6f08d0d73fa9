package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagIdentity(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Tag
		equal bool
	}{
		{"same value and type", NewTag("john", "person"), NewTag("john", "person"), true},
		{"order is ignored", Tag{Value: "john", Type: "person", Order: 3}, NewTag("john", "person"), true},
		{"empty type is default", Tag{Value: "sunset"}, NewTag("sunset", DefaultTagType), true},
		{"different type", NewTag("john", "person"), NewTag("john", DefaultTagType), false},
		{"different value", NewTag("john", "person"), NewTag("jane", "person"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.a.Key() == tt.b.Key())
		})
	}
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "sunset", NewTag("sunset", "").String())
	assert.Equal(t, "(person) john", NewTag("john", "person").String())
}

func TestTagSet(t *testing.T) {
	set := NewTagSet(NewTag("sunset", ""), NewTag("john", "person"), NewTag("sunset", DefaultTagType))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has(Tag{Value: "sunset"}))

	set.Add(Tag{Value: "beach"})
	assert.Equal(t, 3, set.Len())
	for _, tag := range set.Slice() {
		assert.NotEmpty(t, tag.Type, "types are normalised on insert")
	}

	removed := set.Remove(NewTag("john", "person"), NewTag("absent", ""))
	assert.Equal(t, 1, removed)
	assert.False(t, set.Has(NewTag("john", "person")))

	clone := set.Clone()
	clone.Add(NewTag("extra", ""))
	assert.Equal(t, 2, set.Len(), "clone must not share storage")
	assert.False(t, set.Equal(clone))
	assert.True(t, set.Equal(NewTagSet(NewTag("beach", ""), NewTag("sunset", ""))))
}

func TestTagSetSliceOrder(t *testing.T) {
	set := NewTagSet(
		NewTag("zoe", "person"),
		NewTag("sunset", ""),
		NewTag("adam", "person"),
		NewTag("beach", ""),
	)

	assert.Equal(t, []Tag{
		NewTag("beach", DefaultTagType),
		NewTag("sunset", DefaultTagType),
		NewTag("adam", "person"),
		NewTag("zoe", "person"),
	}, set.Slice())
}

func TestNewImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	img, err := NewImage(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", img.Hash)
	assert.Equal(t, "5d414", img.ShortHash())
	assert.Equal(t, "a.png", img.Name())

	// Same bytes under a different name hash the same.
	other := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0644))
	img2, err := NewImage(other)
	require.NoError(t, err)
	assert.Equal(t, img.Hash, img2.Hash)

	_, err = NewImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
