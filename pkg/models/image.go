package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Image is one image file on disk.
//
// Hash is computed once from the full byte stream when the image is
// discovered and is the only stable key for its tags. Path changes when the
// file is renamed; Hash does not, even if the bytes change later.
type Image struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// NewImage hashes the file at path.
func NewImage(path string) (*Image, error) {
	hash, err := HashFile(path)
	if err != nil {
		return nil, err
	}
	return &Image{Path: path, Hash: hash}, nil
}

// HashFile returns the hex md5 digest of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Name returns the base filename.
func (i *Image) Name() string {
	return filepath.Base(i.Path)
}

// ShortHash returns the first five characters of the hash.
func (i *Image) ShortHash() string {
	if len(i.Hash) <= 5 {
		return i.Hash
	}
	return i.Hash[:5]
}

func (i *Image) String() string {
	return fmt.Sprintf("%s %s", i.Path, i.ShortHash())
}
