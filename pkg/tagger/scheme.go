package tagger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FallbackSeparator is used when no scheme file exists or it omits the separator.
const FallbackSeparator = "_"

// SchemeFiles are the names looked up in a working directory, in order.
var SchemeFiles = []string{"config.yaml", "imgtag.yaml"}

// ErrMalformedScheme is returned when a scheme file exists but cannot be used.
var ErrMalformedScheme = errors.New("malformed tagging scheme")

// TypeSpec describes how one tag type is written in a filename.
type TypeSpec struct {
	Open  string
	Close string
	Order int
}

// Scheme is the declarative filename tagging scheme.
type Scheme struct {
	Separator string
	Types     map[string]TypeSpec
	// Priority lists type names that are tried first when a token could
	// match more than one type.
	Priority []string
}

// schemeFile mirrors the on-disk YAML layout.
type schemeFile struct {
	Separator *string                `yaml:"tag separator"`
	Types     map[string]interface{} `yaml:"tag types"`
	Priority  []string               `yaml:"type priority"`
}

// typeEntry is the long form of a tag type entry.
type typeEntry struct {
	Brackets []string `mapstructure:"brackets"`
	Order    int      `mapstructure:"order"`
}

// Load reads the scheme file from dir.
//
// A missing file is not an error: a warning is logged and the fallback
// tagger is returned. A file that exists but cannot be parsed returns an
// error wrapping ErrMalformedScheme.
func Load(dir string, logger *logrus.Entry) (*Tagger, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	path := findSchemeFile(dir)
	if path == "" {
		logger.WithField("dir", dir).Warn("tagging scheme not found, no tag types will be recognised")
		return Fallback(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme %s: %w", path, err)
	}

	scheme, err := ParseScheme(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t, err := New(scheme)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":  path,
		"types": len(scheme.Types),
	}).Debug("Loaded tagging scheme")
	return t, nil
}

// ParseScheme decodes a YAML scheme document.
func ParseScheme(data []byte) (Scheme, error) {
	var raw schemeFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Scheme{}, fmt.Errorf("%w: %v", ErrMalformedScheme, err)
	}

	scheme := Scheme{
		Separator: FallbackSeparator,
		Types:     make(map[string]TypeSpec, len(raw.Types)),
		Priority:  raw.Priority,
	}
	if raw.Separator != nil {
		scheme.Separator = *raw.Separator
	}

	for name, v := range raw.Types {
		spec, err := decodeType(v)
		if err != nil {
			return Scheme{}, fmt.Errorf("%w: tag type '%s': %v", ErrMalformedScheme, name, err)
		}
		scheme.Types[name] = spec
	}

	return scheme, nil
}

// decodeType accepts either the short form ["[", "]"] or a map with
// brackets and order.
func decodeType(v interface{}) (TypeSpec, error) {
	var entry typeEntry
	switch val := v.(type) {
	case []interface{}:
		for _, b := range val {
			s, ok := b.(string)
			if !ok {
				return TypeSpec{}, fmt.Errorf("bracket %v is not a string", b)
			}
			entry.Brackets = append(entry.Brackets, s)
		}
	case map[string]interface{}:
		if err := mapstructure.Decode(val, &entry); err != nil {
			return TypeSpec{}, err
		}
	default:
		return TypeSpec{}, fmt.Errorf("expected a bracket list or a map, got %T", v)
	}

	if len(entry.Brackets) != 2 {
		return TypeSpec{}, fmt.Errorf("expected 2 brackets, got %d", len(entry.Brackets))
	}
	if entry.Brackets[0] == "" || entry.Brackets[1] == "" {
		return TypeSpec{}, fmt.Errorf("brackets must not be empty")
	}

	return TypeSpec{Open: entry.Brackets[0], Close: entry.Brackets[1], Order: entry.Order}, nil
}

func findSchemeFile(dir string) string {
	for _, name := range SchemeFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// matchOrder returns type names in first-match-wins order: explicit
// priority first, then by descending order, then by name.
func matchOrder(s Scheme) []string {
	seen := make(map[string]bool, len(s.Types))
	names := make([]string, 0, len(s.Types))
	for _, name := range s.Priority {
		if _, ok := s.Types[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range s.Types {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		oi, oj := s.Types[rest[i]].Order, s.Types[rest[j]].Order
		if oi != oj {
			return oi > oj
		}
		return rest[i] < rest[j]
	})

	return append(names, rest...)
}
