package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/sirupsen/logrus"
)

// LedgerName is the audit file written after applying tags to filenames.
const LedgerName = "tag-changes.json"

// Renamer is the part of an image collection used when applying tags.
type Renamer interface {
	Images() []*models.Image
	TargetPath(img *models.Image, stem string, planned map[string]bool) (string, error)
	Rename(img *models.Image, stem string) (string, error)
}

// Renderer turns a tag list into a filename stem.
type Renderer interface {
	RenderFilename(tags []models.Tag, sortTags bool) string
}

// Change is one ledger entry.
type Change struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ApplyOptions controls ApplyReport.
type ApplyOptions struct {
	SortTags bool
	// DryRun computes target names without renaming or writing anything.
	DryRun bool
	// Force applies even when the store is not stale, for callers that
	// loaded the store in a fresh process.
	Force bool
}

// Report summarises one apply run.
type Report struct {
	TotalImages    int
	RenamedFiles   int
	UnchangedFiles int
	FailedFiles    int
	Changes        map[string]Change
	Errors         map[string]error
	StartTime      time.Time
	EndTime        time.Time
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Changes:   make(map[string]Change),
		Errors:    make(map[string]error),
		StartTime: time.Now(),
	}
}

// AddError records a failed image.
func (r *Report) AddError(path string, err error) {
	r.Errors[path] = err
	r.FailedFiles++
}

// Complete stamps the end time.
func (r *Report) Complete() {
	r.EndTime = time.Now()
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// SortedChanges returns the changes ordered by old path.
func (r *Report) SortedChanges() []Change {
	changes := make([]Change, 0, len(r.Changes))
	for _, c := range r.Changes {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Old < changes[j].Old
	})
	return changes
}

// LedgerPath returns the path of the rename audit file.
func (s *TagStore) LedgerPath() string {
	return filepath.Join(s.dir, LedgerName)
}

// ApplyTagsToFilenames renames every image to reflect its tags and returns
// how many files were renamed. See ApplyReport.
func (s *TagStore) ApplyTagsToFilenames(col Renamer, r Renderer) (int, error) {
	report, err := s.ApplyReport(col, r, ApplyOptions{SortTags: true})
	return report.RenamedFiles, err
}

// ApplyReport renames every image in col to the stem rendered from its
// tags. It does nothing when the store is not stale unless opts.Force is set.
//
// The run is not transactional. It stops at the first failed rename; files
// renamed before that stay renamed and only they appear in the ledger. The
// store and the ledger are then written as two separate files.
//
// A dry run tracks the names claimed by earlier images so its preview
// matches what a real run would produce.
func (s *TagStore) ApplyReport(col Renamer, r Renderer, opts ApplyOptions) (*Report, error) {
	report := NewReport()
	defer report.Complete()

	if !s.stale && !opts.Force {
		s.logger.Debug("Tags are not stale, nothing to apply")
		return report, nil
	}

	images := col.Images()
	report.TotalImages = len(images)

	var renameErr error
	planned := make(map[string]bool)
	for _, img := range images {
		tags := s.TagsFor(img.Hash).Slice()
		stem := r.RenderFilename(tags, opts.SortTags)

		if opts.DryRun {
			target, err := col.TargetPath(img, stem, planned)
			if err != nil {
				report.AddError(img.Path, err)
				renameErr = fmt.Errorf("apply tags to %s: %w", filepath.Base(img.Path), err)
				break
			}
			if target != img.Path {
				planned[img.Path] = false
				planned[target] = true
				report.Changes[img.Hash] = Change{Old: img.Path, New: target}
				report.RenamedFiles++
			} else {
				report.UnchangedFiles++
			}
			continue
		}

		oldPath := img.Path
		newPath, err := col.Rename(img, stem)
		if err != nil {
			report.AddError(oldPath, err)
			renameErr = fmt.Errorf("apply tags to %s: %w", filepath.Base(oldPath), err)
			break
		}

		if newPath != oldPath {
			report.Changes[img.Hash] = Change{Old: oldPath, New: newPath}
			report.RenamedFiles++
		} else {
			report.UnchangedFiles++
		}
	}

	if opts.DryRun {
		return report, renameErr
	}

	s.logger.WithFields(logrus.Fields{
		"renamed": report.RenamedFiles,
		"failed":  report.FailedFiles,
	}).Info("Applied tags to filenames")

	if err := s.Save(); err != nil {
		return report, errors.Join(renameErr, err)
	}
	if err := writeJSON(s.LedgerPath(), report.Changes); err != nil {
		return report, errors.Join(renameErr, fmt.Errorf("write ledger: %w", err))
	}

	return report, renameErr
}
