package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-imgtag/pkg/imageset"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
)

// joinRenderer renders tags as their values joined by "_", in given order.
type joinRenderer struct{}

func (joinRenderer) RenderFilename(tags []models.Tag, sortTags bool) string {
	values := make([]string, 0, len(tags))
	for _, t := range tags {
		values = append(values, t.Value)
	}
	return strings.Join(values, "_")
}

var errDenied = errors.New("permission denied")

// fakeRenamer renames in memory and fails on the configured hash.
type fakeRenamer struct {
	images []*models.Image
	failOn string
	calls  []string
}

func (f *fakeRenamer) Images() []*models.Image { return f.images }

func (f *fakeRenamer) TargetPath(img *models.Image, stem string, planned map[string]bool) (string, error) {
	if stem == "" {
		stem = "untagged-" + img.Hash
	}
	return filepath.Join(filepath.Dir(img.Path), stem+filepath.Ext(img.Path)), nil
}

func (f *fakeRenamer) Rename(img *models.Image, stem string) (string, error) {
	f.calls = append(f.calls, img.Hash)
	if img.Hash == f.failOn {
		return img.Path, errDenied
	}
	img.Path, _ = f.TargetPath(img, stem, nil)
	return img.Path, nil
}

func openCollection(t *testing.T, dir string, files ...string) *imageset.Collection {
	t.Helper()
	for i, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{byte('a' + i)}, 0644))
	}
	col, err := imageset.Open(dir, "")
	require.NoError(t, err)
	return col
}

func TestApplyRenamesFromTags(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	tagged := &models.Image{Path: filepath.Join(dir, "IMG_0001.png"), Hash: "aaa"}
	untagged := &models.Image{Path: filepath.Join(dir, "IMG_0002.jpg"), Hash: "abc123"}
	col := &fakeRenamer{images: []*models.Image{tagged, untagged}}

	s.AddTag(tagged, models.NewTag("sunset", ""))

	n, err := s.ApplyTagsToFilenames(col, joinRenderer{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, filepath.Join(dir, "sunset.png"), tagged.Path)
	assert.Equal(t, filepath.Join(dir, "untagged-abc123.jpg"), untagged.Path)

	assert.False(t, s.Stale(), "apply saves the store")
	_, err = os.Stat(s.Path())
	assert.NoError(t, err)

	data, err := os.ReadFile(s.LedgerPath())
	require.NoError(t, err)
	var ledger map[string]Change
	require.NoError(t, json.Unmarshal(data, &ledger))
	assert.Equal(t, Change{
		Old: filepath.Join(dir, "IMG_0001.png"),
		New: filepath.Join(dir, "sunset.png"),
	}, ledger["aaa"])
	assert.Equal(t, filepath.Join(dir, "untagged-abc123.jpg"), ledger["abc123"].New)
}

func TestApplyNotStaleDoesNothing(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	col := &fakeRenamer{images: []*models.Image{{Path: filepath.Join(dir, "a.png"), Hash: "h"}}}

	n, err := s.ApplyTagsToFilenames(col, joinRenderer{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, col.calls)

	_, err = os.Stat(s.LedgerPath())
	assert.True(t, os.IsNotExist(err))
}

func TestApplyForce(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	img := &models.Image{Path: filepath.Join(dir, "a.png"), Hash: "h"}
	col := &fakeRenamer{images: []*models.Image{img}}

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.RenamedFiles)
	assert.Equal(t, filepath.Join(dir, "untagged-h.png"), img.Path)
}

func TestApplyDryRun(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	img := &models.Image{Path: filepath.Join(dir, "a.png"), Hash: "h"}
	same := &models.Image{Path: filepath.Join(dir, "kept.png"), Hash: "k"}
	col := &fakeRenamer{images: []*models.Image{img, same}}
	s.AddTag(img, models.NewTag("beach", ""))
	s.AddTag(same, models.NewTag("kept", ""))

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.RenamedFiles)
	assert.Equal(t, 1, report.UnchangedFiles)
	assert.Equal(t, filepath.Join(dir, "beach.png"), report.Changes["h"].New)

	assert.Empty(t, col.calls)
	assert.Equal(t, filepath.Join(dir, "a.png"), img.Path)
	assert.True(t, s.Stale(), "dry run does not save")
	_, err = os.Stat(s.LedgerPath())
	assert.True(t, os.IsNotExist(err))
}

func TestApplyPartialFailure(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	first := &models.Image{Path: filepath.Join(dir, "1.png"), Hash: "h1"}
	broken := &models.Image{Path: filepath.Join(dir, "2.png"), Hash: "h2"}
	never := &models.Image{Path: filepath.Join(dir, "3.png"), Hash: "h3"}
	col := &fakeRenamer{images: []*models.Image{first, broken, never}, failOn: "h2"}

	for _, img := range col.images {
		s.AddTag(img, models.NewTag("t"+img.Hash, ""))
	}

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.png")

	assert.Equal(t, 1, report.RenamedFiles)
	assert.Equal(t, 1, report.FailedFiles)
	assert.Equal(t, []string{"h1", "h2"}, col.calls, "apply stops at the first failure")
	assert.Equal(t, filepath.Join(dir, "th1.png"), first.Path)
	assert.Equal(t, filepath.Join(dir, "3.png"), never.Path)

	data, err := os.ReadFile(s.LedgerPath())
	require.NoError(t, err)
	var ledger map[string]Change
	require.NoError(t, json.Unmarshal(data, &ledger))
	assert.Len(t, ledger, 1)
	assert.Contains(t, ledger, "h1")
}

func TestApplyRejectsTagsWithPathSeparators(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	require.NoError(t, os.Mkdir(dir, 0755))
	col := openCollection(t, dir, "a.png", "b.png")
	s := newTestStore(t, dir)

	a, b := col.Images()[0], col.Images()[1]
	s.AddTag(a, models.NewTag("beach", ""))
	s.AddTag(b, models.NewTag("../escaped", ""))

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, imageset.ErrInvalidStem)
	assert.Equal(t, 1, report.RenamedFiles)
	assert.Equal(t, 1, report.FailedFiles)
	assert.Contains(t, report.Errors, filepath.Join(dir, "b.png"))

	assert.FileExists(t, filepath.Join(dir, "beach.png"))
	assert.FileExists(t, filepath.Join(dir, "b.png"), "the offending file stays put")
	assert.NoFileExists(t, filepath.Join(root, "escaped.png"))
	assert.False(t, s.Stale(), "the store is still saved after a partial failure")
}

func TestApplyDryRunRejectsTagsWithPathSeparators(t *testing.T) {
	dir := t.TempDir()
	col := openCollection(t, dir, "a.png")
	s := newTestStore(t, dir)
	s.AddTag(col.Images()[0], models.NewTag("sub/x", ""))

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{DryRun: true})
	assert.ErrorIs(t, err, imageset.ErrInvalidStem)
	assert.Equal(t, 1, report.FailedFiles)
	assert.Empty(t, report.Changes)
	assert.FileExists(t, filepath.Join(dir, "a.png"))
}

func TestApplyDryRunCollisions(t *testing.T) {
	dir := t.TempDir()
	col := openCollection(t, dir, "a.png", "b.png", "c.png", "d.png")
	s := newTestStore(t, dir)

	imgs := col.Images()
	s.AddTag(imgs[0], models.NewTag("zed", ""))
	s.AddTag(imgs[1], models.NewTag("a", ""))
	s.AddTag(imgs[2], models.NewTag("beach", ""))
	s.AddTag(imgs[3], models.NewTag("beach", ""))

	preview, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.png"), preview.Changes[imgs[1].Hash].New, "a.png is vacated first")
	assert.Equal(t, filepath.Join(dir, "beach.png"), preview.Changes[imgs[2].Hash].New)
	assert.Equal(t, filepath.Join(dir, "beach-2.png"), preview.Changes[imgs[3].Hash].New)

	report, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, preview.SortedChanges(), report.SortedChanges(), "the preview matches the real run")
	assert.FileExists(t, filepath.Join(dir, "beach-2.png"))
}

func TestApplyReportsRenameAndSaveFailures(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, filepath.Join(dir, "missing"))

	first := &models.Image{Path: filepath.Join(dir, "1.png"), Hash: "h1"}
	broken := &models.Image{Path: filepath.Join(dir, "2.png"), Hash: "h2"}
	col := &fakeRenamer{images: []*models.Image{first, broken}, failOn: "h2"}
	s.AddTag(first, models.NewTag("one", ""))

	_, err := s.ApplyReport(col, joinRenderer{}, ApplyOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDenied, "the rename failure is kept")
	assert.Contains(t, err.Error(), "save tags")
	assert.True(t, s.Stale())
}

func TestReportSortedChanges(t *testing.T) {
	r := NewReport()
	r.Changes["zzz"] = Change{Old: "/p/a.png", New: "/p/c.png"}
	r.Changes["aaa"] = Change{Old: "/p/b.png", New: "/p/d.png"}

	assert.Equal(t, []Change{
		{Old: "/p/a.png", New: "/p/c.png"},
		{Old: "/p/b.png", New: "/p/d.png"},
	}, r.SortedChanges())
}

func TestReportDuration(t *testing.T) {
	r := NewReport()
	r.Complete()
	assert.GreaterOrEqual(t, r.Duration().Nanoseconds(), int64(0))

	r.AddError("/x/a.png", errors.New("boom"))
	assert.Equal(t, 1, r.FailedFiles)
	assert.Len(t, r.Errors, 1)
}
