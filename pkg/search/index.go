package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsolo1/grove-imgtag/pkg/models"
)

// Index is a sqlite index of image tags across working directories.
// The tag sidecar stays authoritative; the index is rebuilt from it.
type Index struct {
	db *sql.DB
}

// NewIndex opens or creates the index database.
func NewIndex(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		hash TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		dir TEXT NOT NULL,
		indexed_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS image_tags (
		hash TEXT NOT NULL,
		value TEXT NOT NULL,
		type TEXT NOT NULL,
		PRIMARY KEY (hash, value, type)
	);

	CREATE INDEX IF NOT EXISTS idx_images_dir ON images(dir);
	CREATE INDEX IF NOT EXISTS idx_image_tags_value ON image_tags(value);
	CREATE INDEX IF NOT EXISTS idx_image_tags_type ON image_tags(type);
	`

	_, err := idx.db.Exec(schema)
	return err
}

// IndexImage replaces the indexed tags of one image.
func (idx *Index) IndexImage(img *models.Image, tags models.TagSet) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM image_tags WHERE hash = ?", img.Hash); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO images (hash, path, dir, indexed_at)
		VALUES (?, ?, ?, ?)
	`, img.Hash, img.Path, filepath.Dir(img.Path), time.Now())
	if err != nil {
		return err
	}

	for _, t := range tags.Slice() {
		_, err = tx.Exec("INSERT INTO image_tags (hash, value, type) VALUES (?, ?, ?)",
			img.Hash, t.Value, t.Type)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Query selects images by tag.
type Query struct {
	// Value is matched as a substring unless Exact is set.
	Value string
	Exact bool
	Type  string
	// Dir restricts results to one working directory.
	Dir   string
	Limit int
}

// Result is one matching image with the tags that matched.
type Result struct {
	Hash    string       `json:"hash"`
	Path    string       `json:"path"`
	Matched []models.Tag `json:"matched"`
}

// Search finds images with a tag matching q.
func (idx *Index) Search(q Query) ([]*Result, error) {
	if q.Limit == 0 {
		q.Limit = 50
	}

	var conditions []string
	var args []any

	if q.Value != "" {
		if q.Exact {
			conditions = append(conditions, "t.value = ?")
			args = append(args, q.Value)
		} else {
			conditions = append(conditions, "t.value LIKE ?")
			args = append(args, "%"+strings.ReplaceAll(q.Value, " ", "%")+"%")
		}
	}

	if q.Type != "" {
		conditions = append(conditions, "t.type = ?")
		args = append(args, q.Type)
	}

	if q.Dir != "" {
		conditions = append(conditions, "i.dir = ?")
		args = append(args, q.Dir)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	searchQuery := fmt.Sprintf(`
		SELECT i.hash, i.path, t.value, t.type
		FROM image_tags t
		JOIN images i ON i.hash = t.hash
		%s
		ORDER BY i.path, t.type, t.value
	`, whereClause)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	byHash := make(map[string]*Result)
	for rows.Next() {
		var hash, path, value, typ string
		if err := rows.Scan(&hash, &path, &value, &typ); err != nil {
			return nil, err
		}

		r, ok := byHash[hash]
		if !ok {
			if len(results) >= q.Limit {
				continue
			}
			r = &Result{Hash: hash, Path: path}
			byHash[hash] = r
			results = append(results, r)
		}
		r.Matched = append(r.Matched, models.NewTag(value, typ))
	}

	return results, rows.Err()
}

// TagCount is a distinct tag with the number of images carrying it.
type TagCount struct {
	Tag    models.Tag
	Images int
}

// AllTags lists distinct tags, most used first. dir may be empty.
func (idx *Index) AllTags(dir string) ([]TagCount, error) {
	query := `
		SELECT t.value, t.type, COUNT(*) AS n
		FROM image_tags t
		JOIN images i ON i.hash = t.hash
	`
	var args []any
	if dir != "" {
		query += " WHERE i.dir = ?"
		args = append(args, dir)
	}
	query += " GROUP BY t.value, t.type ORDER BY n DESC, t.type, t.value"

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var value, typ string
		var n int
		if err := rows.Scan(&value, &typ, &n); err != nil {
			return nil, err
		}
		counts = append(counts, TagCount{Tag: models.NewTag(value, typ), Images: n})
	}

	return counts, rows.Err()
}

// Hashes lists the images indexed under dir.
func (idx *Index) Hashes(dir string) ([]string, error) {
	rows, err := idx.db.Query("SELECT hash FROM images WHERE dir = ? ORDER BY hash", dir)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// Remove drops an image from the index.
func (idx *Index) Remove(hash string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM image_tags WHERE hash = ?", hash); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM images WHERE hash = ?", hash); err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}
