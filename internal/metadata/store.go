package metadata

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultPath is the metadata file written when no output path is configured.
const DefaultPath = "clickhouse_metadata.json"

// Save writes the document to path as UTF-8 JSON with two-space
// indentation. Non-ASCII characters are preserved literally and HTML
// escaping is off, so the file stays human-readable. The file is written
// once, at the end of a run.
func Save(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return nil
}

// Load reads a document back from path. No schema validation is performed;
// absent fields come back as empty strings and zero counts, and missing
// nesting levels are normalized to empty maps so consumers never see nil.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	normalize(&doc)
	return &doc, nil
}

// normalize fills nil containers left by partial JSON.
func normalize(doc *Document) {
	if doc.Databases == nil {
		doc.Databases = NewOrderedMap[*Database]()
	}
	for _, dbName := range doc.Databases.Keys() {
		db, _ := doc.Databases.Get(dbName)
		if db == nil {
			db = &Database{}
			doc.Databases.Set(dbName, db)
		}
		if db.Schemas == nil {
			db.Schemas = NewOrderedMap[*Schema]()
		}
		for _, scName := range db.Schemas.Keys() {
			sc, _ := db.Schemas.Get(scName)
			if sc == nil {
				sc = &Schema{}
				db.Schemas.Set(scName, sc)
			}
			if sc.Tables == nil {
				sc.Tables = NewOrderedMap[*Table]()
			}
		}
	}
}
