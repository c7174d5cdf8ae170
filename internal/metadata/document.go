// Package metadata defines the catalog document produced by extraction and
// consumed by the viewer and the SQL generation path. The document is the
// sole contract between those stages; it is persisted as indented JSON and
// reloaded without validation.
package metadata

// DefaultSchema is the synthetic schema name used for engines without
// schema support. ClickHouse nests tables directly under databases, so
// every database carries exactly one schema with this name.
const DefaultSchema = "default"

// Column is one column of a table, with the fields reported by
// DESCRIBE TABLE plus the derived ai_definition. All keys are always
// present in the persisted JSON; unreported fields are empty strings.
type Column struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	DefaultType       string `json:"default_type"`
	DefaultExpression string `json:"default_expression"`
	Comment           string `json:"comment"`
	CodecExpression   string `json:"codec_expression"`
	TTLExpression     string `json:"ttl_expression"`
	AIDefinition      string `json:"ai_definition"`
}

// Table holds the ordered column sequence and its derived count.
type Table struct {
	Columns     []*Column `json:"columns"`
	ColumnCount int       `json:"column_count"`
}

// SetColumns replaces the column sequence and recomputes ColumnCount.
func (t *Table) SetColumns(columns []*Column) {
	t.Columns = columns
	t.ColumnCount = len(columns)
}

// Schema groups tables, keyed by table name in catalog order.
type Schema struct {
	Tables *OrderedMap[*Table] `json:"tables"`
}

// Database groups schemas, keyed by schema name.
type Database struct {
	Schemas *OrderedMap[*Schema] `json:"schemas"`
}

// Document is the root container: {databases: {name: Database}}.
// Databases, schemas, and tables keep catalog insertion order; a fresh
// document is built on every extraction run, never merged with a prior one.
type Document struct {
	Databases *OrderedMap[*Database] `json:"databases"`
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		Databases: NewOrderedMap[*Database](),
	}
}

// AddDatabase registers a database with the synthetic default schema and
// returns its schema, creating either on first use.
func (d *Document) AddDatabase(name string) *Schema {
	db, ok := d.Databases.Get(name)
	if !ok {
		db = &Database{Schemas: NewOrderedMap[*Schema]()}
		d.Databases.Set(name, db)
	}
	schema, ok := db.Schemas.Get(DefaultSchema)
	if !ok {
		schema = &Schema{Tables: NewOrderedMap[*Table]()}
		db.Schemas.Set(DefaultSchema, schema)
	}
	return schema
}

// Table looks up a table by database, schema, and table name.
func (d *Document) Table(database, schema, table string) (*Table, bool) {
	db, ok := d.Databases.Get(database)
	if !ok {
		return nil, false
	}
	sc, ok := db.Schemas.Get(schema)
	if !ok {
		return nil, false
	}
	return sc.Tables.Get(table)
}

// TableSummary is the bounded view of a table handed to the SQL generation
// prompt: name and column count only, never column-level detail.
type TableSummary struct {
	Database    string
	Schema      string
	Name        string
	ColumnCount int
}

// TableSummaries lists every table in document order.
func (d *Document) TableSummaries() []TableSummary {
	var out []TableSummary
	for _, dbName := range d.Databases.Keys() {
		db, _ := d.Databases.Get(dbName)
		for _, scName := range db.Schemas.Keys() {
			sc, _ := db.Schemas.Get(scName)
			for _, tName := range sc.Tables.Keys() {
				t, _ := sc.Tables.Get(tName)
				out = append(out, TableSummary{
					Database:    dbName,
					Schema:      scName,
					Name:        tName,
					ColumnCount: t.ColumnCount,
				})
			}
		}
	}
	return out
}

// Counts returns the number of databases, tables, and columns.
func (d *Document) Counts() (databases, tables, columns int) {
	databases = d.Databases.Len()
	for _, s := range d.TableSummaries() {
		tables++
		columns += s.ColumnCount
	}
	return databases, tables, columns
}
