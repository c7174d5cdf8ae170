package schema

// treeTable is one table entry in the browser tree.
type treeTable struct {
	Name      string
	Columns   int
	Selected  bool
	SelectURL string
}

// treeDatabase groups the tree entries of one database, document order.
type treeDatabase struct {
	Name   string
	Tables []treeTable
}

// columnRow is one row of the column grid.
type columnRow struct {
	Name         string
	Type         string
	Default      string
	Comment      string
	AIDefinition string
	EditURL      string
}

// detailData is the right-hand panel for the selected table.
type detailData struct {
	Database string
	Table    string
	Columns  []columnRow
}

// viewData is the full schema browser. Loaded is false until a metadata
// document exists on disk.
type viewData struct {
	Loaded    bool
	Path      string
	Databases int
	Tables    int
	Columns   int
	Tree      []treeDatabase
	Detail    *detailData
}

// editorData is the column editor form. Signals carries the current
// field values as JSON for data-signals.
type editorData struct {
	Database  string
	Table     string
	Column    string
	Signals   string
	SaveURL   string
	CancelURL string
}

// editSignals are the editable column fields bound in the editor form.
type editSignals struct {
	Type       string `json:"type"`
	Comment    string `json:"comment"`
	Definition string `json:"definition"`
}
