package chat

// askSignals is the question box binding sent from the frontend.
type askSignals struct {
	Question string `json:"question"`
}

// resultView is a scanned result set formatted for the transcript.
type resultView struct {
	Columns []string
	Rows    [][]string
	Meta    string
}

// entryView is one transcript exchange. Pending marks the placeholder
// shown while generation and execution are still running.
type entryView struct {
	Question string
	SQL      string
	Result   *resultView
	Err      string
	Pending  bool
}

// logData is the transcript fragment. Examples are shown while the
// transcript is empty.
type logData struct {
	Entries  []entryView
	Examples []string
}

// viewData is the whole chat page fragment.
type viewData struct {
	Log     logData
	Enabled bool
}
