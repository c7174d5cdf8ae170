package extraction

import "html/template"

var templates = template.Must(template.New("extraction").Parse(extractionHTML))

const extractionHTML = `{{define "view"}}
<main id="main">
  <div class="extraction-layout">
    <section class="panel">
      <h2>Extraction</h2>
      <p class="muted">Walks the configured ClickHouse catalog, describes every allowed table, and writes <span class="mono">{{.Path}}</span>.</p>
{{- if .DocSummary}}
      <p class="doc-counts">Current document: {{.DocSummary}}</p>
{{- end}}
{{- if .LastRun}}
      <p class="muted">Last run: {{.LastRun}}</p>
{{- end}}
      <div class="run-controls">
        <button type="button" class="btn primary" data-on-click="@post('/extraction/run')">Run extraction</button>
      </div>
      <div id="extraction-progress" class="progress"></div>
    </section>
    <section class="panel">
      <h3>Recent runs</h3>
{{- template "history" .History}}
    </section>
  </div>
</main>
{{end}}

{{define "progress"}}
<div id="extraction-progress" class="progress">
{{- if .Error}}
  <div class="status-err">{{.Error}}</div>
{{- else}}
  <div class="counters">{{.Tables}} tables, {{.Columns}} columns, {{.Enriched}} enriched</div>
  <div class="line">{{.Current}}</div>
{{- end}}
</div>
{{end}}

{{define "history"}}
<div id="run-history">
{{- if .Unavailable}}
  <p class="muted">Run history unavailable: the state store could not be opened.</p>
{{- else if .Rows}}
  <table class="grid">
    <thead>
      <tr><th>Started</th><th>Duration</th><th>Status</th><th>DBs</th><th>Tables</th><th>Columns</th><th>Enriched</th></tr>
    </thead>
    <tbody>
{{- range .Rows}}
      <tr>
        <td class="mono">{{.Started}}</td>
        <td class="mono">{{.Duration}}</td>
        <td class="{{.StatusClass}}">{{.Status}}</td>
        <td>{{.Databases}}</td>
        <td>{{.Tables}}</td>
        <td>{{.Columns}}</td>
        <td>{{.Enriched}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>
{{- else}}
  <p class="muted">No extraction runs recorded yet.</p>
{{- end}}
</div>
{{end}}
`
