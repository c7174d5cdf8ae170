package schema

import "html/template"

var templates = template.Must(template.New("schema").Parse(viewHTML + editorHTML))

const viewHTML = `{{define "view"}}
<main id="main">
{{- if not .Loaded}}
  <div class="empty">
    <p>No metadata document loaded.</p>
    <p class="muted">Run <span class="mono">chdoc extract</span> or start a run from the <a href="/extraction">Extraction</a> page.</p>
  </div>
{{- else}}
  <div class="schema-layout">
    <aside class="schema-tree">
      <div class="doc-meta">
        <span class="doc-path">{{.Path}}</span>
        <span class="doc-counts">{{.Databases}} databases, {{.Tables}} tables, {{.Columns}} columns</span>
      </div>
{{- range .Tree}}
      <div class="db-group">
        <div class="db-name">{{.Name}}</div>
        <ul>
{{- range .Tables}}
          <li><button type="button" class="table-link{{if .Selected}} selected{{end}}" data-on-click="@get('{{.SelectURL}}')">{{.Name}} <span class="count">{{.Columns}}</span></button></li>
{{- end}}
        </ul>
      </div>
{{- end}}
    </aside>
    <section class="schema-detail">
{{- if .Detail}}
{{- template "detail" .Detail}}
{{- else}}
      <div class="empty">Select a table to inspect its columns.</div>
{{- end}}
    </section>
  </div>
{{- end}}
</main>
{{end}}

{{define "detail"}}
<div class="panel">
  <h2 class="mono">{{.Database}}.{{.Table}}</h2>
  <table class="grid columns">
    <thead>
      <tr><th>Column</th><th>Type</th><th>Default</th><th>Comment</th><th>AI definition</th><th></th></tr>
    </thead>
    <tbody>
{{- range .Columns}}
      <tr>
        <td class="mono">{{.Name}}</td>
        <td class="mono">{{.Type}}</td>
        <td class="mono">{{.Default}}</td>
        <td>{{.Comment}}</td>
        <td>{{.AIDefinition}}</td>
        <td><button type="button" class="btn small" data-on-click="@get('{{.EditURL}}')">Edit</button></td>
      </tr>
{{- end}}
    </tbody>
  </table>
  <div id="column-editor"></div>
</div>
{{end}}
`

const editorHTML = `{{define "editor"}}
<div id="column-editor" class="editor" data-signals='{{.Signals}}'>
  <h3 class="mono">{{.Database}}.{{.Table}}.{{.Column}}</h3>
  <div class="field">
    <label>Type</label>
    <input type="text" data-bind-type>
  </div>
  <div class="field">
    <label>Comment</label>
    <input type="text" data-bind-comment>
  </div>
  <div class="field">
    <label>AI definition</label>
    <textarea rows="3" data-bind-definition></textarea>
  </div>
  <div class="actions">
    <button type="button" class="btn primary" data-on-click="@post('{{.SaveURL}}')">Save</button>
    <button type="button" class="btn" data-on-click="@get('{{.CancelURL}}')">Cancel</button>
  </div>
</div>
{{end}}
`
