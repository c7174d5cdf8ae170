package chat

import "html/template"

var templates = template.Must(template.New("chat").Parse(chatHTML))

const chatHTML = `{{define "view"}}
<main id="main">
  <div class="chat-layout">
{{- template "log" .Log}}
    <div class="compose" data-signals='{"question": ""}'>
      <textarea id="question-input" rows="2" placeholder="Ask a question about your data" data-bind-question></textarea>
      <button id="ask-button" type="button" class="btn primary" data-on-click="@post('/chat/ask')">Ask</button>
      <button type="button" class="btn" data-on-click="@post('/chat/clear')">Clear</button>
    </div>
{{- if not .Enabled}}
    <p class="muted">SQL generation is disabled: no Gemini API key is configured.</p>
{{- end}}
  </div>
</main>
{{end}}

{{define "log"}}
<div id="chat-log" class="chat-log">
{{- if .Entries}}
{{- range .Entries}}
{{- template "entry" .}}
{{- end}}
{{- else}}
  <div class="examples">
    <p>Ask a question about your ClickHouse data, for example:</p>
    <ul>
{{- range .Examples}}
      <li>{{.}}</li>
{{- end}}
    </ul>
  </div>
{{- end}}
</div>
{{end}}

{{define "entry"}}
<div class="entry{{if .Pending}} pending{{end}}">
  <div class="question-row"><span class="question">{{.Question}}</span></div>
  <div class="answer">
{{- if .Pending}}
    Generating SQL and running the query...
{{- else if .Err}}
{{- if .SQL}}
    <pre>{{.SQL}}</pre>
{{- end}}
    <div class="error">{{.Err}}</div>
{{- else}}
    <pre>{{.SQL}}</pre>
{{- template "result" .Result}}
{{- end}}
  </div>
</div>
{{end}}

{{define "result"}}
{{- if .Rows}}
  <table class="grid">
    <thead>
      <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
{{- range .Rows}}
      <tr>{{range .}}<td class="mono">{{.}}</td>{{end}}</tr>
{{- end}}
    </tbody>
  </table>
{{- end}}
  <div class="result-meta">{{.Meta}}</div>
{{end}}
`
