// Package common holds the page shell and render helpers shared by the
// UI features. Each feature renders its own fragments and patches them
// into the shell over SSE.
package common

import (
	"html/template"
	"net/http"

	"github.com/leapstack-labs/chdoc/internal/ui/resources"
)

// datastarCDN pins the client runtime loaded by the shell.
const datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

// Page describes one shell render: the nav item to highlight, the view
// endpoint loaded into #main on boot, and the optional live-update
// subscription endpoint.
type Page struct {
	Title      string
	Active     string
	ViewURL    string
	UpdatesURL string
}

type shellData struct {
	Page
	Dev         bool
	CSSPath     string
	JSPath      string
	DatastarURL string
}

var shellTmpl = template.Must(template.New("shell").Parse(shellHTML))

const shellHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - chdoc</title>
  <link rel="stylesheet" href="{{.CSSPath}}">
  <script type="module" src="{{.DatastarURL}}"></script>
  <script src="{{.JSPath}}" defer></script>
</head>
<body>
  <header class="topbar">
    <span class="brand">chdoc</span>
    <nav class="nav">
      <a href="/schema"{{if eq .Active "schema"}} class="active"{{end}}>Schema</a>
      <a href="/chat"{{if eq .Active "chat"}} class="active"{{end}}>Chat</a>
      <a href="/extraction"{{if eq .Active "extraction"}} class="active"{{end}}>Extraction</a>
    </nav>
  </header>
  <main id="main" data-on-load="@get('{{.ViewURL}}')">
    <p class="empty">Loading...</p>
  </main>
{{- if .UpdatesURL}}
  <div data-on-load="@get('{{.UpdatesURL}}')"></div>
{{- end}}
{{- if .Dev}}
  <div data-on-load="@get('/reload')"></div>
{{- end}}
</body>
</html>
`

// RenderShell writes the page shell. The view itself arrives over SSE
// from Page.ViewURL once the datastar runtime boots.
func RenderShell(w http.ResponseWriter, page Page) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return shellTmpl.Execute(w, shellData{
		Page:        page,
		Dev:         resources.DevMode,
		CSSPath:     resources.StaticPath("app.css"),
		JSPath:      resources.StaticPath("app.js"),
		DatastarURL: datastarCDN,
	})
}
