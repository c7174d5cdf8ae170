package common

import (
	"html/template"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderShell(t *testing.T) {
	rec := httptest.NewRecorder()

	err := RenderShell(rec, Page{
		Title:      "Schema",
		Active:     "schema",
		ViewURL:    "/schema/view",
		UpdatesURL: "/schema/updates",
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Schema - chdoc</title>")
	assert.Contains(t, body, `href="/schema" class="active"`)
	assert.Contains(t, body, "@get('/schema/view')")
	assert.Contains(t, body, "@get('/schema/updates')")
	assert.Contains(t, body, "/static/app.css")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderShellWithoutUpdates(t *testing.T) {
	rec := httptest.NewRecorder()

	err := RenderShell(rec, Page{Title: "Chat", Active: "chat", ViewURL: "/chat/view"})
	require.NoError(t, err)

	assert.NotContains(t, rec.Body.String(), "/chat/updates")
}

func TestRender(t *testing.T) {
	tmpl := template.Must(template.New("t").Parse(`{{define "greet"}}<p id="x">{{.}}</p>{{end}}`))

	html, err := Render(tmpl, "greet", "hello & <world>")
	require.NoError(t, err)
	assert.Equal(t, `<p id="x">hello &amp; &lt;world&gt;</p>`, html)
}

func TestRenderUnknownTemplate(t *testing.T) {
	tmpl := template.Must(template.New("t").Parse(`{{define "a"}}x{{end}}`))

	_, err := Render(tmpl, "missing", nil)
	assert.Error(t, err)
}
