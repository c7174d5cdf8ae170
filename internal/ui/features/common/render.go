package common

import (
	"bytes"
	"fmt"
	"html/template"
)

// Render executes the named template into a string, ready for
// PatchElements. Template failures surface as errors rather than
// half-written fragments.
func Render(t *template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
