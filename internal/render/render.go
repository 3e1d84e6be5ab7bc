// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render executes named text templates and converts Markdown to
// sanitized HTML.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
	"time"
)

// ErrTemplateNotFound is returned when no template has the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// Templates is a set of parsed text templates keyed by file name without
// extension. Each file defines its parts as named blocks, e.g. "subject" and
// "body".
type Templates struct {
	templates map[string]*template.Template
}

// ParseTemplates parses every file in dir with the given extension.
func ParseTemplates(fsys fs.FS, dir, ext string) (*Templates, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir %s: %w", dir, err)
	}

	t := &Templates{templates: make(map[string]*template.Template)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)

		tmpl, err := template.New(name).Funcs(templateFuncs()).ParseFS(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return t, nil
}

// Has reports whether a template named name exists.
func (t *Templates) Has(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// Names returns the template names in no particular order.
func (t *Templates) Names() []string {
	names := make([]string, 0, len(t.templates))
	for name := range t.templates {
		names = append(names, name)
	}
	return names
}

// Execute renders the block of template name with data and trims
// surrounding whitespace.
func (t *Templates) Execute(name, block string, data any) (string, error) {
	tmpl, ok := t.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	// Render to buffer first to catch errors
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		return "", fmt.Errorf("executing template %s/%s: %w", name, block, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"upper":      strings.ToUpper,
	}
}

// formatDate accepts time.Time or *time.Time. A nil pointer renders empty.
func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("January 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("January 2, 2006")
	}
	return ""
}
