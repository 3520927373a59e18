package index

import (
	"fmt"
	"regexp"
	"strings"
)

// Metadata is the descriptive-attribute record attached to every result.
// The field names are the bit-exact contract output writers depend on.
type Metadata struct {
	Identifier   string `json:"identifier"`
	Units        string `json:"units"`
	StandardName string `json:"standard_name"`
	LongName     string `json:"long_name"`
	Description  string `json:"description"`
	CellMethods  string `json:"cell_methods"`
	History      string `json:"history"`
}

// Templates holds the format strings an indicator renders its metadata from.
// Placeholders are written {name} and resolved against a Scope; there is no
// expression evaluation.
type Templates struct {
	Identifier   string
	Units        string
	StandardName string
	LongName     string
	Description  string
	CellMethods  string
}

// Scope is the per-call variable mapping a template renders against. Keys are
// fixed names ("src_freq_units", "output_freq", joined per-input fragments);
// values are plain text. Rendering is deterministic: same scope, same string.
type Scope map[string]string

var placeholderRe = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// Render substitutes every {name} placeholder in tmpl from the scope.
// An undefined placeholder is a hard configuration failure, not a silent
// blank: rendered strings become part of persisted output identity.
func Render(tmpl string, scope Scope) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := scope[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: undefined template placeholder(s) %s in %q",
			ErrConfiguration, strings.Join(missing, ", "), tmpl)
	}
	return out, nil
}

// RenderMetadata renders every templated field into a fresh Metadata record.
// Indicators stay immutable: rendering never writes back into the templates,
// so one indicator instance can serve concurrent calls.
func RenderMetadata(t Templates, scope Scope) (Metadata, error) {
	var md Metadata
	fields := []struct {
		name string
		tmpl string
		dst  *string
	}{
		{"identifier", t.Identifier, &md.Identifier},
		{"units", t.Units, &md.Units},
		{"standard_name", t.StandardName, &md.StandardName},
		{"long_name", t.LongName, &md.LongName},
		{"description", t.Description, &md.Description},
		{"cell_methods", t.CellMethods, &md.CellMethods},
	}
	for _, f := range fields {
		rendered, err := Render(f.tmpl, scope)
		if err != nil {
			return Metadata{}, fmt.Errorf("render %s: %w", f.name, err)
		}
		*f.dst = rendered
	}
	return md, nil
}
