// Package mime maps file names to content types.
//
// A Table is built once from a set of overrides and never changes afterwards,
// so it can be shared by any number of request handlers. Extensions that are
// not overridden fall back to the platform defaults known to the standard
// library; the process-wide registry there is only read, never written.
package mime

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

const (
	TypeBinary = "application/octet-stream"
	TypeWasm   = "application/wasm"
)

var (
	ErrInvalidExtension = errors.New("extension must start with a dot")
	ErrInvalidOverride  = errors.New("override must have the form .ext=type")
)

// Defaults are applied to every table before user overrides.
var Defaults = map[string]string{
	".wasm": TypeWasm,
}

type Entry struct {
	Extension string
	Type      string
}

type Table struct {
	types map[string]string

	platform func(ext string) string
}

func New(overrides map[string]string) (*Table, error) {
	types := make(map[string]string, len(Defaults)+len(overrides))

	for ext, typ := range Defaults {
		types[ext] = typ
	}

	for ext, typ := range overrides {
		ext, err := normalize(ext)

		if err != nil {
			return nil, err
		}

		typ = strings.TrimSpace(typ)

		if typ == "" {
			return nil, fmt.Errorf("empty type for %q: %w", ext, ErrInvalidOverride)
		}

		if _, _, err := mime.ParseMediaType(typ); err != nil {
			return nil, fmt.Errorf("invalid type %q for %q: %w", typ, ext, err)
		}

		types[ext] = typ
	}

	return &Table{
		types: types,

		platform: mime.TypeByExtension,
	}, nil
}

// Lookup returns the content type for a file name, or "" if the extension is
// unknown. The exact extension is tried before its lowercase form.
func (t *Table) Lookup(name string) string {
	ext := filepath.Ext(name)

	if ext == "" {
		return ""
	}

	candidates := []string{ext, strings.ToLower(ext)}

	for _, candidate := range candidates {
		if typ, ok := t.types[candidate]; ok {
			return typ
		}
	}

	for _, candidate := range candidates {
		if typ := t.platform(candidate); typ != "" {
			return typ
		}
	}

	return ""
}

// TypeOf is Lookup with the generic binary type as fallback.
func (t *Table) TypeOf(name string) string {
	if typ := t.Lookup(name); typ != "" {
		return typ
	}

	return TypeBinary
}

func (t *Table) Overrides() []Entry {
	keys := maps.Keys(t.types)
	slices.Sort(keys)

	result := make([]Entry, 0, len(keys))

	for _, ext := range keys {
		result = append(result, Entry{
			Extension: ext,
			Type:      t.types[ext],
		})
	}

	return result
}

// ParseOverride splits a flag value like ".wasm=application/wasm".
func ParseOverride(value string) (string, string, error) {
	ext, typ, ok := strings.Cut(value, "=")

	if !ok {
		return "", "", fmt.Errorf("%q: %w", value, ErrInvalidOverride)
	}

	ext, err := normalize(ext)

	if err != nil {
		return "", "", err
	}

	typ = strings.TrimSpace(typ)

	if typ == "" {
		return "", "", fmt.Errorf("%q: %w", value, ErrInvalidOverride)
	}

	return ext, typ, nil
}

func ParseOverrides(values []string) (map[string]string, error) {
	result := make(map[string]string, len(values))

	for _, v := range values {
		ext, typ, err := ParseOverride(v)

		if err != nil {
			return nil, err
		}

		result[ext] = typ
	}

	return result, nil
}

func normalize(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return "", fmt.Errorf("%q: %w", ext, ErrInvalidExtension)
	}

	if strings.ContainsAny(ext[1:], "./\\") {
		return "", fmt.Errorf("%q: %w", ext, ErrInvalidExtension)
	}

	return ext, nil
}
