package static

import (
	"bytes"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
<h1>{{ .Title }}</h1>
<hr>
<ul>
{{ range .Entries }}<li><a href="{{ .URL }}">{{ .Name }}</a></li>
{{ end }}</ul>
<hr>
</body>
</html>
`))

type listing struct {
	Title   string
	Entries []listingEntry
}

type listingEntry struct {
	URL  string
	Name string
}

// renderListing lists dir as HTML. Directories carry a trailing slash,
// symlinks an @.
func renderListing(dir, title string) ([]byte, error) {
	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	data := listing{
		Title:   "Directory listing for " + title,
		Entries: make([]listingEntry, 0, len(entries)),
	}

	for _, entry := range entries {
		name := entry.Name()

		display := name
		link := name

		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
			display += "/"
			link += "/"
		}

		if entry.Type()&os.ModeSymlink != 0 {
			display = name + "@"
		}

		u := url.URL{Path: link}

		data.Entries = append(data.Entries, listingEntry{
			URL:  u.String(),
			Name: display,
		})
	}

	var buf bytes.Buffer

	if err := listingTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
