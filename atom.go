package gdata

import (
	"bytes"
)

// Category is an Atom category: a scheme URI, a term within the scheme, and
// an optional human-readable label.
type Category struct {
	Scheme string
	Term   string
	Label  string
}

func (c Category) writeXML(w *bytes.Buffer) {
	w.WriteString(`<category`)
	if c.Scheme != "" {
		w.WriteString(` scheme="` + EscapeXML(c.Scheme) + `"`)
	}
	w.WriteString(` term="` + EscapeXML(c.Term) + `"`)
	if c.Label != "" {
		w.WriteString(` label="` + EscapeXML(c.Label) + `"`)
	}
	w.WriteString(`/>`)
}

// Link is an Atom link, keyed by its relation URI. Entries index their links
// by relation so callers can look up, say, the ACL feed or the batch
// endpoint.
type Link struct {
	Rel    string
	Href   string
	Type   string
	Title  string
	Length int
}

func (l Link) writeXML(w *bytes.Buffer) {
	w.WriteString(`<link`)
	if l.Rel != "" {
		w.WriteString(` rel="` + EscapeXML(l.Rel) + `"`)
	}
	if l.Type != "" {
		w.WriteString(` type="` + EscapeXML(l.Type) + `"`)
	}
	w.WriteString(` href="` + EscapeXML(l.Href) + `"`)
	if l.Title != "" {
		w.WriteString(` title="` + EscapeXML(l.Title) + `"`)
	}
	w.WriteString(`/>`)
}

// Person is an Atom author or contributor.
type Person struct {
	Name  string
	URI   string
	Email string
}

func (p Person) writeXML(w *bytes.Buffer, elem string) {
	w.WriteString("<" + elem + ">")
	WriteElement(w, "name", p.Name)
	WriteElement(w, "uri", p.URI)
	WriteElement(w, "email", p.Email)
	w.WriteString("</" + elem + ">")
}

// Generator identifies the software that produced a feed.
type Generator struct {
	Name    string
	URI     string
	Version string
}
