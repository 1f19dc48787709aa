package gdata

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"time"
)

// Entry is the polymorphic root of all parsed entities. Service-specific
// entry types embed it and chain their parse and serialize methods to it.
//
// An Entry is either inserted (it carries a server-assigned ID) or local;
// the transition is one-way and happens when the server's representation is
// parsed after an insert.
type Entry struct {
	Parsable

	// ID is the stable server-assigned identifier URI. Empty for entries
	// that have not been inserted yet.
	ID string
	// ETag is the opaque version marker used for optimistic concurrency.
	ETag string
	// Published and Updated are server-maintained timestamps.
	Published time.Time
	Updated   time.Time
	// Title is the entry's human-readable title.
	Title string
	// Summary is the optional Atom summary.
	Summary string
	// Content is the inline content body; ContentURI is set instead when
	// the entry's content is an out-of-line media resource.
	Content    string
	ContentURI string
	// ContentType is the media type of out-of-line content, if declared.
	ContentType string
	// Rights is the entry's rights or visibility marker.
	Rights string

	Categories []Category
	Authors    []Person
	Links      []Link

	inserted bool
}

// EntryLike is satisfied by *Entry and every type embedding it. The request
// engine works in terms of EntryLike and narrows to XMLParsable or
// JSONParsable according to the service's wire format.
type EntryLike interface {
	CommonEntry() *Entry
}

// CommonEntry returns the shared entry prefix.
func (e *Entry) CommonEntry() *Entry { return e }

// IsInserted reports whether the entry exists on the server.
func (e *Entry) IsInserted() bool { return e.inserted }

// MarkInserted records that the entry now exists on the server. The request
// engine calls it after a successful insert; applications normally never do.
func (e *Entry) MarkInserted() { e.inserted = true }

// LookupLink returns the first link with the given relation URI, or nil.
func (e *Entry) LookupLink(rel string) *Link {
	for i := range e.Links {
		if e.Links[i].Rel == rel {
			return &e.Links[i]
		}
	}
	return nil
}

// LookupLinks returns every link with the given relation URI.
func (e *Entry) LookupLinks(rel string) []Link {
	var links []Link
	for _, l := range e.Links {
		if l.Rel == rel {
			links = append(links, l)
		}
	}
	return links
}

// AddCategory appends a category.
func (e *Entry) AddCategory(c Category) { e.Categories = append(e.Categories, c) }

// AddAuthor appends an author.
func (e *Entry) AddAuthor(p Person) { e.Authors = append(e.Authors, p) }

// AddLink appends a link.
func (e *Entry) AddLink(l Link) { e.Links = append(e.Links, l) }

// XMLRootName returns the Atom entry element.
func (e *Entry) XMLRootName() (string, string) { return NSAtom, "entry" }

// Extensible reports true: unknown extension elements on an entry are
// preserved verbatim so a parse-serialize round trip is lossless.
func (e *Entry) Extensible() bool { return true }

// ParseXMLAttrs reads the gd:etag attribute.
func (e *Entry) ParseXMLAttrs(attrs []xml.Attr) error {
	for _, a := range attrs {
		if a.Name.Local == "etag" && (a.Name.Space == NSGData || a.Name.Space == "") {
			e.ETag = a.Value
		}
	}
	return nil
}

// ParseXMLElement handles the Atom children common to every entry type.
func (e *Entry) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	if start.Name.Space != NSAtom && start.Name.Space != "" {
		return false, nil
	}
	switch start.Name.Local {
	case "id":
		handled, err := ParseStringElement(d, start, "", "id", ParseNoDupes, &e.ID)
		if err == nil && e.ID != "" {
			e.inserted = true
		}
		return handled, err
	case "title":
		return ParseStringElement(d, start, "", "title", ParseNone, &e.Title)
	case "summary":
		return ParseStringElement(d, start, "", "summary", ParseNone, &e.Summary)
	case "rights":
		return ParseStringElement(d, start, "", "rights", ParseNone, &e.Rights)
	case "published":
		return ParseTimeElement(d, start, "", "published", ParseNoDupes, &e.Published)
	case "updated":
		return ParseTimeElement(d, start, "", "updated", ParseNoDupes, &e.Updated)
	case "content":
		if src := AttrValue(start.Attr, "src"); src != "" {
			e.ContentURI = src
			e.ContentType = AttrValue(start.Attr, "type")
			return true, skip(d)
		}
		return ParseStringElement(d, start, "", "content", ParseNone, &e.Content)
	case "category":
		e.Categories = append(e.Categories, Category{
			Scheme: AttrValue(start.Attr, "scheme"),
			Term:   AttrValue(start.Attr, "term"),
			Label:  AttrValue(start.Attr, "label"),
		})
		return true, skip(d)
	case "link":
		e.Links = append(e.Links, Link{
			Rel:   AttrValue(start.Attr, "rel"),
			Href:  AttrValue(start.Attr, "href"),
			Type:  AttrValue(start.Attr, "type"),
			Title: AttrValue(start.Attr, "title"),
		})
		return true, skip(d)
	case "author":
		var p struct {
			Name  string `xml:"name"`
			URI   string `xml:"uri"`
			Email string `xml:"email"`
		}
		if err := d.DecodeElement(&p, &start); err != nil {
			return true, WrapError(KindProtocol, "malformed <author>", err)
		}
		e.Authors = append(e.Authors, Person{Name: p.Name, URI: p.URI, Email: p.Email})
		return true, nil
	}
	return false, nil
}

// XMLAttrs emits the gd:etag attribute when the entry carries an ETag.
func (e *Entry) XMLAttrs(reg *NamespaceRegistry) []xml.Attr {
	if e.ETag == "" {
		return nil
	}
	reg.Register("gd", NSGData)
	return []xml.Attr{{Name: xml.Name{Local: "gd:etag"}, Value: e.ETag}}
}

// XMLContent writes the common Atom children followed by any retained
// extension elements.
func (e *Entry) XMLContent(w *bytes.Buffer, reg *NamespaceRegistry) {
	WriteElement(w, "title", e.Title)
	WriteElement(w, "id", e.ID)
	WriteTimeElement(w, "updated", e.Updated)
	WriteTimeElement(w, "published", e.Published)
	WriteElement(w, "summary", e.Summary)
	WriteElement(w, "rights", e.Rights)
	if e.ContentURI != "" {
		w.WriteString(`<content src="` + EscapeXML(e.ContentURI) + `"`)
		if e.ContentType != "" {
			w.WriteString(` type="` + EscapeXML(e.ContentType) + `"`)
		}
		w.WriteString(`/>`)
	} else {
		WriteElement(w, "content", e.Content)
	}
	for _, c := range e.Categories {
		c.writeXML(w)
	}
	for _, l := range e.Links {
		l.writeXML(w)
	}
	for _, a := range e.Authors {
		a.writeXML(w, "author")
	}
	e.WriteRetainedXML(w)
}

// Kind returns ""; the base entry carries no JSON kind discriminator.
func (e *Entry) Kind() string { return "" }

// ParseJSONMember handles the identity members shared by JSON services.
func (e *Entry) ParseJSONMember(key string, value json.RawMessage) (bool, error) {
	switch key {
	case "id":
		if err := JSONString(value, &e.ID); err != nil {
			return true, err
		}
		if e.ID != "" {
			e.inserted = true
		}
		return true, nil
	case "etag":
		return true, JSONString(value, &e.ETag)
	case "title":
		return true, JSONString(value, &e.Title)
	case "updated":
		var s string
		if err := JSONString(value, &s); err != nil {
			return true, err
		}
		t, err := ParseTime(s)
		if err != nil {
			return true, err
		}
		e.Updated = t
		return true, nil
	case "selfLink":
		var href string
		if err := JSONString(value, &href); err != nil {
			return true, err
		}
		e.Links = append(e.Links, Link{Rel: RelSelf, Href: href})
		return true, nil
	}
	return false, nil
}

// PostParseJSON performs no validation for the base entry.
func (e *Entry) PostParseJSON() error { return nil }

// JSONObject emits the identity members plus the title.
func (e *Entry) JSONObject() map[string]any {
	obj := make(map[string]any)
	e.JSONIdentity(obj)
	if e.Title != "" {
		obj["title"] = e.Title
	}
	return obj
}

// JSONIdentity adds the id and etag members to obj when set. Subtypes that
// build their object from scratch (Calendar events map title onto "summary")
// use it to keep the identity members consistent.
func (e *Entry) JSONIdentity(obj map[string]any) {
	if e.ID != "" {
		obj["id"] = e.ID
	}
	if e.ETag != "" {
		obj["etag"] = e.ETag
	}
}

func skip(d *xml.Decoder) error {
	if err := d.Skip(); err != nil {
		return WrapError(KindProtocol, "malformed XML", err)
	}
	return nil
}
