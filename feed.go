package gdata

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"time"
)

// EntryFactory produces a fresh entry of the concrete type a feed or
// response body should be parsed into.
type EntryFactory func() EntryLike

// QueryProgressFunc is invoked once per entry parsed from a feed, in
// document order. total is the feed's total-results hint, or 0 when the
// server did not send one; it is a hint, not a constraint.
type QueryProgressFunc func(index, total int, entry EntryLike)

// Feed is an ordered collection of entries plus feed-level metadata.
type Feed struct {
	Parsable

	Title   string
	ID      string
	ETag    string
	Updated time.Time

	Categories []Category
	Authors    []Person
	Links      []Link
	Generator  Generator

	// TotalResults is the server's hint of the result-set size across all
	// pages; ItemsPerPage and StartIndex describe this page's window.
	TotalResults int
	ItemsPerPage int
	StartIndex   int

	// NextPageToken is the continuation token of JSON feeds; Atom feeds
	// carry a rel="next" link instead (see NextPageURI).
	NextPageToken string

	Entries []EntryLike

	factory  EntryFactory
	progress QueryProgressFunc
}

// NextPageURI returns the URI of the adjacent, non-overlapping next window
// of this feed, or "" when this is the last page.
func (f *Feed) NextPageURI() string {
	if l := f.lookupLink(RelNext); l != nil {
		return l.Href
	}
	return ""
}

// SelfURI returns the feed's own URI, or "".
func (f *Feed) SelfURI() string {
	if l := f.lookupLink(RelSelf); l != nil {
		return l.Href
	}
	return ""
}

// BatchURI returns the feed's batch endpoint, or "".
func (f *Feed) BatchURI() string {
	if l := f.lookupLink(RelBatch); l != nil {
		return l.Href
	}
	return ""
}

func (f *Feed) lookupLink(rel string) *Link {
	for i := range f.Links {
		if f.Links[i].Rel == rel {
			return &f.Links[i]
		}
	}
	return nil
}

func parseFeedXML(data []byte, factory EntryFactory, progress QueryProgressFunc) (*Feed, error) {
	f := &Feed{factory: factory, progress: progress}
	if err := ParseXMLBytes(f, data); err != nil {
		return nil, err
	}
	return f, nil
}

func parseFeedJSON(data []byte, factory EntryFactory, progress QueryProgressFunc) (*Feed, error) {
	f := &Feed{factory: factory, progress: progress}
	if err := ParseJSONObject(f, data); err != nil {
		return nil, err
	}
	return f, nil
}

// XMLRootName returns the Atom feed element.
func (f *Feed) XMLRootName() (string, string) { return NSAtom, "feed" }

// Extensible reports true; feed-level extensions are preserved.
func (f *Feed) Extensible() bool { return true }

// ParseXMLAttrs reads the gd:etag attribute.
func (f *Feed) ParseXMLAttrs(attrs []xml.Attr) error {
	for _, a := range attrs {
		if a.Name.Local == "etag" && (a.Name.Space == NSGData || a.Name.Space == "") {
			f.ETag = a.Value
		}
	}
	return nil
}

// ParseXMLElement handles feed metadata and delegates entries to the feed's
// entry factory.
func (f *Feed) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	switch start.Name.Space {
	case NSAtom, "":
		switch start.Name.Local {
		case "entry":
			if f.factory == nil {
				return false, nil
			}
			entry := f.factory()
			xp, ok := entry.(XMLParsable)
			if !ok {
				return true, NewError(KindProtocol, "entry type is not XML-parsable")
			}
			if err := ParseXMLElementInto(xp, d, start); err != nil {
				return true, err
			}
			f.Entries = append(f.Entries, entry)
			if f.progress != nil {
				f.progress(len(f.Entries)-1, f.TotalResults, entry)
			}
			return true, nil
		case "title":
			return ParseStringElement(d, start, "", "title", ParseNone, &f.Title)
		case "id":
			return ParseStringElement(d, start, "", "id", ParseNoDupes, &f.ID)
		case "updated":
			return ParseTimeElement(d, start, "", "updated", ParseNoDupes, &f.Updated)
		case "category":
			f.Categories = append(f.Categories, Category{
				Scheme: AttrValue(start.Attr, "scheme"),
				Term:   AttrValue(start.Attr, "term"),
				Label:  AttrValue(start.Attr, "label"),
			})
			return true, skip(d)
		case "link":
			f.Links = append(f.Links, Link{
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
			f.Authors = append(f.Authors, Person{Name: p.Name, URI: p.URI, Email: p.Email})
			return true, nil
		case "generator":
			f.Generator.URI = AttrValue(start.Attr, "uri")
			f.Generator.Version = AttrValue(start.Attr, "version")
			return ParseStringElement(d, start, "", "generator", ParseNone, &f.Generator.Name)
		}
	case NSOpenSearch:
		var s string
		switch start.Name.Local {
		case "totalResults", "startIndex", "itemsPerPage":
			if _, err := ParseStringElement(d, start, NSOpenSearch, start.Name.Local, ParseNoDupes|ParseNonEmpty, &s); err != nil {
				return true, err
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return true, NewError(KindProtocol, "invalid <"+start.Name.Local+"> value")
			}
			switch start.Name.Local {
			case "totalResults":
				f.TotalResults = n
			case "startIndex":
				f.StartIndex = n
			case "itemsPerPage":
				f.ItemsPerPage = n
			}
			return true, nil
		}
	}
	return false, nil
}

// XMLAttrs emits the gd:etag attribute when set.
func (f *Feed) XMLAttrs(reg *NamespaceRegistry) []xml.Attr {
	if f.ETag == "" {
		return nil
	}
	reg.Register("gd", NSGData)
	return []xml.Attr{{Name: xml.Name{Local: "gd:etag"}, Value: f.ETag}}
}

// XMLContent writes the feed metadata followed by its entries.
func (f *Feed) XMLContent(w *bytes.Buffer, reg *NamespaceRegistry) {
	WriteElement(w, "title", f.Title)
	WriteElement(w, "id", f.ID)
	WriteTimeElement(w, "updated", f.Updated)
	for _, c := range f.Categories {
		c.writeXML(w)
	}
	for _, l := range f.Links {
		l.writeXML(w)
	}
	for _, a := range f.Authors {
		a.writeXML(w, "author")
	}
	for _, entry := range f.Entries {
		if xp, ok := entry.(XMLParsable); ok {
			if data, err := MarshalXML(xp); err == nil {
				w.Write(data)
			}
		}
	}
	f.WriteRetainedXML(w)
}

// Kind returns ""; JSON feed kinds vary per service and are not enforced at
// the feed level.
func (f *Feed) Kind() string { return "" }

// ParseJSONMember handles the members of JSON list responses.
func (f *Feed) ParseJSONMember(key string, value json.RawMessage) (bool, error) {
	switch key {
	case "etag":
		return true, JSONString(value, &f.ETag)
	case "summary":
		return true, JSONString(value, &f.Title)
	case "updated":
		var s string
		if err := JSONString(value, &s); err != nil {
			return true, err
		}
		t, err := ParseTime(s)
		if err != nil {
			return true, err
		}
		f.Updated = t
		return true, nil
	case "nextPageToken":
		return true, JSONString(value, &f.NextPageToken)
	case "items":
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			return true, WrapError(KindProtocol, "malformed items array", err)
		}
		if f.factory == nil {
			return true, nil
		}
		for _, item := range items {
			entry := f.factory()
			jp, ok := entry.(JSONParsable)
			if !ok {
				return true, NewError(KindProtocol, "entry type is not JSON-parsable")
			}
			if err := ParseJSONObject(jp, item); err != nil {
				return true, err
			}
			f.Entries = append(f.Entries, entry)
			if f.progress != nil {
				f.progress(len(f.Entries)-1, f.TotalResults, entry)
			}
		}
		return true, nil
	}
	return false, nil
}

// PostParseJSON performs no feed-level validation.
func (f *Feed) PostParseJSON() error { return nil }

// JSONObject builds the list-response shape.
func (f *Feed) JSONObject() map[string]any {
	obj := make(map[string]any)
	if f.ETag != "" {
		obj["etag"] = f.ETag
	}
	if f.Title != "" {
		obj["summary"] = f.Title
	}
	if f.NextPageToken != "" {
		obj["nextPageToken"] = f.NextPageToken
	}
	items := make([]any, 0, len(f.Entries))
	for _, entry := range f.Entries {
		if jp, ok := entry.(JSONParsable); ok {
			item := jp.JSONObject()
			if jp.Kind() != "" {
				item["kind"] = jp.Kind()
			}
			items = append(items, item)
		}
	}
	obj["items"] = items
	return obj
}
