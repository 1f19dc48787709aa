package documents

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"time"

	gdata "github.com/godata-project/godata"
)

// Category terms identifying the document kinds.
const (
	CategorySchemeKind = "http://schemas.google.com/g/2005#kind"

	KindDocument     = "http://schemas.google.com/docs/2007#document"
	KindSpreadsheet  = "http://schemas.google.com/docs/2007#spreadsheet"
	KindPresentation = "http://schemas.google.com/docs/2007#presentation"
	KindDrawing      = "http://schemas.google.com/docs/2007#drawing"
	KindPDF          = "http://schemas.google.com/docs/2007#pdf"
	KindFolder       = "http://schemas.google.com/docs/2007#folder"
)

// Document is one entry of the documents feed: a text document,
// spreadsheet, presentation, drawing or uploaded file. Folders are the
// separate Folder type.
type Document struct {
	gdata.Entry

	// ResourceID is the typed identifier, such as "document:abc123".
	ResourceID string
	// WritersCanInvite lets collaborators with write access invite others.
	WritersCanInvite bool
	// LastViewed is when the authenticated user last opened the document.
	LastViewed time.Time
	// Edited is the APP edit timestamp maintained by the server.
	Edited time.Time
	// Deleted marks documents in the trash.
	Deleted bool
	// QuotaBytesUsed is the storage the document consumes.
	QuotaBytesUsed int64
}

// NewDocument builds a local document with the given title.
func NewDocument(title string) *Document {
	d := &Document{}
	d.Title = title
	return d
}

// DocumentType returns the kind term of the document, such as KindDocument,
// or "" for entries without a kind category.
func (doc *Document) DocumentType() string {
	for _, c := range doc.Categories {
		if c.Scheme == CategorySchemeKind {
			return c.Term
		}
	}
	return ""
}

// ParseXMLElement handles the documents extensions and delegates the Atom
// elements to the common entry.
func (doc *Document) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	switch start.Name.Space {
	case gdata.NSGData:
		switch start.Name.Local {
		case "resourceId":
			return gdata.ParseStringElement(d, start, gdata.NSGData, "resourceId", gdata.ParseNoDupes, &doc.ResourceID)
		case "lastViewed":
			return gdata.ParseTimeElement(d, start, gdata.NSGData, "lastViewed", gdata.ParseNoDupes, &doc.LastViewed)
		case "deleted":
			doc.Deleted = true
			return true, skipElement(d)
		case "quotaBytesUsed":
			var s string
			if _, err := gdata.ParseStringElement(d, start, gdata.NSGData, "quotaBytesUsed", gdata.ParseNone, &s); err != nil {
				return true, err
			}
			doc.QuotaBytesUsed = parseInt64(s)
			return true, nil
		}
	case gdata.NSDocs:
		if start.Name.Local == "writersCanInvite" {
			doc.WritersCanInvite = gdata.AttrValue(start.Attr, "value") == "true"
			return true, skipElement(d)
		}
	case gdata.NSApp:
		if start.Name.Local == "edited" {
			return gdata.ParseTimeElement(d, start, gdata.NSApp, "edited", gdata.ParseNoDupes, &doc.Edited)
		}
	}
	return doc.Entry.ParseXMLElement(d, start)
}

// XMLContent writes the Atom elements followed by the writable documents
// extensions. Server-maintained elements are not emitted.
func (doc *Document) XMLContent(w *bytes.Buffer, reg *gdata.NamespaceRegistry) {
	doc.Entry.XMLContent(w, reg)
	reg.Register("docs", gdata.NSDocs)
	w.WriteString(`<docs:writersCanInvite value="` + gdata.FormatBool(doc.WritersCanInvite) + `"/>`)
}

// Folder is a documents folder. Its content URI addresses the feed of the
// documents it contains.
type Folder struct {
	Document
}

// NewFolder builds a local folder with the given title, carrying the folder
// kind category.
func NewFolder(title string) *Folder {
	f := &Folder{}
	f.Title = title
	f.AddCategory(gdata.Category{Scheme: CategorySchemeKind, Term: KindFolder, Label: "folder"})
	return f
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func skipElement(d *xml.Decoder) error {
	if err := d.Skip(); err != nil {
		return gdata.WrapError(gdata.KindProtocol, "malformed XML", err)
	}
	return nil
}
