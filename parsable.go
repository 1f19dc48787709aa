package gdata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// XMLParsable is the capability of being deserialized from and serialized to
// an Atom/XML fragment. Parsing runs in three phases: attributes of the root
// element first (ParseXMLAttrs), then each child element (ParseXMLElement),
// then cross-field validation (PostParseXML). Serialization mirrors this
// with XMLAttrs and XMLContent.
//
// Subtypes embed their parent type and chain explicitly: a subtype's
// ParseXMLElement tries its own elements first and falls back to the
// embedded parent's method for anything it does not recognize.
type XMLParsable interface {
	// XMLRootName returns the namespace and local name of the root element.
	XMLRootName() (ns, local string)

	// Extensible reports whether unknown child elements are preserved
	// verbatim for lossless round-tripping.
	Extensible() bool

	// ParseXMLAttrs consumes the root element's attributes.
	ParseXMLAttrs(attrs []xml.Attr) error

	// ParseXMLElement handles one child element. Implementations that
	// recognize start must consume the element fully from d and return
	// true; unrecognized elements are left untouched and reported false.
	ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error)

	// PostParseXML validates required fields once all children are parsed.
	PostParseXML() error

	// XMLAttrs returns the attributes of the serialized root element,
	// registering any namespace prefixes they need.
	XMLAttrs(reg *NamespaceRegistry) []xml.Attr

	// XMLContent writes the serialized child elements.
	XMLContent(w *bytes.Buffer, reg *NamespaceRegistry)

	// RetainXML stores an unknown child element captured during parsing.
	RetainXML(raw []byte)

	// RetainedXML returns the unknown elements captured during parsing, in
	// document order.
	RetainedXML() [][]byte
}

// Parsable is the common base embedded by every parsed type. It stores the
// unknown child elements of extensible types so they survive a
// parse-serialize round trip.
type Parsable struct {
	extraXML [][]byte
}

// Extensible reports false; extensible types override it.
func (p *Parsable) Extensible() bool { return false }

// ParseXMLAttrs ignores all attributes; types with root attributes override.
func (p *Parsable) ParseXMLAttrs(attrs []xml.Attr) error { return nil }

// PostParseXML performs no validation by default.
func (p *Parsable) PostParseXML() error { return nil }

// XMLAttrs returns no attributes by default.
func (p *Parsable) XMLAttrs(reg *NamespaceRegistry) []xml.Attr { return nil }

// RetainXML stores one unknown child element verbatim.
func (p *Parsable) RetainXML(raw []byte) {
	p.extraXML = append(p.extraXML, raw)
}

// RetainedXML returns the stored unknown elements in document order.
func (p *Parsable) RetainedXML() [][]byte { return p.extraXML }

// WriteRetainedXML re-emits the stored unknown elements. Serializers of
// extensible types call it at the end of their XMLContent.
func (p *Parsable) WriteRetainedXML(w *bytes.Buffer) {
	for _, raw := range p.extraXML {
		w.Write(raw)
	}
}

// NamespaceRegistry accumulates the namespace prefixes a serialized document
// needs. Serializers register prefixes as they emit prefixed elements; the
// collected xmlns declarations are flushed onto the root element.
type NamespaceRegistry struct {
	uris  map[string]string
	order []string
}

// NewNamespaceRegistry returns an empty registry.
func NewNamespaceRegistry() *NamespaceRegistry {
	return &NamespaceRegistry{uris: make(map[string]string)}
}

// Register records that the document uses prefix for uri. Registering the
// same prefix twice is a no-op.
func (r *NamespaceRegistry) Register(prefix, uri string) {
	if _, ok := r.uris[prefix]; ok {
		return
	}
	r.uris[prefix] = uri
	r.order = append(r.order, prefix)
}

// Declarations returns the xmlns:prefix="uri" attribute text for the root
// element, in registration order.
func (r *NamespaceRegistry) Declarations() string {
	var b bytes.Buffer
	for _, prefix := range r.order {
		b.WriteString(" xmlns:" + prefix + `="` + r.uris[prefix] + `"`)
	}
	return b.String()
}

// ParseXML deserializes a complete XML document from r into p.
func ParseXML(p XMLParsable, r io.Reader) error {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return NewError(KindProtocol, "empty document")
		}
		if err != nil {
			return WrapError(KindProtocol, "malformed XML", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return ParseXMLElementInto(p, d, start)
		}
	}
}

// ParseXMLBytes deserializes a complete XML document held in data into p.
func ParseXMLBytes(p XMLParsable, data []byte) error {
	return ParseXML(p, bytes.NewReader(data))
}

// ParseXMLElementInto deserializes the element that start opens into p,
// consuming tokens from d up to and including the matching end element. It
// drives the full parse protocol and is also used for nested parsable
// structures (extension groups, feed entries).
func ParseXMLElementInto(p XMLParsable, d *xml.Decoder, start xml.StartElement) error {
	_, local := p.XMLRootName()
	if start.Name.Local != local {
		return NewError(KindProtocol, fmt.Sprintf("expected <%s>, got <%s>", local, start.Name.Local))
	}
	if err := p.ParseXMLAttrs(start.Attr); err != nil {
		return err
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return WrapError(KindProtocol, "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			handled, err := p.ParseXMLElement(d, t)
			if err != nil {
				return err
			}
			if !handled {
				if p.Extensible() {
					raw, err := RawXML(d, t)
					if err != nil {
						return err
					}
					p.RetainXML(raw)
				} else if err := d.Skip(); err != nil {
					return WrapError(KindProtocol, "malformed XML", err)
				}
			}
		case xml.EndElement:
			return p.PostParseXML()
		}
	}
}

// MarshalXML serializes p as a standalone document fragment. The root
// element carries the type's namespace as its default namespace plus every
// prefix the content registered.
func MarshalXML(p XMLParsable) ([]byte, error) {
	ns, local := p.XMLRootName()
	reg := NewNamespaceRegistry()
	attrs := p.XMLAttrs(reg)

	var content bytes.Buffer
	p.XMLContent(&content, reg)

	var b bytes.Buffer
	b.WriteByte('<')
	b.WriteString(local)
	b.WriteString(` xmlns="` + ns + `"`)
	b.WriteString(reg.Declarations())
	for _, a := range attrs {
		b.WriteString(" " + attrName(a.Name) + `="` + EscapeXML(a.Value) + `"`)
	}
	if content.Len() == 0 {
		b.WriteString("/>")
		return b.Bytes(), nil
	}
	b.WriteByte('>')
	b.Write(content.Bytes())
	b.WriteString("</")
	b.WriteString(local)
	b.WriteByte('>')
	return b.Bytes(), nil
}

// Canonical prefixes used when re-emitting captured elements whose
// namespaces the decoder expanded to full URIs.
var canonicalPrefixes = map[string]string{
	NSGData:      "gd",
	NSOpenSearch: "openSearch",
	NSApp:        "app",
	NSBatch:      "batch",
	NSACL:        "gAcl",
	NSMedia:      "media",
	NSYouTube:    "yt",
	NSGeoRSS:     "georss",
	NSGML:        "gml",
	NSDocs:       "docs",
}

func elementName(n xml.Name) string {
	if prefix, ok := canonicalPrefixes[n.Space]; ok {
		return prefix + ":" + n.Local
	}
	return n.Local
}

func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case "xmlns":
		return "xmlns:" + n.Local
	default:
		if prefix, ok := canonicalPrefixes[n.Space]; ok {
			return prefix + ":" + n.Local
		}
		return n.Local
	}
}

// RawXML consumes the element that start opens and returns it re-serialized,
// preserving attributes, character data and nesting. Namespace prefixes are
// re-derived from the canonical prefix table, so exotic prefixes are
// canonicalized rather than preserved byte-for-byte.
func RawXML(d *xml.Decoder, start xml.StartElement) ([]byte, error) {
	var b bytes.Buffer
	writeRawStart(&b, start)
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return nil, WrapError(KindProtocol, "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			writeRawStart(&b, t)
			depth++
		case xml.EndElement:
			depth--
			b.WriteString("</" + elementName(t.Name) + ">")
		case xml.CharData:
			b.WriteString(EscapeXML(string(t)))
		}
	}
	return b.Bytes(), nil
}

func writeRawStart(b *bytes.Buffer, start xml.StartElement) {
	b.WriteString("<" + elementName(start.Name))
	// xmlns declarations covered by the canonical prefix table are dropped;
	// the prefixes are re-derived on output.
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			if _, known := canonicalPrefixes[a.Value]; known {
				continue
			}
		}
		b.WriteString(" " + attrName(a.Name) + `="` + EscapeXML(a.Value) + `"`)
	}
	b.WriteByte('>')
}
