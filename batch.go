package gdata

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"strconv"
	"sync"
)

// BatchOperationType identifies what a single slot in a batch does.
type BatchOperationType int

const (
	// BatchQuery retrieves one entry by ID.
	BatchQuery BatchOperationType = iota
	// BatchInsert creates one entry.
	BatchInsert
	// BatchUpdate replaces one entry.
	BatchUpdate
	// BatchDelete removes one entry.
	BatchDelete
)

func (t BatchOperationType) String() string {
	switch t {
	case BatchQuery:
		return "query"
	case BatchInsert:
		return "insert"
	case BatchUpdate:
		return "update"
	case BatchDelete:
		return "delete"
	}
	return "unknown"
}

type batchOp struct {
	id      int
	typ     BatchOperationType
	entry   EntryLike
	factory EntryFactory

	result EntryLike
	err    error
	seen   bool
}

// BatchOperation collects individual operations and submits them to a feed's
// batch endpoint in a single request. Operations are identified by the
// integer ID returned when they are added; after Run, each operation's
// outcome is available through Result. A BatchOperation runs at most once.
//
// Adding operations is safe from multiple goroutines; Run must not overlap
// with Add calls.
type BatchOperation struct {
	svc      *Service
	domain   AuthorizationDomain
	batchURI string

	mu     sync.Mutex
	nextID int
	ops    []*batchOp
	ran    bool
}

// NewBatch creates a batch targeting the given batch endpoint, typically
// obtained from Feed.BatchURI.
func (s *Service) NewBatch(domain AuthorizationDomain, batchURI string) *BatchOperation {
	return &BatchOperation{svc: s, domain: domain, batchURI: batchURI, nextID: 1}
}

func (b *BatchOperation) add(op *batchOp) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	op.id = b.nextID
	b.nextID++
	b.ops = append(b.ops, op)
	return op.id
}

// AddQuery adds a retrieval of the entry with the given ID; the response is
// parsed with factory.
func (b *BatchOperation) AddQuery(entryID string, factory EntryFactory) int {
	return b.add(&batchOp{typ: BatchQuery, entry: &Entry{ID: entryID}, factory: factory})
}

// AddInsert adds a creation of entry; the server's representation is parsed
// with factory.
func (b *BatchOperation) AddInsert(entry EntryLike, factory EntryFactory) int {
	return b.add(&batchOp{typ: BatchInsert, entry: entry, factory: factory})
}

// AddUpdate adds a replacement of entry; the server's representation is
// parsed with factory.
func (b *BatchOperation) AddUpdate(entry EntryLike, factory EntryFactory) int {
	return b.add(&batchOp{typ: BatchUpdate, entry: entry, factory: factory})
}

// AddDelete adds a removal of entry. A successful delete has a nil result.
func (b *BatchOperation) AddDelete(entry EntryLike) int {
	return b.add(&batchOp{typ: BatchDelete, entry: entry})
}

// Run submits the batch and demultiplexes the response onto the individual
// operations. The returned error covers whole-batch failures (transport
// errors, a rejecting endpoint); per-operation failures are reported by
// Result and leave Run's error nil.
func (b *BatchOperation) Run(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ran {
		return NewError(KindProtocol, "batch has already been run")
	}
	b.ran = true

	if len(b.ops) == 0 {
		return NewError(KindProtocol, "batch is empty")
	}
	if !b.svc.BatchSupported() {
		return NewError(KindWithBatchOperation, "service does not support batch operations")
	}

	body, err := b.buildFeed()
	if err != nil {
		return err
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/atom+xml")

	status, respHeader, respBody, err := b.svc.do(ctx, b.domain, http.MethodPost, b.batchURI, header, body)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return b.svc.statusError(status, respHeader, respBody)
	}

	if err := b.demux(respBody); err != nil {
		return err
	}
	for _, op := range b.ops {
		if !op.seen && op.err == nil {
			op.err = NewError(KindWithBatchOperation, "no response for batch operation "+strconv.Itoa(op.id))
		}
	}
	return nil
}

// Result returns the outcome of the operation with the given ID. Querying
// before Run, or with an unknown ID, is a protocol error. A successful
// delete returns (nil, nil).
func (b *BatchOperation) Result(id int) (EntryLike, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ran {
		return nil, NewError(KindProtocol, "batch has not been run")
	}
	for _, op := range b.ops {
		if op.id == id {
			return op.result, op.err
		}
	}
	return nil, NewError(KindProtocol, "unknown batch operation "+strconv.Itoa(id))
}

func (b *BatchOperation) buildFeed() ([]byte, error) {
	reg := NewNamespaceRegistry()
	reg.Register("batch", NSBatch)

	var content bytes.Buffer
	for _, op := range b.ops {
		inner, ok := op.entry.(XMLParsable)
		if !ok {
			return nil, NewError(KindProtocol, "batch entry is not XML-serializable")
		}
		attrs := inner.XMLAttrs(reg)
		content.WriteString("<entry")
		for _, a := range attrs {
			content.WriteString(" " + attrName(a.Name) + `="` + EscapeXML(a.Value) + `"`)
		}
		content.WriteByte('>')
		content.WriteString("<batch:id>" + strconv.Itoa(op.id) + "</batch:id>")
		content.WriteString(`<batch:operation type="` + op.typ.String() + `"/>`)
		inner.XMLContent(&content, reg)
		content.WriteString("</entry>")
	}

	var b2 bytes.Buffer
	b2.WriteString(`<feed xmlns="` + NSAtom + `"`)
	b2.WriteString(reg.Declarations())
	b2.WriteByte('>')
	b2.Write(content.Bytes())
	b2.WriteString("</feed>")
	return b2.Bytes(), nil
}

// demux walks the response feed, matches each entry to its operation by
// batch ID and records the per-operation outcome.
func (b *BatchOperation) demux(body []byte) error {
	d := xml.NewDecoder(bytes.NewReader(body))
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			if depth == 0 {
				return NewError(KindProtocol, "malformed batch response")
			}
			return nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 1 && t.Name.Local == "entry" {
				if err := b.demuxEntry(d, t); err != nil {
					return err
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

func (b *BatchOperation) demuxEntry(d *xml.Decoder, start xml.StartElement) error {
	raw, err := RawXML(d, start)
	if err != nil {
		return err
	}
	standalone := standaloneEntry(raw)

	var meta struct {
		ID     int `xml:"http://schemas.google.com/gdata/batch id"`
		Status struct {
			Code   int    `xml:"code,attr"`
			Reason string `xml:"reason,attr"`
		} `xml:"http://schemas.google.com/gdata/batch status"`
		Interrupted *struct {
			Reason string `xml:"reason,attr"`
		} `xml:"http://schemas.google.com/gdata/batch interrupted"`
	}
	if err := xml.Unmarshal(standalone, &meta); err != nil {
		return WrapError(KindProtocol, "malformed batch response entry", err)
	}

	var op *batchOp
	for _, candidate := range b.ops {
		if candidate.id == meta.ID {
			op = candidate
			break
		}
	}
	if op == nil {
		// A response for an operation this batch never issued.
		return nil
	}
	op.seen = true

	if meta.Interrupted != nil {
		op.err = NewError(KindWithBatchOperation, meta.Interrupted.Reason)
		return nil
	}
	if meta.Status.Code != 0 && !isSuccess(meta.Status.Code) {
		op.err = batchStatusError(meta.Status.Code, meta.Status.Reason)
		return nil
	}
	if op.typ == BatchDelete {
		return nil
	}
	if op.factory == nil {
		return nil
	}

	entry := op.factory()
	xp, ok := entry.(XMLParsable)
	if !ok {
		op.err = NewError(KindProtocol, "entry type is not XML-parsable")
		return nil
	}
	wrapper := &batchResponseEntry{inner: xp}
	if err := ParseXMLBytes(wrapper, standalone); err != nil {
		op.err = err
		return nil
	}
	entry.CommonEntry().MarkInserted()
	op.result = entry
	return nil
}

// standaloneEntry wraps a captured entry fragment with the namespace
// declarations it needs to be parsed on its own. Captured fragments use the
// canonical prefixes, which the enclosing feed would otherwise declare.
func standaloneEntry(raw []byte) []byte {
	var decls bytes.Buffer
	decls.WriteString(` xmlns="` + NSAtom + `"`)
	for _, ns := range []string{NSGData, NSOpenSearch, NSApp, NSBatch, NSACL, NSMedia, NSYouTube, NSGeoRSS, NSGML, NSDocs} {
		decls.WriteString(" xmlns:" + canonicalPrefixes[ns] + `="` + ns + `"`)
	}
	const open = "<entry"
	out := make([]byte, 0, len(raw)+decls.Len())
	out = append(out, open...)
	out = append(out, decls.Bytes()...)
	out = append(out, raw[len(open):]...)
	return out
}

func batchStatusError(code int, reason string) *Error {
	switch code {
	case http.StatusUnauthorized:
		return NewError(KindAuthenticationRequired, reason)
	case http.StatusForbidden:
		return NewError(KindForbidden, reason)
	case http.StatusNotFound, http.StatusGone:
		return NewError(KindNotFound, reason)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return NewError(KindConflict, reason)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return NewError(KindUnavailable, reason)
	default:
		return NewError(KindProtocol, reason)
	}
}

// batchResponseEntry parses a batch response entry: the batch annotations
// are consumed here, everything else is delegated to the operation's entry
// type so the annotations do not end up in its retained extensions.
type batchResponseEntry struct {
	inner XMLParsable
}

func (b *batchResponseEntry) XMLRootName() (string, string) { return NSAtom, "entry" }

func (b *batchResponseEntry) Extensible() bool { return b.inner.Extensible() }

func (b *batchResponseEntry) ParseXMLAttrs(attrs []xml.Attr) error {
	return b.inner.ParseXMLAttrs(attrs)
}

func (b *batchResponseEntry) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	if start.Name.Space == NSBatch {
		return true, skip(d)
	}
	return b.inner.ParseXMLElement(d, start)
}

func (b *batchResponseEntry) PostParseXML() error { return b.inner.PostParseXML() }

func (b *batchResponseEntry) XMLAttrs(reg *NamespaceRegistry) []xml.Attr {
	return b.inner.XMLAttrs(reg)
}

func (b *batchResponseEntry) XMLContent(w *bytes.Buffer, reg *NamespaceRegistry) {
	b.inner.XMLContent(w, reg)
}

func (b *batchResponseEntry) RetainXML(raw []byte) { b.inner.RetainXML(raw) }

func (b *batchResponseEntry) RetainedXML() [][]byte { return b.inner.RetainedXML() }
