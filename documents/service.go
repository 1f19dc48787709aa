// Package documents is the Google Documents façade: document and folder
// feeds, uploads, and exports in foreign formats, spoken over the classic
// Atom protocol.
package documents

import (
	"context"
	"net/url"
	"strings"

	gdata "github.com/godata-project/godata"
)

// Domain covers the document feeds.
var Domain = gdata.AuthorizationDomain{
	ServiceName: "writely",
	ScopeRoot:   "https://docs.google.com/feeds/",
}

// SpreadsheetDomain covers spreadsheet exports, which are served from the
// spreadsheets endpoint with its own authorization domain.
var SpreadsheetDomain = gdata.AuthorizationDomain{
	ServiceName: "wise",
	ScopeRoot:   "https://spreadsheets.google.com/feeds/",
}

// Feed roots. Tests point them at a local server.
const (
	// BaseURI is the root of the default document feed.
	BaseURI = "https://docs.google.com/feeds/default/private/full"
	// UploadURI is the resumable upload endpoint for new documents.
	UploadURI = "https://docs.google.com/feeds/upload/create-session/default/private/full"
)

// Service is a Google Documents client.
type Service struct {
	*gdata.Service
	baseURI   string
	uploadURI string
}

// NewService creates a Documents service.
func NewService(authorizer gdata.Authorizer) *Service {
	return NewServiceWithConfig(gdata.ServiceConfig{Authorizer: authorizer})
}

// NewServiceWithConfig creates a Documents service from cfg. The wire
// format is forced to Atom and the protocol version to 3.
func NewServiceWithConfig(cfg gdata.ServiceConfig) *Service {
	cfg.Wire = gdata.WireAtom
	cfg.APIVersion = "3"
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = gdata.NewRateLimiter(gdata.RateLimitConfig{})
	}
	return &Service{Service: gdata.NewService(cfg), baseURI: BaseURI, uploadURI: UploadURI}
}

// SetBaseURI overrides the feed root. Tests use it to query a local server.
func (s *Service) SetBaseURI(uri string) { s.baseURI = uri }

// SetUploadURI overrides the resumable upload endpoint.
func (s *Service) SetUploadURI(uri string) { s.uploadURI = uri }

func documentFactory() gdata.EntryLike { return &Document{} }

func folderFactory() gdata.EntryLike { return &Folder{} }

// QueryDocuments lists the documents visible to the authenticated user,
// filtered by q (which may be nil).
func (s *Service) QueryDocuments(ctx context.Context, q *DocumentsQuery) (*gdata.Feed, error) {
	uri := s.baseURI
	var queryable gdata.Queryable
	if q != nil {
		if id := q.FolderID(); id != "" {
			// A folder filter addresses the folder in the feed path.
			uri += "/folder%3A" + url.PathEscape(id)
		}
		queryable = q
	}
	return s.Query(ctx, Domain, uri, queryable, documentFactory)
}

// QueryFolderContents lists the documents inside folder.
func (s *Service) QueryFolderContents(ctx context.Context, folder *Folder, q *DocumentsQuery) (*gdata.Feed, error) {
	if folder.ContentURI == "" {
		return nil, gdata.NewError(gdata.KindProtocol, "folder carries no content URI")
	}
	var queryable gdata.Queryable
	if q != nil {
		queryable = q
	}
	return s.Query(ctx, Domain, folder.ContentURI, queryable, documentFactory)
}

// UploadDocument starts a resumable upload of a new document. folder, when
// non-nil, receives the document; it must carry a resumable-create-media
// link. document supplies the metadata (at least a title); slug is the file
// name.
func (s *Service) UploadDocument(ctx context.Context, document *Document, folder *Folder, slug, contentType string, contentLength int64, progress gdata.UploadProgressFunc) (*gdata.UploadStream, error) {
	uploadURI := s.uploadURI
	if folder != nil {
		link := folder.LookupLink(gdata.RelResumableCreateMedia)
		if link == nil {
			return nil, gdata.NewError(gdata.KindProtocol, "folder carries no resumable-create-media link")
		}
		uploadURI = link.Href
	}
	return s.UploadEntry(ctx, Domain, uploadURI, slug, contentType, contentLength, document, progress)
}

// UpdateDocumentMedia starts a resumable upload replacing the content of an
// existing document, keeping its metadata.
func (s *Service) UpdateDocumentMedia(ctx context.Context, document *Document, slug, contentType string, contentLength int64, progress gdata.UploadProgressFunc) (*gdata.UploadStream, error) {
	return s.UpdateEntryMedia(ctx, Domain, document, slug, contentType, contentLength, progress)
}

// DownloadDocument opens a streaming export of document in the given
// format ("pdf", "txt", "csv" and so on, per document type). Spreadsheet
// exports are authorized against the spreadsheets domain.
func (s *Service) DownloadDocument(ctx context.Context, document *Document, exportFormat string, progress gdata.DownloadProgressFunc) (*gdata.DownloadStream, error) {
	if document.ContentURI == "" {
		return nil, gdata.NewError(gdata.KindProtocol, "document carries no content URI")
	}
	uri := document.ContentURI
	if exportFormat != "" {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		uri += sep + "exportFormat=" + url.QueryEscape(exportFormat)
	}
	return s.Download(ctx, downloadDomain(uri), uri, progress)
}

// downloadDomain picks the authorization domain an export URI belongs to.
func downloadDomain(uri string) gdata.AuthorizationDomain {
	if u, err := url.Parse(uri); err == nil && strings.Contains(u.Host, "spreadsheets") {
		return SpreadsheetDomain
	}
	return Domain
}

// AddDocumentToFolder files document into folder and returns the server's
// representation of the document.
func (s *Service) AddDocumentToFolder(ctx context.Context, document *Document, folder *Folder) (*Document, error) {
	if folder.ContentURI == "" {
		return nil, gdata.NewError(gdata.KindProtocol, "folder carries no content URI")
	}
	// Filing an existing document is an insert of its entry into the
	// folder's content feed.
	stub := &Document{}
	stub.ID = document.ID
	stub.Title = document.Title
	inserted, err := s.Insert(ctx, Domain, folder.ContentURI, stub, documentFactory)
	if err != nil {
		return nil, err
	}
	return inserted.(*Document), nil
}

// CreateFolder creates a folder with the given title at the feed root.
func (s *Service) CreateFolder(ctx context.Context, title string) (*Folder, error) {
	folder := NewFolder(title)
	inserted, err := s.Insert(ctx, Domain, s.baseURI, folder, folderFactory)
	if err != nil {
		return nil, err
	}
	return inserted.(*Folder), nil
}
