package documents

import (
	"strings"

	gdata "github.com/godata-project/godata"
)

// DocumentsQuery filters document queries.
type DocumentsQuery struct {
	gdata.Query

	title         string
	exactTitle    bool
	showFolders   bool
	showDeleted   bool
	folderID      string
	collaborators []string
	readers       []string
}

// NewDocumentsQuery returns a documents query with the full-text term set;
// q may be empty.
func NewDocumentsQuery(q string) *DocumentsQuery {
	dq := &DocumentsQuery{}
	dq.SetQ(q)
	return dq
}

// Title returns the title filter.
func (q *DocumentsQuery) Title() string { return q.title }

// SetTitle filters by document title. exact requires a full title match
// rather than a substring one.
func (q *DocumentsQuery) SetTitle(title string, exact bool) {
	q.title = title
	q.exactTitle = exact
	q.ClearETag()
}

// ShowFolders reports whether folders are included in the results.
func (q *DocumentsQuery) ShowFolders() bool { return q.showFolders }

// SetShowFolders includes folders in the results.
func (q *DocumentsQuery) SetShowFolders(v bool) { q.showFolders = v; q.ClearETag() }

// ShowDeleted reports whether trashed documents are included.
func (q *DocumentsQuery) ShowDeleted() bool { return q.showDeleted }

// SetShowDeleted includes trashed documents in the results.
func (q *DocumentsQuery) SetShowDeleted(v bool) { q.showDeleted = v; q.ClearETag() }

// FolderID returns the folder the query is restricted to, or "".
func (q *DocumentsQuery) FolderID() string { return q.folderID }

// SetFolderID restricts the query to the contents of the given folder. The
// folder is addressed through the feed path rather than a parameter.
func (q *DocumentsQuery) SetFolderID(id string) { q.folderID = id; q.ClearETag() }

// Collaborators returns the collaborator address filters.
func (q *DocumentsQuery) Collaborators() []string { return q.collaborators }

// AddCollaborator keeps only documents writable by the given e-mail
// address. Repeated calls add further addresses to the filter.
func (q *DocumentsQuery) AddCollaborator(email string) {
	q.collaborators = append(q.collaborators, email)
	q.ClearETag()
}

// Readers returns the reader address filters.
func (q *DocumentsQuery) Readers() []string { return q.readers }

// AddReader keeps only documents readable by the given e-mail address.
// Repeated calls add further addresses to the filter.
func (q *DocumentsQuery) AddReader(email string) {
	q.readers = append(q.readers, email)
	q.ClearETag()
}

// AppendParams renders the documents parameters after the common ones.
func (q *DocumentsQuery) AppendParams(w *gdata.ParamWriter) {
	q.AppendCommonParams(w)
	if q.title != "" {
		w.AddEscaped("title", q.title)
		w.AddBool("title-exact", q.exactTitle)
	}
	if q.showFolders {
		w.AddBool("showfolders", true)
	}
	if q.showDeleted {
		w.AddBool("showdeleted", true)
	}
	if len(q.collaborators) > 0 {
		w.AddEscaped("writer", strings.Join(q.collaborators, ";"))
	}
	if len(q.readers) > 0 {
		w.AddEscaped("reader", strings.Join(q.readers, ";"))
	}
	q.AppendPaginationParams(w)
}
