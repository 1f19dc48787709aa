package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	gdata "github.com/godata-project/godata"
)

func TestDocumentsQuery_AppendParams(t *testing.T) {
	q := NewDocumentsQuery("budget")
	q.SetTitle("Quarterly report", true)
	q.SetShowFolders(true)
	q.SetShowDeleted(true)
	q.SetMaxResults(25)

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com"+
		"?q=budget"+
		"&title=Quarterly%20report"+
		"&title-exact=true"+
		"&showfolders=true"+
		"&showdeleted=true"+
		"&max-results=25", uri)
}

func TestDocumentsQuery_SubstringTitle(t *testing.T) {
	q := NewDocumentsQuery("")
	q.SetTitle("report", false)
	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com?title=report&title-exact=false", uri)
}

func TestDocumentsQuery_CollaboratorAndReaderFilters(t *testing.T) {
	q := NewDocumentsQuery("")
	q.AddCollaborator("beth@example.com")
	q.AddCollaborator("john@example.com")
	q.AddReader("viewer@example.com")

	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com"+
		"?writer=beth%40example.com%3Bjohn%40example.com"+
		"&reader=viewer%40example.com", uri)
	assert.Equal(t, []string{"beth@example.com", "john@example.com"}, q.Collaborators())
	assert.Equal(t, []string{"viewer@example.com"}, q.Readers())
}

func TestDocumentsQuery_FolderID(t *testing.T) {
	q := NewDocumentsQuery("")
	q.SetFolderID("folder123")
	assert.Equal(t, "folder123", q.FolderID())

	// The folder never renders as a parameter; the service addresses it
	// through the feed path.
	uri := gdata.BuildQueryURI("http://example.com", q)
	assert.Equal(t, "http://example.com", uri)
}

func TestDocumentsQuery_Empty(t *testing.T) {
	uri := gdata.BuildQueryURI("http://example.com", NewDocumentsQuery(""))
	assert.Equal(t, "http://example.com", uri)
}

func TestDocumentsQuery_MutatorsClearETag(t *testing.T) {
	mutations := map[string]func(*DocumentsQuery){
		"SetTitle":        func(q *DocumentsQuery) { q.SetTitle("x", false) },
		"SetShowFolders":  func(q *DocumentsQuery) { q.SetShowFolders(true) },
		"SetShowDeleted":  func(q *DocumentsQuery) { q.SetShowDeleted(true) },
		"SetFolderID":     func(q *DocumentsQuery) { q.SetFolderID("abc") },
		"AddCollaborator": func(q *DocumentsQuery) { q.AddCollaborator("beth@example.com") },
		"AddReader":       func(q *DocumentsQuery) { q.AddReader("beth@example.com") },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			q := NewDocumentsQuery("")
			q.SetETag(`"abc"`)
			mutate(q)
			assert.Empty(t, q.ETag())
		})
	}
}
