package gdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchResponseXML = `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:batch="http://schemas.google.com/gdata/batch">
	<title>Batch results</title>
	<entry>
		<batch:id>1</batch:id>
		<batch:operation type="query"/>
		<batch:status code="200" reason="Success"/>
		<id>https://example.com/feeds/entry/1</id>
		<title>Queried entry</title>
	</entry>
	<entry>
		<batch:id>2</batch:id>
		<batch:operation type="insert"/>
		<batch:status code="201" reason="Created"/>
		<id>https://example.com/feeds/entry/2</id>
		<title>Inserted entry</title>
	</entry>
	<entry>
		<batch:id>3</batch:id>
		<batch:operation type="delete"/>
		<batch:status code="200" reason="Success"/>
	</entry>
	<entry>
		<batch:id>4</batch:id>
		<batch:operation type="update"/>
		<batch:status code="409" reason="Conflict"/>
	</entry>
</feed>`

func TestBatch_Run(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(batchResponseXML))
	}))
	defer server.Close()

	svc := NewService(ServiceConfig{})
	batch := svc.NewBatch(testDomain, server.URL)

	toInsert := &Entry{}
	toInsert.Title = "Inserted entry"
	toDelete := &Entry{}
	toDelete.ID = "https://example.com/feeds/entry/3"
	toUpdate := &Entry{}
	toUpdate.ID = "https://example.com/feeds/entry/4"
	toUpdate.Title = "Updated entry"

	queryID := batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	insertID := batch.AddInsert(toInsert, entryFactory)
	deleteID := batch.AddDelete(toDelete)
	updateID := batch.AddUpdate(toUpdate, entryFactory)
	require.Equal(t, []int{1, 2, 3, 4}, []int{queryID, insertID, deleteID, updateID})

	require.NoError(t, batch.Run(context.Background()))

	// The request feed carries one annotated entry per operation.
	body := string(gotBody)
	assert.Contains(t, body, `xmlns:batch="http://schemas.google.com/gdata/batch"`)
	assert.Contains(t, body, "<batch:id>1</batch:id>")
	assert.Contains(t, body, `<batch:operation type="query"/>`)
	assert.Contains(t, body, `<batch:operation type="insert"/>`)
	assert.Contains(t, body, `<batch:operation type="delete"/>`)
	assert.Contains(t, body, `<batch:operation type="update"/>`)

	queried, err := batch.Result(queryID)
	require.NoError(t, err)
	assert.Equal(t, "Queried entry", queried.CommonEntry().Title)

	inserted, err := batch.Result(insertID)
	require.NoError(t, err)
	assert.Equal(t, "Inserted entry", inserted.CommonEntry().Title)
	assert.True(t, inserted.CommonEntry().IsInserted())

	deleted, err := batch.Result(deleteID)
	require.NoError(t, err)
	assert.Nil(t, deleted, "a successful delete has no result entry")

	_, err = batch.Result(updateID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBatch_ResponseEntriesCarryNoBatchAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(batchResponseXML))
	}))
	defer server.Close()

	batch := NewService(ServiceConfig{}).NewBatch(testDomain, server.URL)
	id := batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	require.NoError(t, batch.Run(context.Background()))

	result, err := batch.Result(id)
	require.NoError(t, err)
	for _, raw := range result.CommonEntry().RetainedXML() {
		assert.NotContains(t, string(raw), "batch:", "batch annotations must not leak into retained extensions")
	}
}

func TestBatch_Interrupted(t *testing.T) {
	const interrupted = `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:batch="http://schemas.google.com/gdata/batch">
		<entry>
			<batch:id>1</batch:id>
			<batch:interrupted reason="some entries failed to parse"/>
		</entry>
	</feed>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(interrupted))
	}))
	defer server.Close()

	batch := NewService(ServiceConfig{}).NewBatch(testDomain, server.URL)
	id := batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	require.NoError(t, batch.Run(context.Background()))

	_, err := batch.Result(id)
	assert.ErrorIs(t, err, ErrWithBatchOperation)
}

func TestBatch_MissingResponseSlot(t *testing.T) {
	const partial = `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:batch="http://schemas.google.com/gdata/batch">
		<entry>
			<batch:id>1</batch:id>
			<batch:status code="200" reason="Success"/>
			<id>https://example.com/feeds/entry/1</id>
		</entry>
	</feed>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(partial))
	}))
	defer server.Close()

	batch := NewService(ServiceConfig{}).NewBatch(testDomain, server.URL)
	first := batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	second := batch.AddQuery("https://example.com/feeds/entry/2", entryFactory)
	require.NoError(t, batch.Run(context.Background()))

	_, err := batch.Result(first)
	assert.NoError(t, err)
	_, err = batch.Result(second)
	assert.ErrorIs(t, err, ErrWithBatchOperation)
}

func TestBatch_UnsupportedService(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	svc := NewService(ServiceConfig{BatchUnsupported: true})
	batch := svc.NewBatch(testDomain, server.URL)
	id := batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)

	err := batch.Run(context.Background())
	assert.ErrorIs(t, err, ErrWithBatchOperation)
	assert.Zero(t, requests.Load(), "a rejecting endpoint fails before the network")

	result, err := batch.Result(id)
	assert.Nil(t, result)
	assert.NoError(t, err, "no slot is populated when the whole batch is rejected")
}

func TestBatch_RunTwice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(batchResponseXML))
	}))
	defer server.Close()

	batch := NewService(ServiceConfig{}).NewBatch(testDomain, server.URL)
	batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	require.NoError(t, batch.Run(context.Background()))

	err := batch.Run(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestBatch_Empty(t *testing.T) {
	batch := NewService(ServiceConfig{}).NewBatch(testDomain, "https://example.com/batch")
	err := batch.Run(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestBatch_ResultBeforeRun(t *testing.T) {
	batch := NewService(ServiceConfig{}).NewBatch(testDomain, "https://example.com/batch")
	id := batch.AddQuery("x", entryFactory)
	_, err := batch.Result(id)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestBatch_UnknownResultID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(batchResponseXML))
	}))
	defer server.Close()

	batch := NewService(ServiceConfig{}).NewBatch(testDomain, server.URL)
	batch.AddQuery("https://example.com/feeds/entry/1", entryFactory)
	require.NoError(t, batch.Run(context.Background()))

	_, err := batch.Result(99)
	assert.ErrorIs(t, err, ErrProtocol)
}
