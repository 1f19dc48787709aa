package gdata

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEntryXML = `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gd="http://schemas.google.com/g/2005" gd:etag="&quot;A0MCQHk-fyp7&quot;">
	<id>https://example.com/feeds/entry/1</id>
	<title>First entry</title>
	<summary>A short summary</summary>
	<published>2009-04-17T15:00:00Z</published>
	<updated>2009-04-18T09:30:00Z</updated>
	<content>Inline body &amp; more</content>
	<category scheme="http://schemas.google.com/g/2005#kind" term="http://schemas.google.com/docs/2007#document" label="document"/>
	<link rel="self" type="application/atom+xml" href="https://example.com/feeds/entry/1"/>
	<link rel="edit" href="https://example.com/feeds/entry/1/edit"/>
	<author><name>Joe Bloggs</name><email>joe@example.com</email></author>
	<gd:extendedProperty name="color" value="red"/>
</entry>`

func TestParseXMLBytes_Entry(t *testing.T) {
	entry := &Entry{}
	require.NoError(t, ParseXMLBytes(entry, []byte(sampleEntryXML)))

	assert.Equal(t, "https://example.com/feeds/entry/1", entry.ID)
	assert.Equal(t, `"A0MCQHk-fyp7"`, entry.ETag)
	assert.Equal(t, "First entry", entry.Title)
	assert.Equal(t, "A short summary", entry.Summary)
	assert.Equal(t, "Inline body & more", entry.Content)
	assert.Equal(t, time.Date(2009, 4, 17, 15, 0, 0, 0, time.UTC), entry.Published.UTC())
	assert.True(t, entry.IsInserted(), "an entry with a server ID is inserted")

	require.Len(t, entry.Categories, 1)
	assert.Equal(t, "http://schemas.google.com/docs/2007#document", entry.Categories[0].Term)

	require.Len(t, entry.Authors, 1)
	assert.Equal(t, "Joe Bloggs", entry.Authors[0].Name)

	edit := entry.LookupLink(RelEdit)
	require.NotNil(t, edit)
	assert.Equal(t, "https://example.com/feeds/entry/1/edit", edit.Href)
	assert.Nil(t, entry.LookupLink("enclosure"))
}

func TestParseXMLBytes_RetainsUnknownExtensions(t *testing.T) {
	entry := &Entry{}
	require.NoError(t, ParseXMLBytes(entry, []byte(sampleEntryXML)))

	retained := entry.RetainedXML()
	require.Len(t, retained, 1)
	assert.Contains(t, string(retained[0]), "gd:extendedProperty")
	assert.Contains(t, string(retained[0]), `name="color"`)
}

func TestMarshalXML_RoundTrip(t *testing.T) {
	entry := &Entry{}
	require.NoError(t, ParseXMLBytes(entry, []byte(sampleEntryXML)))

	data, err := MarshalXML(entry)
	require.NoError(t, err)

	reparsed := &Entry{}
	require.NoError(t, ParseXMLBytes(reparsed, data))

	assert.Equal(t, entry.ID, reparsed.ID)
	assert.Equal(t, entry.ETag, reparsed.ETag)
	assert.Equal(t, entry.Title, reparsed.Title)
	assert.Equal(t, entry.Summary, reparsed.Summary)
	assert.Equal(t, entry.Content, reparsed.Content)
	assert.Equal(t, entry.Published.UTC(), reparsed.Published.UTC())
	assert.Equal(t, entry.Categories, reparsed.Categories)
	assert.Equal(t, entry.Links, reparsed.Links)
	assert.Equal(t, entry.Authors, reparsed.Authors)

	// The unknown extension survives the round trip.
	require.Len(t, reparsed.RetainedXML(), 1)
	assert.Contains(t, string(reparsed.RetainedXML()[0]), "gd:extendedProperty")
}

func TestMarshalXML_OutOfLineContent(t *testing.T) {
	entry := &Entry{}
	entry.Title = "Media entry"
	entry.ContentURI = "https://example.com/media/1"
	entry.ContentType = "video/mp4"

	data, err := MarshalXML(entry)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<content src="https://example.com/media/1" type="video/mp4"/>`)

	reparsed := &Entry{}
	require.NoError(t, ParseXMLBytes(reparsed, data))
	assert.Equal(t, entry.ContentURI, reparsed.ContentURI)
	assert.Equal(t, entry.ContentType, reparsed.ContentType)
}

func TestParseXMLBytes_WrongRootElement(t *testing.T) {
	entry := &Entry{}
	err := ParseXMLBytes(entry, []byte(`<feed xmlns="http://www.w3.org/2005/Atom"/>`))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseXMLBytes_MalformedDocument(t *testing.T) {
	entry := &Entry{}
	err := ParseXMLBytes(entry, []byte(`<entry><title>unterminated`))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseXMLBytes_EmptyDocument(t *testing.T) {
	entry := &Entry{}
	err := ParseXMLBytes(entry, nil)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseXMLBytes_DuplicateID(t *testing.T) {
	entry := &Entry{}
	err := ParseXMLBytes(entry, []byte(`<entry xmlns="http://www.w3.org/2005/Atom"><id>a</id><id>b</id></entry>`))
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNamespaceRegistry(t *testing.T) {
	reg := NewNamespaceRegistry()
	reg.Register("gd", NSGData)
	reg.Register("gAcl", NSACL)
	reg.Register("gd", "something-else")

	decls := reg.Declarations()
	assert.Equal(t, ` xmlns:gd="`+NSGData+`" xmlns:gAcl="`+NSACL+`"`, decls)
}

func TestAccessRule_ParseXML(t *testing.T) {
	const ruleXML = `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gAcl="http://schemas.google.com/acl/2007" xmlns:app="http://www.w3.org/2007/app">
		<id>https://example.com/acl/user%3Ajoe</id>
		<title>writer</title>
		<app:edited>2011-03-01T10:00:00Z</app:edited>
		<gAcl:role value="writer"/>
		<gAcl:scope type="user" value="joe@example.com"/>
	</entry>`

	rule := &AccessRule{}
	require.NoError(t, ParseXMLBytes(rule, []byte(ruleXML)))
	assert.Equal(t, "writer", rule.Role)
	assert.Equal(t, ScopeUser, rule.ScopeType)
	assert.Equal(t, "joe@example.com", rule.ScopeValue)
	assert.Equal(t, time.Date(2011, 3, 1, 10, 0, 0, 0, time.UTC), rule.Edited.UTC())
}

func TestAccessRule_ParseXML_MissingRole(t *testing.T) {
	const ruleXML = `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gAcl="http://schemas.google.com/acl/2007">
		<gAcl:scope type="default"/>
	</entry>`

	rule := &AccessRule{}
	err := ParseXMLBytes(rule, []byte(ruleXML))
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "gAcl:role")
}

func TestAccessRule_MarshalXML(t *testing.T) {
	rule := NewAccessRule("owner", ScopeDomain, "example.com")
	data, err := MarshalXML(rule)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, `<entry xmlns="http://www.w3.org/2005/Atom"`))
	assert.Contains(t, s, `xmlns:gAcl="http://schemas.google.com/acl/2007"`)
	assert.Contains(t, s, `<gAcl:role value="owner"/>`)
	assert.Contains(t, s, `<gAcl:scope type="domain" value="example.com"/>`)
}

func TestAccessRule_JSONRoundTrip(t *testing.T) {
	rule := NewAccessRule("reader", ScopeUser, "sam@example.com")
	data, err := MarshalJSONObject(rule)
	require.NoError(t, err)

	reparsed := &AccessRule{}
	require.NoError(t, ParseJSONObject(reparsed, data))
	assert.Equal(t, rule.Role, reparsed.Role)
	assert.Equal(t, rule.ScopeType, reparsed.ScopeType)
	assert.Equal(t, rule.ScopeValue, reparsed.ScopeValue)
}
