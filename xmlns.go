package gdata

// XML namespaces recognized by the parsable framework. Service façades
// register additional prefixes through the NamespaceRegistry as they
// serialize their extension elements.
const (
	// NSAtom is the Atom 1.0 namespace; it is the default namespace on
	// every serialized root element.
	NSAtom = "http://www.w3.org/2005/Atom"
	// NSGData is the common GData extension namespace (gd:).
	NSGData = "http://schemas.google.com/g/2005"
	// NSOpenSearch carries feed pagination metadata (openSearch:).
	NSOpenSearch = "http://a9.com/-/spec/opensearch/1.1/"
	// NSApp is the Atom Publishing Protocol namespace (app:).
	NSApp = "http://www.w3.org/2007/app"
	// NSBatch annotates batch feed entries (batch:).
	NSBatch = "http://schemas.google.com/gdata/batch"
	// NSACL carries access-control-rule extensions (gAcl:).
	NSACL = "http://schemas.google.com/acl/2007"
	// NSMedia is the Media RSS namespace (media:).
	NSMedia = "http://search.yahoo.com/mrss/"
	// NSYouTube is the YouTube extension namespace (yt:).
	NSYouTube = "http://gdata.youtube.com/schemas/2007"
	// NSGeoRSS and NSGML carry geographic annotations (georss:, gml:).
	NSGeoRSS = "http://www.georss.org/georss"
	// NSGML is the GML namespace used inside georss:where.
	NSGML = "http://www.opengis.net/gml"
	// NSDocs is the Google Documents extension namespace (docs:).
	NSDocs = "http://schemas.google.com/docs/2007"
)

// Link relation URIs used across services.
const (
	// RelSelf identifies the entry or feed itself.
	RelSelf = "self"
	// RelEdit is the URI used for updates and deletes.
	RelEdit = "edit"
	// RelNext points at the next page of a feed.
	RelNext = "next"
	// RelAlternate points at a browser-viewable representation.
	RelAlternate = "alternate"
	// RelAccessControlList points at the entry's ACL feed.
	RelAccessControlList = NSACL + "#accessControlList"
	// RelBatch points at a feed's batch endpoint.
	RelBatch = NSGData + "#batch"
	// RelResumableCreateMedia is the resumable upload endpoint of a feed.
	RelResumableCreateMedia = NSGData + "#resumable-create-media"
	// RelResumableEditMedia is the resumable update endpoint of an entry.
	RelResumableEditMedia = NSGData + "#resumable-edit-media"
)
