// Package gdata is a client library for Google's GData-family web services
// (Calendar, YouTube, Documents and friends). It provides the pieces shared
// by every service: a pluggable authorizer abstraction, a request engine
// with typed error mapping, an Atom/XML and JSON (de)serialization framework
// for feed entries, query builders with conditional-request support,
// resumable upload and download streams, and a batch operation engine.
//
// Per-service entry points live in the calendar, youtube and documents
// subpackages; authorizer implementations live in the auth subpackage.
//
// All blocking operations take a context.Context. Cancelling the context
// before an operation starts guarantees that no network I/O is performed and
// the operation fails with ErrCancelled.
package gdata
