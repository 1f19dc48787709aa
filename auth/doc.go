// Package auth provides the authorizers that sign requests issued by the
// godata services: OAuth2 for interactive applications, the legacy
// ClientLogin protocol for the services that still accept it, and a dummy
// authorizer for tests.
package auth
