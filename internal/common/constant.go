// Package common contains shared constants and error values used across
// cardkeeper components.
package common

const (
	// AuthorizationHeader carries bearer credentials on inbound and outbound requests.
	AuthorizationHeader = "Authorization"

	// APIKeyHeader carries the hosted service key on every outbound storage request.
	APIKeyHeader = "apikey"

	// BearerPrefix precedes the credential in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// DefaultSetName is stored when a card is added without a set.
	DefaultSetName = "Unknown"

	// NoSet is reported as the most common set of an empty collection.
	NoSet = "None"
)
