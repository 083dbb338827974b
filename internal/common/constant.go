// Package common contains shared constants and sentinel errors used across
// BoardPack components.
package common

const (
	// AuthorizationHeaderName is the HTTP header used to carry the access
	// token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix prefixes the access token inside the Authorization header.
	BearerPrefix = "Bearer "
)
