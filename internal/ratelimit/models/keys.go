package models

import (
	"strings"

	"arq/pkg/requestcontext"
)

// NewIdentifier builds the store key "<endpoint>:<client>". Endpoint names
// never contain ':' (see ValidEndpoint) so the first colon always separates
// the two parts, even for IPv6 clients. Unresolved clients share the
// requestcontext.UnknownClient counter for the endpoint.
func NewIdentifier(endpoint, client string) string {
	client = strings.TrimSpace(client)
	if client == "" {
		client = requestcontext.UnknownClient
	}
	return endpoint + ":" + client
}

// ValidEndpoint reports whether name can prefix a store key.
func ValidEndpoint(name string) bool {
	return name != "" && !strings.ContainsAny(name, ": \t")
}
