// Package regionapi is the HTTP client for the upstream region endpoints: the
// children endpoint (GET ?parent_id=) and the ancestors endpoint
// (GET ?administrative_id=). Client satisfies cascade.Source.
//
// Non-2xx responses surface as *StatusError carrying the HTTP status; region
// names are stripped of markup before they reach a renderer. Endpoint URLs
// can be configured directly or resolved from an OpenAPI document.
package regionapi
