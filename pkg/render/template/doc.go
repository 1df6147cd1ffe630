// Package template defines the renderer-agnostic template contract used by
// the HTML renderer. The pongo2-backed implementation lives in the pongo
// subpackage.
package template
