// Package cascade implements the region cascade controller: an ordered chain
// of level selectors where choosing a region at one administrative level
// fetches the child level from a Source, a committed set of regions built by
// the add action, and restoration of a previously saved selection by replaying
// its ancestor chain.
//
// A Controller is owned by a single form instance. Its methods are safe for
// concurrent use; fetches run without holding the controller lock and every
// fetch carries a request token so that a response superseded by a later
// change is discarded instead of applied.
package cascade
