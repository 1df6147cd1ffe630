// Package regions hosts the region cascade as a net/http component.
//
// Each browser session owns one cascade controller. The handler renders the
// picker fragment on GET, which starts a fresh session like a page load, and
// applies change, add, remove and reset events posted by the fragment,
// answering every event with the re-rendered fragment. Sessions are keyed by
// a random id stored in an HttpOnly cookie and evicted after an idle period.
package regions
