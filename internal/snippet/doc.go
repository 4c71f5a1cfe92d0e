// Package snippet renders the source lines around a search hit.
//
// Snippets are numbered and mark the target line:
//
//	   11: // GetName returns the user's name
//	-> 12: func (u *User) GetName() string {
//	   13:     return u.Name
//
// Rendered snippets are kept in an LRU cache keyed by path and line. The
// indexer calls Invalidate whenever it re-indexes or removes a file.
package snippet
