package domain

import "strings"

// DirectoryEntry is a child link found on a listing page
type DirectoryEntry struct {
	// Name is the href exactly as it appeared in the listing
	Name string
	// URL is Name resolved against the listing page URL
	URL string
}

// IsDir reports whether the entry names a sub-directory.
// Classification is lexical: a trailing slash marks a directory.
func (e DirectoryEntry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// BaseName returns the entry name with directory markers stripped
func (e DirectoryEntry) BaseName() string {
	return strings.Trim(e.Name, "/")
}
