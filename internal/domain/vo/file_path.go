package vo

import (
	"path/filepath"
	"strings"
)

// RelativePath is the slash-separated path of a remote directory below the
// mirror root. The zero value is the root itself.
type RelativePath struct {
	value string
}

// NewRelativePath creates a RelativePath from a slash-separated string.
// Leading and trailing slashes are dropped.
func NewRelativePath(p string) RelativePath {
	return RelativePath{value: strings.Trim(p, "/")}
}

// String returns the slash-separated representation.
func (rp RelativePath) String() string {
	return rp.value
}

// Join appends one listing segment with directory markers stripped.
func (rp RelativePath) Join(segment string) RelativePath {
	segment = strings.Trim(segment, "/")
	if segment == "" {
		return rp
	}
	if rp.value == "" {
		return RelativePath{value: segment}
	}
	return RelativePath{value: rp.value + "/" + segment}
}

// Depth returns the number of segments.
func (rp RelativePath) Depth() int {
	if rp.value == "" {
		return 0
	}
	return strings.Count(rp.value, "/") + 1
}

// Local maps the path onto a local root using OS separators.
// Segment names are kept verbatim.
func (rp RelativePath) Local(rootDir string) string {
	if rp.value == "" {
		return rootDir
	}
	return filepath.Join(rootDir, filepath.FromSlash(rp.value))
}
