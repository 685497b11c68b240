package listing

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/vertextoedge/index-mirror/internal/domain"
)

// parentDirectoryLabel is the text some servers put in place of "../"
const parentDirectoryLabel = "Parent Directory"

// Rejected is an href dropped because it could not be resolved
type Rejected struct {
	Href string
	Err  error
}

// IsNavigation reports whether an href points outside the listed directory:
// sort links (?C=N;O=D), absolute-root links and the parent directory.
func IsNavigation(href string) bool {
	if strings.HasPrefix(href, "?") || strings.HasPrefix(href, "/") {
		return true
	}
	return href == "../" || href == parentDirectoryLabel
}

// ExtractHrefs returns the href of every <a> element in document order
func ExtractHrefs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing html: %w", err)
	}

	var hrefs []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Namespace == "" && a.Key == "href" {
					hrefs = append(hrefs, a.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hrefs, nil
}

// ParseListing extracts the child entries of a listing page. Navigation
// links are filtered out, the rest are kept verbatim and resolved against
// base. Hrefs that fail to parse are returned separately.
func ParseListing(r io.Reader, base *url.URL) ([]domain.DirectoryEntry, []Rejected, error) {
	hrefs, err := ExtractHrefs(r)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.DirectoryEntry, 0, len(hrefs))
	var rejected []Rejected

	for _, href := range hrefs {
		if href == "" || IsNavigation(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			rejected = append(rejected, Rejected{Href: href, Err: err})
			continue
		}

		entries = append(entries, domain.DirectoryEntry{
			Name: href,
			URL:  base.ResolveReference(ref).String(),
		})
	}

	return entries, rejected, nil
}
