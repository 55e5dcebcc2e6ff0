package coolrom

import (
	"net/url"
	"strings"
)

const (
	// PathMarker appears in every category and item link on the site
	PathMarker = "roms"

	// ItemSuffix ends every item page link
	ItemSuffix = ".php"

	// ResolvePath serves the fragment holding the download form
	ResolvePath = "/dlpop.php"

	// Letters are the listing pages a substring search walks through
	Letters = "abcdefghijklmnopqrstuvwxyz"

	// Links look like /roms/<category>/<id>/<name>.php; splitting on "/"
	// puts the category at index 2 and the id at index 3.
	categorySegment = 2
	idSegment       = 3
)

// CatalogURL returns the catalog root page listing every category
func (c *Client) CatalogURL() string {
	return c.baseURL + "/" + PathMarker + "/"
}

// LetterURL returns the listing page of one category and letter
func (c *Client) LetterURL(category, letter string) string {
	return c.CatalogURL() + url.PathEscape(category) + "/" + url.PathEscape(letter) + "/"
}

// ResolveURL returns the fragment endpoint for an item id
func (c *Client) ResolveURL(id string) string {
	params := url.Values{}
	params.Set("id", id)
	return c.baseURL + ResolvePath + "?" + params.Encode()
}

// RefererFor returns the absolute item page URL sent as Referer
func (c *Client) RefererFor(itemPath string) string {
	if strings.HasPrefix(itemPath, "http://") || strings.HasPrefix(itemPath, "https://") {
		return itemPath
	}
	return c.baseURL + "/" + strings.TrimPrefix(itemPath, "/")
}

// AbsoluteURL resolves ref against the site root. Absolute references are
// returned unchanged.
func (c *Client) AbsoluteURL(ref string) string {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// CategoryFromLink derives a category name from a catalog link.
// Links with too few path segments are rejected.
func CategoryFromLink(link string) (string, bool) {
	segments := strings.Split(link, "/")
	if len(segments) <= categorySegment {
		return "", false
	}
	return segments[categorySegment], true
}

// IsItemLink reports whether link points at an item page
func IsItemLink(link string) bool {
	return strings.Contains(link, PathMarker) && strings.HasSuffix(link, ItemSuffix)
}

// ItemName derives the display name of an item link: the last path
// segment, cut at the item suffix, with underscores turned into spaces.
func ItemName(link string) string {
	name := link
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name, _, _ = strings.Cut(name, ItemSuffix)
	return strings.ReplaceAll(name, "_", " ")
}

// ItemID extracts the numeric/opaque id segment from an item path
func ItemID(itemPath string) (string, bool) {
	segments := strings.Split(itemPath, "/")
	if len(segments) <= idSegment || segments[idSegment] == "" {
		return "", false
	}
	return segments[idSegment], true
}

// CategoryOf extracts the category segment from an item path
func CategoryOf(itemPath string) string {
	name, _ := CategoryFromLink(itemPath)
	return name
}
