// Package markup extracts start tags, attribute sets and text from HTML in
// a single pass. It records flat sequences only; there is no tree, no
// closing-tag tracking and no selector engine.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr is one key/value pair from a start tag. Valueless attributes have
// an empty Val.
type Attr struct {
	Key string
	Val string
}

// Attributes is the ordered attribute list of one start tag; duplicate
// keys are preserved.
type Attributes []Attr

// Len returns the number of attributes
func (a Attributes) Len() int {
	return len(a)
}

// First returns the first attribute, if any
func (a Attributes) First() (Attr, bool) {
	if len(a) == 0 {
		return Attr{}, false
	}
	return a[0], true
}

// Get returns the value of the first attribute named key
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Has reports whether an attribute named key is present
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Document holds the three parallel sequences produced by scanning.
// Tags and Attrs have one entry per start tag; Text holds trimmed,
// non-empty text fragments in document order.
type Document struct {
	Tags  []string
	Attrs []Attributes
	Text  []string
}

// Scan tokenizes doc into a new Document. It never fails: tokens the
// tokenizer cannot make sense of are dropped and scanning stops quietly at
// the first tokenizer error.
func Scan(doc string) *Document {
	d := &Document{}
	d.Feed(doc)
	return d
}

// Feed scans doc and appends its records to d.
func (d *Document) Feed(doc string) {
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := Attributes{}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if len(key) == 0 {
					continue
				}
				attrs = append(attrs, Attr{Key: string(key), Val: string(val)})
			}
			d.Tags = append(d.Tags, string(name))
			d.Attrs = append(d.Attrs, attrs)
		case html.TextToken:
			if text := strings.TrimSpace(string(z.Text())); text != "" {
				d.Text = append(d.Text, text)
			}
		}
	}
}

// JoinedText concatenates all text fragments without separators.
func (d *Document) JoinedText() string {
	return strings.Join(d.Text, "")
}

// FirstWith returns the first attribute set that has key, scanning in
// document order.
func (d *Document) FirstWith(key string) (Attributes, bool) {
	for _, attrs := range d.Attrs {
		if attrs.Has(key) {
			return attrs, true
		}
	}
	return nil, false
}
