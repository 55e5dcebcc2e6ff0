package models

import "os"

// ItemReference identifies one catalog item before resolution.
// Path is the site-relative item page, e.g. /roms/nes/123/adventure_island.php.
type ItemReference struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ResolvedDownload is filled in as an item moves through the pipeline.
// Length is the server-declared size and only drives progress display.
type ResolvedDownload struct {
	URL      string `json:"url"`
	Length   int64  `json:"length"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Written  int64  `json:"written"`
}

// DownloadTask is the unit of work for one selected item
type DownloadTask struct {
	Item      ItemReference
	OutputDir string
	Clean     bool
	Owner     string
	Mode      os.FileMode
	HasMode   bool
}

// Listing maps display names to item references in source-page order.
// Setting an existing name replaces its reference but keeps its position.
type Listing struct {
	names []string
	items map[string]ItemReference
}

// NewListing creates an empty listing
func NewListing() *Listing {
	return &Listing{items: make(map[string]ItemReference)}
}

// Set adds or replaces the reference stored under ref.Name
func (l *Listing) Set(ref ItemReference) {
	if _, ok := l.items[ref.Name]; !ok {
		l.names = append(l.names, ref.Name)
	}
	l.items[ref.Name] = ref
}

// Get returns the reference stored under name
func (l *Listing) Get(name string) (ItemReference, bool) {
	ref, ok := l.items[name]
	return ref, ok
}

// Merge copies every entry of other into l with Set semantics
func (l *Listing) Merge(other *Listing) {
	for _, ref := range other.Items() {
		l.Set(ref)
	}
}

// Names returns display names in insertion order
func (l *Listing) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Items returns references in insertion order
func (l *Listing) Items() []ItemReference {
	out := make([]ItemReference, 0, len(l.names))
	for _, name := range l.names {
		out = append(out, l.items[name])
	}
	return out
}

// At returns the reference at index i of Names()
func (l *Listing) At(i int) (ItemReference, bool) {
	if i < 0 || i >= len(l.names) {
		return ItemReference{}, false
	}
	return l.items[l.names[i]], true
}

// Len returns the number of distinct names
func (l *Listing) Len() int {
	return len(l.names)
}
