package archive

import "strings"

// Kind is the extraction strategy chosen from a filename suffix
type Kind string

const (
	KindNone     Kind = ""
	KindTar      Kind = "tar"
	KindZip      Kind = "zip"
	KindGzip     Kind = "gzip"
	KindSevenZip Kind = "7z"
)

func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// suffixes are checked in order, most specific first, so "x.tar.gz" is a
// tarball and never a single gzip stream.
var suffixes = []struct {
	suffix string
	kind   Kind
}{
	{".tar.gz", KindTar},
	{".tgz", KindTar},
	{".tar.bz2", KindTar},
	{".tbz2", KindTar},
	{".tar.xz", KindTar},
	{".txz", KindTar},
	{".tar.zst", KindTar},
	{".tar", KindTar},
	{".zip", KindZip},
	{".gz", KindGzip},
	{".7z", KindSevenZip},
}

// DetectKind picks exactly one strategy for filename, or KindNone
func DetectKind(filename string) Kind {
	name := strings.ToLower(filename)
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.kind
		}
	}
	return KindNone
}
