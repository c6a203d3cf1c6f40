package listing

import (
	"time"
	"unicode/utf8"

	"github.com/fancydir/fancydir/pkg/vfs"
)

// entry is one row of the listing, with the derived lengths the estimator
// and renderer both consume. Deriving them once at construction keeps the
// two passes working from identical numbers.
type entry struct {
	name  string
	dir   bool
	size  int64
	mtime time.Time

	// escape is the number of extra bytes the name grows by when escaped
	// into a link target.
	escape int

	// utfLen is the display length of the name: codepoints when the
	// listing is served as UTF-8 and the name is valid UTF-8, bytes
	// otherwise.
	utfLen int
}

// newEntry builds an entry from a directory entry and its attributes.
func newEntry(name string, info *vfs.EntryInfo, utf8Mode bool) entry {
	return entry{
		name:   name,
		dir:    info.Dir,
		size:   info.Size,
		mtime:  info.ModTime,
		escape: escapeExtra(name),
		utfLen: displayLength(name, utf8Mode),
	}
}

// needsEscape reports whether a name byte must be percent-escaped in a link
// target. The set covers the HTML-significant characters plus control bytes
// and DEL; bytes at or above 0x80 pass through untouched.
func needsEscape(c byte) bool {
	switch c {
	case '<', '>', '&', '"':
		return true
	}
	return c < 0x20 || c == 0x7f
}

// escapeExtra returns how many bytes the name grows by under percent
// escaping: each escaped byte becomes three.
func escapeExtra(name string) int {
	n := 0
	for i := 0; i < len(name); i++ {
		if needsEscape(name[i]) {
			n++
		}
	}
	return 2 * n
}

// displayLength returns the width of the name in display units.
//
// Outside UTF-8 mode the width is the byte length. In UTF-8 mode it is the
// codepoint count, unless the name is not valid UTF-8, in which case it
// falls back to the byte length and the renderer truncates bytewise.
func displayLength(name string, utf8Mode bool) int {
	if !utf8Mode || !utf8.ValidString(name) {
		return len(name)
	}
	return utf8.RuneCountInString(name)
}
