package listing

import (
	"fmt"
	"time"
)

// Readme iframe literals, shared by the estimator and the renderer.
const (
	readmeOpen  = `<iframe id="readme" src="`
	readmeClose = `">(readme file)</iframe>`
)

// dateLayout is the historical listing date format.
const dateLayout = "02-Jan-2006 15:04"

// estimateSize returns the buffer capacity one rendered page needs.
//
// The estimate charges for every byte the renderer can emit, field by
// field, with fixed-width allowances where the rendered width varies: 20
// bytes per size cell, a padded allowance per date cell, the full name
// column width plus marker per name. Rendering then stays within the
// returned size for any input.
//
// A readme suppressed by unsupported presentation flags is reported through
// warn. This is the only place the condition is checked, so the warning
// fires exactly once per generated listing.
func estimateSize(req *Request, cfg *Config, entries []entry, readmePresent bool, warn func(string)) int {
	size := templateSize +
		len(req.URI) + // page title
		len(req.URI) // page heading

	if readmePresent {
		if cfg.ReadmeFlags&ReadmeIframe != 0 {
			iframe := 3 + // CR, LF and '/'
				len(readmeOpen) +
				len(req.URI) + len(cfg.Readme) +
				len(readmeClose)
			if cfg.ReadmeFlags&ReadmeTop != 0 {
				size += iframe
			}
			if cfg.ReadmeFlags&ReadmeBottom != 0 {
				size += iframe
			}
		} else {
			warn(fmt.Sprintf("bad readme flags combination %#x", uint(cfg.ReadmeFlags)))
		}
	}

	for i := range entries {
		e := &entries[i]

		// Each entry renders as a single table row:
		//
		//   <tr class="X"><td><a href="U">name</a></td>
		//   <td>size</td><td>date</td></tr>
		//
		// with no whitespace between the cells.
		size += len(`<tr class="X"><td><a href="`) +
			len(e.name) + e.escape + // escaped link target
			len(`">`) +
			len(e.name) + e.utfLen + // visible name
			nameWidth + len("&gt;") + // truncation marker allowance
			len(`</a></td><td>`) +
			20 + // file size
			len(`</td><td>`) +
			len(" 28-Sep-1970 12:00 ") + // date allowance
			len("</td></tr>\n") +
			2 // CR LF
	}

	return size
}

// renderDocument renders the whole page into buf and returns it. The buffer
// must have been sized by estimateSize for the same inputs.
func renderDocument(buf []byte, req *Request, cfg *Config, entries []entry, readmePresent bool) []byte {
	buf = append(buf, t01Head1...)
	buf = append(buf, req.URI...)
	buf = append(buf, t02Head2...)

	buf = append(buf, t03Body1...)
	buf = append(buf, req.URI...)
	buf = append(buf, t04Body2...)

	if readmePresent && cfg.readmeAt(ReadmeTop) {
		buf = appendReadmeIframe(buf, req.URI, cfg.Readme)
	}

	buf = append(buf, t05List1...)

	for i := range entries {
		buf = appendRow(buf, &entries[i], i, cfg)
	}

	buf = append(buf, t06List2...)
	buf = append(buf, t07Body3...)

	if readmePresent && cfg.readmeAt(ReadmeBottom) {
		buf = appendReadmeIframe(buf, req.URI, cfg.Readme)
	}

	buf = append(buf, t08Body4...)
	buf = append(buf, t09Foot1...)

	return buf
}

// readmeAt reports whether the readme renders at the given placement: the
// placement flag must be set and the presentation must be iframe.
func (c *Config) readmeAt(placement ReadmeFlags) bool {
	return c.ReadmeFlags&placement != 0 && c.ReadmeFlags&ReadmeIframe != 0
}

// appendReadmeIframe writes one readme iframe. The URI already ends with a
// slash, so the src carries a doubled slash; kept as-is.
func appendReadmeIframe(buf []byte, uri, readme string) []byte {
	buf = append(buf, readmeOpen...)
	buf = append(buf, uri...)
	buf = append(buf, '/')
	buf = append(buf, readme...)
	buf = append(buf, readmeClose...)
	return append(buf, '\r', '\n')
}

// evenodd supplies the alternating row classes.
var evenodd = [2]byte{'e', 'o'}

// appendRow writes one entry row.
func appendRow(buf []byte, e *entry, i int, cfg *Config) []byte {
	buf = append(buf, `<tr class="`...)
	buf = append(buf, evenodd[i&1])
	buf = append(buf, `"><td><a href="`...)

	buf = appendEscaped(buf, e.name)
	if e.dir {
		buf = append(buf, '/')
	}
	buf = append(buf, '"', '>')

	buf = appendVisibleName(buf, e)
	buf = appendSizeCell(buf, e, cfg.ExactSize)

	buf = append(buf, `</td><td>`...)
	buf = appendDate(buf, e.mtime, cfg.Localtime)
	buf = append(buf, `</td></tr>`...)
	return append(buf, '\r', '\n')
}

// hexDigits spells percent escapes in uppercase.
const hexDigits = "0123456789ABCDEF"

// appendEscaped writes the name with link-hostile bytes percent-escaped.
// The written length is always len(name) plus the entry's escape allowance.
func appendEscaped(buf []byte, name string) []byte {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if needsEscape(c) {
			buf = append(buf, '%', hexDigits[c>>4], hexDigits[c&0x0f])
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}

// appendVisibleName writes the display form of the name followed by the
// "</a></td><td>" cell break. Names wider than the column are cut to
// nameWidth-3 units and finished with a "..&gt;" marker. Directory names
// narrower than the column get a trailing slash.
//
// The name bytes are written raw. Only the link target is escaped; the
// visible text never was.
func appendVisibleName(buf []byte, e *entry) []byte {
	const cellBreak = `</a></td><td>`

	if e.utfLen > nameWidth {
		if e.utfLen != len(e.name) {
			buf = appendRunes(buf, e.name, nameWidth-3)
		} else {
			buf = append(buf, e.name[:nameWidth-3]...)
		}
		buf = append(buf, "..&gt;"...)
		return append(buf, cellBreak...)
	}

	buf = append(buf, e.name...)
	if e.dir && e.utfLen < nameWidth {
		buf = append(buf, '/')
	}
	return append(buf, cellBreak...)
}

// appendRunes appends the first n runes of s, never splitting a rune.
func appendRunes(buf []byte, s string, n int) []byte {
	seen := 0
	for i := range s {
		if seen == n {
			return append(buf, s[:i]...)
		}
		seen++
	}
	return append(buf, s...)
}

// appendSizeCell writes the size cell: a bare dash for directories, a
// 19-digit exact byte count, or a six-digit value scaled to K, M or G with
// half-up rounding.
func appendSizeCell(buf []byte, e *entry, exact bool) []byte {
	if e.dir {
		return append(buf, '-')
	}

	if exact {
		return fmt.Appendf(buf, "%19d", e.size)
	}

	const (
		kib = int64(1024)
		mib = 1024 * kib
		gib = 1024 * mib
	)

	var (
		scaled int64
		scale  byte
	)

	switch {
	case e.size > gib-1:
		scaled = e.size / gib
		if e.size%gib > gib/2-1 {
			scaled++
		}
		scale = 'G'

	case e.size > mib-1:
		scaled = e.size / mib
		if e.size%mib > mib/2-1 {
			scaled++
		}
		scale = 'M'

	case e.size > 9999:
		scaled = e.size / kib
		if e.size%kib > 511 {
			scaled++
		}
		scale = 'K'

	default:
		return fmt.Appendf(buf, " %6d", e.size)
	}

	buf = fmt.Appendf(buf, "%6d", scaled)
	return append(buf, scale)
}

// appendDate writes the modification time, in the server zone when
// localtime is set and in UTC otherwise.
func appendDate(buf []byte, t time.Time, localtime bool) []byte {
	if localtime {
		t = t.In(time.Local)
	} else {
		t = t.UTC()
	}
	return t.AppendFormat(buf, dateLayout)
}
