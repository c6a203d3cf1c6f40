// Package listing generates HTML directory index pages.
//
// The generator walks a directory through a vfs.Volume, collects the visible
// entries, sizes an output buffer up front, and renders the page into it in
// a single pass. Sizing and rendering advance in lockstep: every byte the
// renderer can emit is covered by the estimate, so the buffer never grows.
//
// The page layout is a fixed nine-segment template around a table of
// entries. Each entry renders as one table row with a link, a size cell and
// a date cell. An optional readme file can be inlined above or below the
// table as an iframe.
package listing

import (
	"fmt"
	"strings"

	"vimagination.zapto.org/memio"
)

// nameWidth is the display width of the name column. Names longer than this
// are truncated to nameWidth-3 units followed by a "..&gt;" marker.
const nameWidth = 50

// ============================================================================
// Readme Options
// ============================================================================

// ReadmeFlags selects where and how a readme file is inserted into the page.
//
// Placement flags (ReadmeTop, ReadmeBottom) and presentation flags
// (ReadmePre, ReadmeAsis, ReadmeDiv, ReadmeIframe) combine with bitwise or.
// Only the iframe presentation is implemented; resolving a readme under any
// other presentation records a warning on the generated document and inserts
// nothing.
type ReadmeFlags uint

const (
	// ReadmePre would insert the readme wrapped in a <pre> block.
	ReadmePre ReadmeFlags = 1 << iota

	// ReadmeAsis would insert the readme bytes unmodified.
	ReadmeAsis

	// ReadmeTop places the readme between the heading and the table.
	ReadmeTop

	// ReadmeBottom places the readme after the table.
	ReadmeBottom

	// ReadmeDiv would insert the readme wrapped in a <div> block.
	ReadmeDiv

	// ReadmeIframe inserts the readme as an <iframe> pointing at the file.
	ReadmeIframe
)

// DefaultReadmeFlags is the flag combination used when none is configured.
//
// The pre presentation it names is not implemented, so a configured readme
// needs explicit options before anything is inserted. This matches the
// behavior the option surface has always had.
const DefaultReadmeFlags = ReadmeTop | ReadmePre

// readmeOptionNames maps option strings to their flags, in the order the
// options are documented.
var readmeOptionNames = []struct {
	name string
	flag ReadmeFlags
}{
	{"pre", ReadmePre},
	{"asis", ReadmeAsis},
	{"top", ReadmeTop},
	{"bottom", ReadmeBottom},
	{"div", ReadmeDiv},
	{"iframe", ReadmeIframe},
}

// ParseReadmeOptions converts a list of readme option names into flags.
//
// Returns an error naming the first unknown option.
func ParseReadmeOptions(options []string) (ReadmeFlags, error) {
	var flags ReadmeFlags
next:
	for _, opt := range options {
		for _, known := range readmeOptionNames {
			if strings.EqualFold(opt, known.name) {
				flags |= known.flag
				continue next
			}
		}
		return 0, fmt.Errorf("unknown readme option %q", opt)
	}
	return flags, nil
}

// ============================================================================
// Include Mode
// ============================================================================

// IncludeMode selects the strategy for reading header and footer insert
// files.
//
// Header and footer inserts are not implemented yet, so both modes produce
// identical output. The knob is accepted and recorded so configurations can
// set it ahead of time.
type IncludeMode int

const (
	// IncludeStatic reads insert files on every request.
	IncludeStatic IncludeMode = iota

	// IncludeCached keeps insert files cached in memory.
	IncludeCached
)

// ParseIncludeMode converts an include mode name into its value.
func ParseIncludeMode(mode string) (IncludeMode, error) {
	switch strings.ToLower(mode) {
	case "static":
		return IncludeStatic, nil
	case "cached":
		return IncludeCached, nil
	default:
		return 0, fmt.Errorf("unknown include mode %q", mode)
	}
}

// String returns the configuration name of the mode.
func (m IncludeMode) String() string {
	switch m {
	case IncludeStatic:
		return "static"
	case IncludeCached:
		return "cached"
	default:
		return fmt.Sprintf("IncludeMode(%d)", int(m))
	}
}

// ============================================================================
// Configuration
// ============================================================================

// Config controls how listings are rendered.
//
// The zero value renders UTC dates, scaled sizes, and no readme. Callers
// that want the historical defaults (exact sizes on, readme flags top+pre)
// should fill the struct through the configuration layer, which applies
// them.
type Config struct {
	// Localtime renders entry dates in the server's local time zone
	// instead of UTC.
	Localtime bool

	// ExactSize renders file sizes as exact byte counts instead of
	// human-readable K/M/G values.
	ExactSize bool

	// Readme is the name of a readme file to look up in each listed
	// directory. Empty disables readme handling.
	Readme string

	// ReadmeFlags selects readme placement and presentation.
	ReadmeFlags ReadmeFlags

	// IncludeMode selects the header and footer insert strategy.
	IncludeMode IncludeMode
}

// ============================================================================
// Request and Document
// ============================================================================

// Request describes one listing to generate.
type Request struct {
	// Dir is the volume path of the directory to list, without a trailing
	// slash except for the root "/".
	Dir string

	// URI is the request URI the page is served under. It appears verbatim
	// in the page title and heading and in readme iframe links, and must
	// end with a slash.
	URI string

	// UTF8 indicates the response charset is UTF-8. Name column widths
	// then count codepoints instead of bytes.
	UTF8 bool
}

// Document is a rendered listing page.
type Document struct {
	// Body is the page content. The buffer doubles as an io.Reader for
	// callers that stream it out.
	Body memio.Buffer

	// ContentType is the media type of Body, without charset.
	ContentType string

	// Warnings lists conditions that did not stop generation but should
	// reach the log, such as a readme suppressed by unsupported
	// presentation flags.
	Warnings []string
}
