package listing

import (
	"context"
	"errors"
	"time"

	"vimagination.zapto.org/memio"

	"github.com/fancydir/fancydir/pkg/metrics"
	"github.com/fancydir/fancydir/pkg/vfs"
)

// Generator renders directory listings from a volume.
//
// Thread Safety:
// A Generator is safe for concurrent use by multiple goroutines. Each
// Generate call works on its own state.
type Generator struct {
	vol     vfs.Volume
	cfg     Config
	metrics metrics.ListingMetrics
}

// New creates a listing generator over the given volume.
//
// Parameters:
//   - vol: Volume to list directories from
//   - cfg: Rendering configuration
//   - m: Metrics sink, or nil for no metrics
func New(vol vfs.Volume, cfg Config, m metrics.ListingMetrics) *Generator {
	if m == nil {
		m = metrics.NewListingMetrics()
	}
	return &Generator{
		vol:     vol,
		cfg:     cfg,
		metrics: m,
	}
}

// Config returns the generator's rendering configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate produces the listing page for one directory.
//
// The pipeline runs in five steps: collect the visible entries, resolve the
// readme file, size the output buffer, sort the entries, and render. The
// directory handle is released before rendering starts, and the rendered
// body never outgrows the sized buffer.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - req: Directory, display URI and charset mode
//
// Returns:
//   - *Document: Rendered page with content type and any warnings
//   - error: A *Error classifying the failure, or a context error
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	start := time.Now()

	entries, err := collectEntries(ctx, g.vol, req.Dir, req.UTF8)
	if err != nil {
		var lerr *Error
		if errors.As(err, &lerr) {
			g.metrics.RecordError(lerr.Kind.String())
		}
		return nil, err
	}

	readmePresent := resolveReadme(ctx, g.vol, req.Dir, g.cfg.Readme)

	var warnings []string
	size := estimateSize(&req, &g.cfg, entries, readmePresent, func(msg string) {
		warnings = append(warnings, msg)
		g.metrics.RecordWarning()
	})

	buf := make([]byte, 0, size)

	sortEntries(entries)

	buf = renderDocument(buf, &req, &g.cfg, entries, readmePresent)

	g.metrics.RecordListing(len(entries), len(buf), time.Since(start))

	return &Document{
		Body:        memio.Buffer(buf),
		ContentType: "text/html",
		Warnings:    warnings,
	}, nil
}
