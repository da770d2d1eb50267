package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain/ports/adapter"
)

var _ adapter.FileDiscoverer = (*Discoverer)(nil)

// audioExtensions is the whitelist of formats a batch may contain.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".wma":  true,
}

// Discoverer enumerates audio files under a validated source. Discovery
// never fails a batch: missing directories, permission errors and
// unsupported object stores all degrade to zero results.
type Discoverer struct {
	lister adapter.ObjectLister // nil when no object store is configured
	log    *zerolog.Logger
}

func NewDiscoverer(lister adapter.ObjectLister, logger *zerolog.Logger) *Discoverer {
	dl := logger.With().Str("component", "Discoverer").Logger()
	return &Discoverer{lister: lister, log: &dl}
}

func (d *Discoverer) Discover(ctx context.Context, source, pattern string) ([]string, error) {
	if isObjectStore(source) {
		if d.lister == nil {
			d.log.Warn().Str("source", source).Msg("object-store source but no lister configured")
			return nil, nil
		}
		keys, err := d.lister.List(ctx, source, pattern)
		if err != nil {
			d.log.Warn().Err(err).Str("source", source).Msg("object-store listing failed")
			return nil, nil
		}
		sort.Strings(keys)
		return keys, nil
	}

	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		d.log.Warn().Str("source", source).Msg("source is not an existing directory")
		return nil, nil
	}

	pat := pattern
	if pat == "" {
		pat = "**/*"
	} else if !strings.Contains(pat, "/") {
		// Bare patterns like *.mp3 match at every depth.
		pat = "**/" + pat
	}

	var files []string
	fsys := os.DirFS(source)
	// doublestar skips unreadable directories instead of failing the
	// walk. WithNoFollow keeps the walk inside the validated source:
	// following a symlinked directory would reach files outside it.
	err = doublestar.GlobWalk(fsys, pat, func(p string, entry fs.DirEntry) error {
		if !entry.Type().IsRegular() {
			return nil // directories and symlinks do not count
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		files = append(files, filepath.Join(source, filepath.FromSlash(p)))
		return nil
	}, doublestar.WithNoFollow())
	if err != nil {
		d.log.Warn().Err(err).Str("source", source).Str("pattern", pat).Msg("glob walk failed")
		return nil, nil
	}

	sort.Strings(files)
	return files, nil
}

func isObjectStore(source string) bool {
	return strings.Contains(source, "://")
}
