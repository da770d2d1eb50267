package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/ports/adapter"
)

var _ adapter.PathValidator = (*Validator)(nil)

// traversalMarkers are checked before any other rule, case-insensitively.
var traversalMarkers = []string{
	"../",
	"..\\",
	"%2e%2e",
	"..%2f",
	"..%5c",
	"....",
}

var allowPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"object-store URI", regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/\s]+(/\S*)?$`)},
	{"absolute POSIX path", regexp.MustCompile(`^/[^\x00]*$`)},
	{"Windows drive path", regexp.MustCompile(`^[A-Za-z]:[\\/][^\x00]*$`)},
	{"UNC network path", regexp.MustCompile(`^\\\\[^\\/]+\\[^\x00]+$`)},
}

// Validator confines batch sources to approved location shapes.
// Validate is pure; no filesystem or network I/O happens here.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Validate(path string) error {
	lower := strings.ToLower(path)
	for _, m := range traversalMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: path contains traversal sequence %q", domain.ErrPathRejected, m)
		}
	}
	for _, p := range allowPatterns {
		if p.re.MatchString(path) {
			return nil
		}
	}
	names := make([]string, 0, len(allowPatterns))
	for _, p := range allowPatterns {
		names = append(names, p.name)
	}
	return fmt.Errorf("%w: %q is outside approved locations (permitted: %s)",
		domain.ErrPathRejected, path, strings.Join(names, ", "))
}
