// Package catalog defines the fixed set of characters the pipeline resolves
// and the deterministic filenames their assets are stored under.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Extension is appended to every canonical filename.
const Extension = ".png"

// Sentinel errors returned by Validate.
var (
	ErrEmpty     = errors.New("catalog is empty")
	ErrBlankName = errors.New("name has no filename-safe characters")
	ErrCollision = errors.New("canonical filename collision")
)

// Entity is a catalog member that needs one canonical asset.
type Entity struct {
	Name string
}

// Filename returns the canonical filename for the entity.
func (e Entity) Filename() string {
	return CanonicalFilename(e.Name)
}

// Catalog is an ordered list of entities. Order only affects progress output.
type Catalog []Entity

var defaultNames = []string{
	"Shelly", "Nita", "Colt", "Brock", "Jacky", "Jessie",
	"Piper", "Pam", "Barley", "Crow", "Spike", "Leon",
	"Sandy", "Bea", "Amber",
}

// Default returns the built-in character catalog in declaration order.
func Default() Catalog {
	return FromNames(defaultNames)
}

// FromNames builds a catalog from display names, keeping their order.
func FromNames(names []string) Catalog {
	c := make(Catalog, 0, len(names))
	for _, n := range names {
		c = append(c, Entity{Name: n})
	}
	return c
}

// Names returns the display names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, len(c))
	for i, e := range c {
		out[i] = e.Name
	}
	return out
}

// Validate checks that every entity maps to a non-empty filename and that no
// two entities share one.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrEmpty
	}

	seen := make(map[string]string, len(c))
	for _, e := range c {
		stem := stem(e.Name)
		if stem == "" {
			return fmt.Errorf("%w: %q", ErrBlankName, e.Name)
		}
		fn := stem + Extension
		if prev, ok := seen[fn]; ok {
			return fmt.Errorf("%w: %q and %q both map to %s", ErrCollision, prev, e.Name, fn)
		}
		seen[fn] = e.Name
	}
	return nil
}

// Filter returns the entities whose names match one of names (case-insensitive),
// preserving catalog order. Unknown names are returned separately.
func (c Catalog) Filter(names []string) (Catalog, []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = false
	}

	var out Catalog
	for _, e := range c {
		key := strings.ToLower(e.Name)
		if _, ok := want[key]; ok {
			out = append(out, e)
			want[key] = true
		}
	}

	var unknown []string
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if matched, ok := want[key]; ok && !matched {
			unknown = append(unknown, n)
			delete(want, key)
		}
	}
	return out, unknown
}

// CanonicalFilename maps a display name to its on-disk filename: lowercase,
// whitespace runs collapsed to "_", anything outside [a-z0-9_-] dropped,
// ".png" appended.
func CanonicalFilename(name string) string {
	return stem(name) + Extension
}

func stem(name string) string {
	// Fields trims and splits on any whitespace run.
	joined := strings.Join(strings.Fields(strings.ToLower(name)), "_")

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
