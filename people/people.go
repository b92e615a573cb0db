// Package people holds the identity directory: the mapping from email
// addresses to the stable person slugs used in the archive.
package people

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Identity is one known person. Ignored identities (mailing-list aliases,
// no-reply addresses) resolve but are silently skipped during archiving.
type Identity struct {
	Slug   string   `yaml:"slug"`
	Ignore bool     `yaml:"ignore"`
	Emails []string `yaml:"emails"`
}

// Directory resolves lowercase email addresses to identities and records the
// addresses that failed to resolve for the end-of-run report.
//
// The directory is read-only after Load and the unresolved list has a single
// writer (the walker is single-threaded), so no locking is needed.
type Directory struct {
	byEmail map[string]Identity

	unresolved     []string
	unresolvedSeen map[string]struct{}
}

// Load reads a YAML contacts file: a list of identities, each carrying a slug,
// an optional ignore flag and one or more email addresses.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}

	var contacts []Identity
	if err := yaml.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parse contacts file %s: %w", path, err)
	}

	dir := NewDirectory()
	for i, id := range contacts {
		if id.Slug == "" {
			return nil, fmt.Errorf("contacts file %s: entry %d has no slug", path, i)
		}
		dir.Add(id)
	}
	return dir, nil
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byEmail:        make(map[string]Identity),
		unresolvedSeen: make(map[string]struct{}),
	}
}

// Add registers an identity under each of its email addresses.
func (d *Directory) Add(id Identity) {
	for _, email := range id.Emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		d.byEmail[email] = id
	}
}

// LookupByEmail resolves a lowercase email address.
func (d *Directory) LookupByEmail(email string) (Identity, bool) {
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return id, ok
}

// NoteUnresolved records an address that has no identity. Each address is
// reported once per run.
func (d *Directory) NoteUnresolved(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	if _, seen := d.unresolvedSeen[email]; seen {
		return
	}
	d.unresolvedSeen[email] = struct{}{}
	d.unresolved = append(d.unresolved, email)
}

// Unresolved returns the sorted list of addresses that failed to resolve.
func (d *Directory) Unresolved() []string {
	out := make([]string, len(d.unresolved))
	copy(out, d.unresolved)
	sort.Strings(out)
	return out
}
