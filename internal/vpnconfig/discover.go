// Package vpnconfig finds the VPN client configuration files a session can
// be started with.
package vpnconfig

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/spf13/afero"
)

// Ref identifies a client configuration file. It is passed to the client
// unchanged, so it is relative to the directory netcloak was started in
// unless discovery ran against an absolute directory.
type Ref string

// Name returns the file name without its directory, for display.
func (r Ref) Name() string {
	return filepath.Base(string(r))
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return string(r)
}

// Discoverer enumerates configuration files in a directory.
type Discoverer struct {
	fs  afero.Fs
	dir string
	ext string
}

// NewDiscoverer creates a Discoverer for files in dir ending with ext
// (e.g. ".ovpn"). The match is case-insensitive on the extension.
func NewDiscoverer(fs afero.Fs, dir, ext string) *Discoverer {
	if dir == "" {
		dir = "."
	}
	return &Discoverer{fs: fs, dir: dir, ext: ext}
}

// Dir returns the directory being searched.
func (d *Discoverer) Dir() string {
	return d.dir
}

// Discover returns the matching files sorted by name. It never returns an
// empty slice without an error: no matches is a CONFIG error.
func (d *Discoverer) Discover() ([]Ref, error) {
	entries, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read "+d.dir,
			"Check the directory exists and is readable.")
	}

	var refs []Ref
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), d.ext) {
			continue
		}
		path := entry.Name()
		if d.dir != "." {
			path = filepath.Join(d.dir, entry.Name())
		}
		refs = append(refs, Ref(path))
	}

	if len(refs) == 0 {
		return nil, errors.NewNoConfigurations(d.dir, d.ext)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs, nil
}
