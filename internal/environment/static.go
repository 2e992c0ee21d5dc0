package environment

import (
	"github.com/frederic-klein/reqsync/internal/dist"
	"github.com/frederic-klein/reqsync/internal/marker"
)

// Static is an in-memory Querier.
type Static struct {
	versions map[string]string
	present  map[string]bool
	markers  marker.Environment
}

// NewStatic builds a Static environment. Every distribution in versions is
// also considered present unless present says otherwise.
func NewStatic(versions map[string]string, present map[string]bool, markers marker.Environment) *Static {
	s := &Static{
		versions: make(map[string]string, len(versions)),
		present:  make(map[string]bool, len(versions)+len(present)),
		markers:  markers,
	}
	for name, v := range versions {
		key := dist.NormalizeName(name)
		s.versions[key] = v
		s.present[key] = true
	}
	for name, ok := range present {
		s.present[dist.NormalizeName(name)] = ok
	}
	return s
}

// InstalledVersion implements Querier.
func (s *Static) InstalledVersion(name string) (string, bool) {
	v, ok := s.versions[dist.NormalizeName(name)]
	return v, ok
}

// IsInstalled implements Querier.
func (s *Static) IsInstalled(name string) bool {
	return s.present[dist.NormalizeName(name)]
}

// Markers implements Querier.
func (s *Static) Markers() marker.Environment {
	return s.markers
}
