package backend

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "backend:version"

// FindRange returns the highest-versioned backend named name whose
// version satisfies the SemVer constraint verRange (e.g. "^1.7",
// ">=2.0.0"). Backends with no version or a version that does not parse
// as SemVer are skipped; Find remains the way to look those up exactly.
func (x *Index) FindRange(name, verRange string) (*Backend, bool, error) {
	constraint, err := semver.NewConstraint(verRange)
	if err != nil {
		return nil, false, fmt.Errorf("%s - invalid version range %q: %w", versionLogPrefix, verRange, err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var best *Backend
	var bestVer *semver.Version
	for _, b := range x.backends {
		if b.name != name || b.version == "" {
			continue
		}
		v, err := semver.NewVersion(b.version)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = b, v
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}
