package models

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is the build a run was executed against
type Version struct {
	Major int
	Minor int
	Patch int
}

// DefaultVersion is used when no usable version is supplied
var DefaultVersion = Version{Major: 1}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// NextPatch returns the version with the patch component incremented
func (v Version) NextPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// ParseVersion parses "1", "1.2", "1.2.3" or "v1.2.3". Prerelease and build
// metadata are dropped.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	return Version{Major: int(sv.Major()), Minor: int(sv.Minor()), Patch: int(sv.Patch())}, nil
}

// ParseVersionOrDefault falls back to 1.0.0 when s cannot be parsed
func ParseVersionOrDefault(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		return DefaultVersion
	}
	return v
}
