package couchvalue

import (
	"strconv"
	"strings"
)

// Version represents a CouchDB version and provides utilities for convenient comparison.
type Version string

const (
	// VersionUnknown indicates the node didn't report a version; this is usually a development build and therefore is
	// treated as being the latest version during comparisons.
	VersionUnknown = Version("0.0.0")

	// Version2_0_0 represents the 2.0.0 release of CouchDB, the first release supporting '/_cluster_setup'.
	Version2_0_0 = Version("2.0.0")

	// Version3_0_0 represents the 3.0.0 release of CouchDB.
	Version3_0_0 = Version("3.0.0")

	// VersionLatest represents the latest known version of CouchDB.
	VersionLatest = Version("3.3.3")

	// MinimumSupportedVersion is the oldest version which can be formed into a cluster.
	MinimumSupportedVersion = Version2_0_0
)

// Older returns a boolean indicating whether the current version is older than the provided version.
//
// NOTE: The unknown version is a special case and is treated as the latest version.
func (v Version) Older(other Version) bool {
	return v.compare(other) < 0
}

// Newer returns a boolean indicating whether the current version is newer than the provided version.
//
// NOTE: The unknown version is a special case and is treated as the latest version.
func (v Version) Newer(other Version) bool {
	return v.compare(other) > 0
}

// AtLeast returns a boolean indicating whether the current version is higher than or equal to the provided version.
//
// NOTE: The unknown version is a special case and is treated as the latest version.
func (v Version) AtLeast(other Version) bool {
	return v.compare(other) >= 0
}

// Equal returns a boolean indicating whether the current version is equal to the provided version.
func (v Version) Equal(other Version) bool {
	return string(v) == string(other)
}

// compare performs a numeric, component wise comparison of the versions whilst specifically handling the case where
// the versions are empty/unknown.
func (v Version) compare(other Version) int {
	if v == "" || v == VersionUnknown {
		v = VersionLatest
	}

	if other == "" || other == VersionUnknown {
		other = VersionLatest
	}

	lhs, rhs := v.components(), other.components()

	for i := 0; i < max(len(lhs), len(rhs)); i++ {
		var l, r int

		if i < len(lhs) {
			l = lhs[i]
		}

		if i < len(rhs) {
			r = rhs[i]
		}

		switch {
		case l < r:
			return -1
		case l > r:
			return 1
		}
	}

	return 0
}

// components splits the version into its numeric parts, a pre-release suffix such as '-RC1' is ignored.
func (v Version) components() []int {
	trimmed, _, _ := strings.Cut(string(v), "-")

	fields := strings.Split(trimmed, ".")
	parsed := make([]int, 0, len(fields))

	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			break
		}

		parsed = append(parsed, n)
	}

	return parsed
}
