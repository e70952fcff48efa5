package pandoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRe = regexp.MustCompile(`\b(\d+)\.(\d+)(?:\.(\d+))?`)

// Version is a pandoc release number.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v precedes o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// ParseVersion reads the version from the first line of `pandoc --version`.
func ParseVersion(output string) (Version, bool) {
	first, _, _ := strings.Cut(output, "\n")
	m := versionRe.FindStringSubmatch(first)
	if m == nil {
		return Version{}, false
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// MinimumVersion is the oldest supported pandoc.
var MinimumVersion = Version{Major: 2, Minor: 14}
