package memes

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinVersion is the oldest backend release this extension fully supports.
var MinVersion = [3]uint64{0, 2, 2}

// MinVersionString renders MinVersion.
func MinVersionString() string {
	return semver.New(MinVersion[0], MinVersion[1], MinVersion[2], "", "").String()
}

// VersionMeets reports whether actual is at least min, comparing major,
// minor and patch in order. Missing or non-numeric minor and patch parts
// count as 0; an unparsable version counts as 0.0.0. Pre-release and build
// suffixes are ignored.
func VersionMeets(actual string, min [3]uint64) bool {
	want := semver.New(min[0], min[1], min[2], "", "")
	return !parseVersion(actual).LessThan(want)
}

func parseVersion(s string) *semver.Version {
	s = strings.TrimSpace(s)
	if v, err := semver.NewVersion(s); err == nil {
		return semver.New(v.Major(), v.Minor(), v.Patch(), "", "")
	}

	var parts [3]uint64
	for i, p := range strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3) {
		n, ok := leadingNumber(p)
		if !ok {
			if i == 0 {
				return semver.New(0, 0, 0, "", "")
			}
			continue
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", "")
}

func leadingNumber(s string) (uint64, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
