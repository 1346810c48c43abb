// Package firmware handles firmware version parsing, comparison and
// feature gating. Versions are cached per device connection; all higher
// layers gate requested operations through a GateTable before any
// mutating call reaches the transport.
package firmware

import (
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed firmware version. The device reports strings like
// "V1.15", "V2.70" or "V4.70(ABMJ.2)"; the numeric dotted prefix orders
// first, any remaining suffix breaks ties lexically.
type Version struct {
	Raw    string
	parts  []int
	suffix string
}

var versionPrefix = regexp.MustCompile(`^[Vv]?(\d+(?:\.\d+)*)(.*)$`)

// Parse parses a firmware version string. Parsing is tolerant: a string
// with no numeric prefix compares as all-zero with the whole string as
// lexical suffix, so arbitrary vendor strings still have a total order.
func Parse(raw string) Version {
	v := Version{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	m := versionPrefix.FindStringSubmatch(trimmed)
	if m == nil {
		v.parts = []int{0}
		v.suffix = strings.ToUpper(trimmed)
		return v
	}
	for _, p := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		v.parts = append(v.parts, n)
	}
	v.suffix = strings.ToUpper(strings.TrimSpace(m[2]))
	return v
}

// IsZero reports whether no version was detected.
func (v Version) IsZero() bool {
	return v.Raw == ""
}

func (v Version) String() string {
	return v.Raw
}

// Compare returns -1, 0 or 1 as v orders before, equal to or after o.
// Numeric components compare first, padded with zeros; non-numeric
// suffixes compare lexically after the numeric prefix ties.
func (v Version) Compare(o Version) int {
	max := len(v.parts)
	if len(o.parts) > max {
		max = len(o.parts)
	}
	for i := 0; i < max; i++ {
		a, b := 0, 0
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(o.parts) {
			b = o.parts[i]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	if v.suffix < o.suffix {
		return -1
	}
	if v.suffix > o.suffix {
		return 1
	}
	return 0
}

// AtLeast reports whether v is min or newer.
func (v Version) AtLeast(min Version) bool {
	return v.Compare(min) >= 0
}
