// Package version provides ordering for dotted version strings.
//
// Inputs here are OS release versions ("22.04", "9.10") and automation
// engine versions ("2.14.3"). OS versions carry leading zeros, which are
// not valid semver, so comparison parses integer segments directly.
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// Unknown is the version assigned when a tool is absent or its version
// output cannot be parsed. It orders below every real version.
const Unknown = "0.0.0"

var dotted = regexp.MustCompile(`\d+(\.\d+)*`)

// Compare orders two dotted version strings. It returns -1 if a < b,
// 0 if equal, +1 if a > b. Shorter tuples are padded with zeros, so
// "2.14" == "2.14.0" and "9" < "9.10".
func Compare(a, b string) int {
	as := segments(a)
	bs := segments(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// AtLeast returns true if v orders at or above min.
func AtLeast(v, min string) bool {
	return Compare(v, min) >= 0
}

// segments parses a dotted version into integer components. A segment
// with a non-numeric suffix ("04lts") contributes its numeric prefix;
// one with no numeric prefix contributes 0.
func segments(v string) []int {
	parts := strings.Split(strings.TrimSpace(v), ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		j := 0
		for j < len(p) && p[j] >= '0' && p[j] <= '9' {
			j++
		}
		n, err := strconv.Atoi(p[:j])
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}

// Extract pulls the first dotted version out of arbitrary tool output.
// It handles both "ansible [core 2.14.3]" and the legacy "ansible 2.9.6"
// first-line formats. Returns Unknown when no version is present.
func Extract(output string) string {
	line := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		line = output[:idx]
	}
	if m := dotted.FindString(line); m != "" {
		return m
	}
	return Unknown
}
