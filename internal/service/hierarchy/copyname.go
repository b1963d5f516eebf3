package hierarchy

import (
	"fmt"
	"regexp"
	"strconv"
)

var copySuffixRE = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// disambiguateName returns name, or name with a " (2)", " (3)", ... suffix
// when the plain name is already taken. A name that already carries a copy
// suffix has it stripped and the counter resumed: copying "Report (2)"
// yields "Report (3)", not "Report (2) (2)". The result is truncated from
// the base name side to respect maxLen.
func disambiguateName(name string, taken map[string]struct{}, maxLen int) string {
	if _, exists := taken[name]; !exists {
		return name
	}
	base := name
	start := 2
	if m := copySuffixRE.FindStringSubmatch(name); m != nil {
		base = m[1]
		if n, err := strconv.Atoi(m[2]); err == nil {
			start = n + 1
		}
	}
	for n := start; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate := base
		if len(candidate)+len(suffix) > maxLen {
			candidate = candidate[:maxLen-len(suffix)]
		}
		candidate += suffix
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}
